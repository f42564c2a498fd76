package history

import (
	"git.home.luguber.info/inful/prebuild/internal/foundation/errors"
)

// Sentinel errors for run history operations. Failures are wrapped with %w so
// both errors.Is and the history category survive.
var (
	// ErrOpenFailed indicates the SQLite database could not be opened.
	ErrOpenFailed = errors.HistoryError("could not open run history database").Build()

	// ErrInitializeSchemaFailed indicates the database schema could not be initialized.
	ErrInitializeSchemaFailed = errors.HistoryError("failed to initialize run history schema").Build()

	// ErrRecordFailed indicates inserting a run failed.
	ErrRecordFailed = errors.HistoryError("failed to record run").Build()

	// ErrQueryFailed indicates querying runs failed.
	ErrQueryFailed = errors.HistoryError("failed to query run history").Build()
)
