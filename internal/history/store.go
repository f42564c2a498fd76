// Package history keeps a small SQLite record of pre-build runs. It backs the
// history command and the skip_unchanged check.
package history

import (
	"context"
	"time"
)

// Status values stored for a run.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Run is one recorded pre-build of a target.
type Run struct {
	ID        string
	Target    string
	Status    string
	StartedAt time.Time
	Duration  time.Duration
	ExitCode  int
	Revision  string // git HEAD of the source directory, empty when unknown
	Message   string
}

// Store persists runs.
type Store interface {
	Record(ctx context.Context, run Run) error
	// Recent returns up to limit runs, newest first.
	Recent(ctx context.Context, limit int) ([]Run, error)
	// LastSuccess returns the newest succeeded run of target.
	LastSuccess(ctx context.Context, target string) (Run, bool, error)
	Close() error
}
