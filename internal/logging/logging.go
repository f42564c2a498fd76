// Package logging configures the process-wide slog logger used by prebuild.
//
// The default console format is CompactHandler, which prints one plain line
// per record with an optional level prefix and colour. The text and json
// formats fall back to the standard slog handlers for machine consumption
// (CI logs, log shippers).
package logging

import (
	"io"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/prebuild/internal/foundation"
)

// Format names accepted by New.
const (
	FormatCompact = "compact"
	FormatText    = "text"
	FormatJSON    = "json"
)

// ParseLevel maps debug|info|warn|error (case-insensitive) to a slog level.
// Unknown values report ok=false and return LevelInfo.
func ParseLevel(s string) (slog.Level, bool) {
	lvl, err := levelNormalizer.NormalizeWithError(s)
	if err != nil {
		return slog.LevelInfo, false
	}
	return lvl, true
}

var levelNormalizer = foundation.NewNormalizer(map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}, slog.LevelInfo)

// New builds a logger writing to w in the given format. level may be shared
// with callers that adjust verbosity after construction.
func New(w io.Writer, level slog.Leveler, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts))
	case FormatText:
		return slog.New(slog.NewTextHandler(w, opts))
	default:
		return slog.New(NewCompactHandler(w, opts))
	}
}

// Setup installs a logger built by New as the slog default and returns it.
func Setup(w io.Writer, level slog.Leveler, format string) *slog.Logger {
	logger := New(w, level, format)
	slog.SetDefault(logger)
	return logger
}
