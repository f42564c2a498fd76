package logfields

import (
	"log/slog"
	"strings"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyTarget     = "target"
	KeyPath       = "path"
	KeyDir        = "dir"
	KeyTool       = "tool"
	KeyCommand    = "command"
	KeyStep       = "step"
	KeyExitCode   = "exit_code"
	KeyAttempt    = "attempt"
	KeyMode       = "mode"
	KeyStatus     = "status"
	KeyRevision   = "revision"
	KeyBytes      = "bytes"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Target(name string) slog.Attr    { return slog.String(KeyTarget, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Dir(d string) slog.Attr          { return slog.String(KeyDir, d) }
func Tool(t string) slog.Attr         { return slog.String(KeyTool, t) }
func Step(s string) slog.Attr         { return slog.String(KeyStep, s) }
func ExitCode(c int) slog.Attr        { return slog.Int(KeyExitCode, c) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func Status(s string) slog.Attr       { return slog.String(KeyStatus, s) }
func Revision(r string) slog.Attr     { return slog.String(KeyRevision, r) }
func Bytes(n int64) slog.Attr         { return slog.Int64(KeyBytes, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

// Command joins argv with spaces; use toolchain.Result.String for shell-quoted output.
func Command(argv []string) slog.Attr { return slog.String(KeyCommand, strings.Join(argv, " ")) }

// Duration records d in milliseconds under KeyDurationMS.
func Duration(d time.Duration) slog.Attr {
	return DurationMS(float64(d) / float64(time.Millisecond))
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
