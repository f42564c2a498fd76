package prebuild

import (
	"time"

	"git.home.luguber.info/inful/prebuild/internal/purge"
	"git.home.luguber.info/inful/prebuild/internal/toolchain"
)

// Status is the final state of a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Result describes one Build call.
type Result struct {
	RunID    string
	Target   string
	Status   Status
	Purge    purge.Report
	Steps    []toolchain.Result // pre-commands then build attempts, in order
	Err      error
	Revision string // git HEAD of the source directory when known
	Started  time.Time
	Duration time.Duration
}

// OK reports whether the run succeeded or was skipped as unchanged.
func (r Result) OK() bool { return r.Err == nil && r.Status != StatusFailed }

// Last returns the final toolchain step, if any ran.
func (r Result) Last() (toolchain.Result, bool) {
	if len(r.Steps) == 0 {
		return toolchain.Result{}, false
	}
	return r.Steps[len(r.Steps)-1], true
}

// ExitCode is the exit status of the last step, 0 when nothing ran.
func (r Result) ExitCode() int {
	if last, ok := r.Last(); ok {
		return last.ExitCode
	}
	return 0
}
