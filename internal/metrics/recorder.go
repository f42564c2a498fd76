package metrics

import "time"

// OutcomeLabel enumerates final build statuses for counters.
type OutcomeLabel string

const (
	OutcomeSucceeded OutcomeLabel = "succeeded"
	OutcomeFailed    OutcomeLabel = "failed"
	OutcomeSkipped   OutcomeLabel = "skipped"
)

// Step names observed with ObserveStepDuration.
const (
	StepPurge      = "purge"
	StepPreCommand = "pre_command"
	StepBuild      = "build"
)

// Recorder defines observability hooks for pre-build runs.
type Recorder interface {
	ObserveBuildDuration(target string, d time.Duration)
	ObserveStepDuration(step string, d time.Duration)
	IncBuildOutcome(target string, outcome OutcomeLabel)
	AddPurgedBytes(target string, n int64)
	IncBuildRetry(target string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(string, time.Duration) {}
func (NoopRecorder) ObserveStepDuration(string, time.Duration)  {}
func (NoopRecorder) IncBuildOutcome(string, OutcomeLabel)       {}
func (NoopRecorder) AddPurgedBytes(string, int64)               {}
func (NoopRecorder) IncBuildRetry(string)                       {}
