// Package prebuild prepares a third-party component before the main build:
// it purges stale artifacts, runs the component's build tool in its source
// directory and reports what happened.
//
// Console status lines go to the orchestrator's output writer (stdout in the
// CLI); structured diagnostics go through slog. Build never panics and never
// returns an error directly: every failure is captured in Result.Err, and
// BuildBestEffort discards it after logging, which is the default behaviour
// of the CLI.
package prebuild
