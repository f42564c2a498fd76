// Package errors provides the classified error primitives used across prebuild.
//
// Every failure the orchestrator can observe (a purge that could not remove a
// directory, a toolchain that exited non-zero, an invalid configuration file)
// is expressed as a ClassifiedError so the CLI can pick an exit code and the
// orchestrator can decide whether to swallow it.
//
// Example usage:
//
//	err := errors.ToolchainError("dotnet build failed").
//		WithContext("dir", target.SourceDir).
//		WithContext("exit_code", 1).
//		WithCause(runErr).
//		Build()
package errors
