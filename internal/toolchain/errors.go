package toolchain

import "errors"

var (
	// ErrToolNotFound indicates the command's executable was not detected on PATH.
	ErrToolNotFound = errors.New("tool not found")
	// ErrNonZeroExit indicates the command ran and returned a non-zero exit status.
	ErrNonZeroExit = errors.New("non-zero exit status")
	// ErrTimeout indicates the command exceeded its configured timeout and was killed.
	ErrTimeout = errors.New("command timed out")
	// ErrInvalidCommand indicates the command could not be turned into an argv or shell program.
	ErrInvalidCommand = errors.New("invalid command")
	// ErrWorkingDir indicates the working directory is missing or not a directory.
	ErrWorkingDir = errors.New("working directory unavailable")
)
