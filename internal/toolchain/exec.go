package toolchain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// killGrace bounds how long Wait blocks on inherited pipes after the child
// has been killed.
const killGrace = 5 * time.Second

func runExec(ctx context.Context, cmd Command, stdout, stderr io.Writer) (int, error) {
	argv, err := cmd.Argv()
	if err != nil {
		return -1, err
	}
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return -1, fmt.Errorf("%w: %s: %w", ErrToolNotFound, argv[0], err)
	}

	c := exec.CommandContext(ctx, path, argv[1:]...)
	c.Dir = cmd.Dir
	c.Env = cmd.environ(os.Environ())
	c.Stdout = stdout
	c.Stderr = stderr
	c.WaitDelay = killGrace

	err = c.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		return code, fmt.Errorf("%w: %w", ErrNonZeroExit, err)
	}
	return -1, err
}
