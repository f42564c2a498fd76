package toolchain

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// runShell interprets cmd.Line with POSIX semantics. Builtins run in-process;
// everything else goes through the interpreter's default exec handler, which
// reports unknown programs as exit status 127.
func runShell(ctx context.Context, cmd Command, stdout, stderr io.Writer) (int, error) {
	file, err := syntax.NewParser().Parse(strings.NewReader(cmd.Line), "")
	if err != nil {
		return -1, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(cmd.environ(os.Environ())...)),
		interp.StdIO(nil, stdout, stderr),
	}
	if cmd.Dir != "" {
		opts = append(opts, interp.Dir(cmd.Dir))
	}
	runner, err := interp.New(opts...)
	if err != nil {
		return -1, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	err = runner.Run(ctx, file)
	if err == nil {
		return 0, nil
	}
	if status, ok := interp.IsExitStatus(err); ok {
		if status == 127 {
			return int(status), fmt.Errorf("%w: %s", ErrToolNotFound, cmd.ToolName())
		}
		return int(status), fmt.Errorf("%w: exit status %d", ErrNonZeroExit, status)
	}
	return -1, err
}
