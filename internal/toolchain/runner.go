package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	ferrors "git.home.luguber.info/inful/prebuild/internal/foundation/errors"
	"git.home.luguber.info/inful/prebuild/internal/logfields"
)

// Runner executes a Command. Implementations return a Result for every
// command that started, together with a classified error on failure.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, cmd Command) (Result, error)

func (f RunnerFunc) Run(ctx context.Context, cmd Command) (Result, error) { return f(ctx, cmd) }

// LocalRunner runs commands on this machine: argv commands through os/exec,
// shell commands through the embedded interpreter. Output is always captured;
// when Stdout/Stderr are set it is also streamed to them as it arrives.
type LocalRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewLocalRunner returns a runner streaming child output to stdout/stderr.
func NewLocalRunner(stdout, stderr io.Writer) *LocalRunner {
	return &LocalRunner{Stdout: stdout, Stderr: stderr}
}

func (r *LocalRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	res := Result{Command: cmd.String(), Dir: cmd.Dir, ExitCode: -1}
	if err := checkDir(cmd.Dir); err != nil {
		return res, err
	}

	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	outW, errW := tee(&stdout, r.Stdout), tee(&stderr, r.Stderr)

	slog.Debug("Running command", logfields.Command([]string{res.Command}), logfields.Dir(cmd.Dir), slog.Bool("shell", cmd.Shell))
	start := time.Now()
	var code int
	var err error
	if cmd.Shell {
		code, err = runShell(ctx, cmd, outW, errW)
	} else {
		code, err = runExec(ctx, cmd, outW, errW)
	}
	res.Duration = time.Since(start)
	res.ExitCode = code
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	if err != nil {
		return res, classify(ctx, cmd, res, err)
	}
	slog.Debug("Command finished", logfields.ExitCode(code), logfields.Duration(res.Duration))
	return res, nil
}

func tee(buf *bytes.Buffer, live io.Writer) io.Writer {
	if live == nil {
		return buf
	}
	return io.MultiWriter(buf, live)
}

func checkDir(dir string) error {
	if dir == "" {
		return nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return ferrors.WrapError(fmt.Errorf("%w: %w", ErrWorkingDir, err), ferrors.CategoryFileSystem, "cannot run build").
			UserAction().
			WithContext("dir", dir).
			Build()
	}
	if !info.IsDir() {
		return ferrors.WrapError(ErrWorkingDir, ferrors.CategoryFileSystem, "cannot run build").
			UserAction().
			WithContext("dir", dir).
			Build()
	}
	return nil
}

// classify turns a raw execution error into a ClassifiedError carrying the
// command, directory and exit code.
func classify(ctx context.Context, cmd Command, res Result, err error) error {
	var b *ferrors.ErrorBuilder
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		b = ferrors.WrapError(fmt.Errorf("%w after %s", ErrTimeout, cmd.Timeout), ferrors.CategoryToolchain, "build command failed").Retryable()
	case errors.Is(ctx.Err(), context.Canceled):
		b = ferrors.WrapError(ctx.Err(), ferrors.CategoryCanceled, "build command interrupted")
	case errors.Is(err, ErrToolNotFound), errors.Is(err, ErrInvalidCommand):
		b = ferrors.WrapError(err, ferrors.CategoryToolchain, "cannot run build").UserAction()
	case errors.Is(err, ErrNonZeroExit):
		b = ferrors.WrapError(err, ferrors.CategoryToolchain, "build command failed").Retryable()
	default:
		b = ferrors.WrapError(err, ferrors.CategoryToolchain, "build command failed")
	}
	return b.WithContext("command", res.Command).
		WithContext("dir", cmd.Dir).
		WithContext("exit_code", res.ExitCode).
		Build()
}

// NoopRunner reports success without running anything; used for dry runs.
type NoopRunner struct{}

func (NoopRunner) Run(_ context.Context, cmd Command) (Result, error) {
	slog.Debug("NoopRunner skipping command", logfields.Command([]string{cmd.String()}), logfields.Dir(cmd.Dir))
	return Result{Command: cmd.String(), Dir: cmd.Dir}, nil
}
