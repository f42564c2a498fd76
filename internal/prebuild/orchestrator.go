package prebuild

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"git.home.luguber.info/inful/prebuild/internal/config"
	ferrors "git.home.luguber.info/inful/prebuild/internal/foundation/errors"
	"git.home.luguber.info/inful/prebuild/internal/history"
	"git.home.luguber.info/inful/prebuild/internal/logfields"
	"git.home.luguber.info/inful/prebuild/internal/metrics"
	"git.home.luguber.info/inful/prebuild/internal/purge"
	"git.home.luguber.info/inful/prebuild/internal/retry"
	"git.home.luguber.info/inful/prebuild/internal/source"
	"git.home.luguber.info/inful/prebuild/internal/toolchain"
)

// RevisionFunc reports the git state of a source directory.
type RevisionFunc func(dir string) (source.State, error)

// Orchestrator runs the pre-build steps for targets. It is safe to reuse
// across targets but not for concurrent Build calls.
type Orchestrator struct {
	runner   toolchain.Runner
	out      io.Writer
	logger   *slog.Logger
	recorder metrics.Recorder
	history  history.Store
	revision RevisionFunc
	now      func() time.Time
	dryRun   bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithOutput sets where console status lines are printed (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(o *Orchestrator) {
		if w != nil {
			o.out = w
		}
	}
}

// WithLogger sets the diagnostic logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithHistory enables run recording and skip_unchanged.
func WithHistory(s history.Store) Option {
	return func(o *Orchestrator) { o.history = s }
}

// WithRevisionFunc replaces the git inspection used for skip_unchanged.
func WithRevisionFunc(f RevisionFunc) Option {
	return func(o *Orchestrator) {
		if f != nil {
			o.revision = f
		}
	}
}

// WithDryRun prints what would be removed and run without touching anything.
func WithDryRun(dry bool) Option {
	return func(o *Orchestrator) { o.dryRun = dry }
}

// New returns an Orchestrator executing commands through runner.
func New(runner toolchain.Runner, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		runner:   runner,
		out:      os.Stdout,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
		revision: source.Revision,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.dryRun {
		o.runner = toolchain.NoopRunner{}
	}
	return o
}

// BuildBestEffort runs Build and discards the outcome. Failures have already
// been printed and logged by Build; nothing reaches the caller.
func (o *Orchestrator) BuildBestEffort(ctx context.Context, t config.Target) {
	_ = o.Build(ctx, t)
}

// RunAll builds targets in order. In strict mode the failures are returned
// (aggregated); in best-effort mode the returned error is always nil. Every
// target is attempted either way.
func (o *Orchestrator) RunAll(ctx context.Context, targets []config.Target, mode config.Mode) ([]Result, error) {
	results := make([]Result, 0, len(targets))
	var errs *multierror.Error
	for _, t := range targets {
		if ctx.Err() != nil {
			errs = multierror.Append(errs, ferrors.WrapError(ctx.Err(), ferrors.CategoryCanceled, "pre-build interrupted").Build())
			break
		}
		res := o.Build(ctx, t)
		results = append(results, res)
		if res.Err != nil {
			errs = multierror.Append(errs, res.Err)
		}
	}
	if mode != config.ModeStrict {
		if err := errs.ErrorOrNil(); err != nil {
			o.logger.Debug("Best-effort mode: not propagating pre-build failure", logfields.Error(err))
		}
		return results, nil
	}
	if errs == nil {
		return results, nil
	}
	if len(errs.Errors) == 1 {
		return results, errs.Errors[0]
	}
	return results, errs
}

// Build purges stale artifacts of t, runs its pre-commands and build command,
// and prints the outcome. It never panics; failures end up in Result.Err.
func (o *Orchestrator) Build(ctx context.Context, t config.Target) (res Result) {
	res = Result{RunID: uuid.NewString(), Target: t.Name, Started: o.now()}
	log := o.logger.With(logfields.RunID(res.RunID), logfields.Target(t.Name))

	defer func() {
		if r := recover(); r != nil {
			res.Err = ferrors.InternalError(fmt.Sprintf("pre-build panicked: %v", r)).Build()
			res.Status = StatusFailed
			o.printf("Error executing %s build: %s\n", buildCommand(t).ToolName(), Describe(res.Err))
		}
		res.Duration = o.now().Sub(res.Started)
		o.finish(ctx, log, &res)
	}()

	build := buildCommand(t)
	if o.skipUnchanged(ctx, log, t, &res) {
		return res
	}

	o.printf("Executing %s build on %s...\n", build.ToolName(), t.Name)
	o.purge(log, t, &res)

	for _, pc := range t.PreCommands {
		cmd := command(t, pc)
		step, err := o.run(ctx, log, metrics.StepPreCommand, cmd)
		res.Steps = append(res.Steps, step)
		if err != nil {
			res.Err = err
			res.Status = StatusFailed
			o.printf("Error executing %s build: %s\n", cmd.ToolName(), Describe(err))
			return res
		}
	}

	policy := retry.NewPolicy(t.Retry.Backoff, t.Retry.Initial, t.Retry.Max, t.Retry.MaxRetries)
	err := policy.Do(ctx, retryable, func(attempt int) error {
		if attempt > 1 {
			o.recorder.IncBuildRetry(t.Name)
			log.Warn("Retrying build", logfields.Attempt(attempt), slog.Duration("delay", policy.Delay(attempt-1)))
		}
		step, err := o.run(ctx, log, metrics.StepBuild, build)
		res.Steps = append(res.Steps, step)
		return err
	})
	if err != nil {
		res.Err = err
		res.Status = StatusFailed
		o.printf("Error executing %s build: %s\n", build.ToolName(), Describe(err))
		return res
	}

	res.Status = StatusSucceeded
	last, _ := res.Last()
	o.printf("%s Build Output: %s\n", t.Name, last)
	return res
}

func (o *Orchestrator) purge(log *slog.Logger, t config.Target, res *Result) {
	if len(t.Purge.Directories) == 0 && len(t.Purge.Globs) == 0 {
		return
	}
	if o.dryRun {
		for _, p := range purge.Describe(t.SourceDir, t.Purge.Directories, t.Purge.Globs) {
			o.printf("Would remove %s\n", p)
		}
		return
	}

	p := purge.New(log)
	p.OnRemove = func(e purge.Entry) {
		o.printf("Removed %s %s\n", e.Kind, e.Path)
	}
	start := o.now()
	res.Purge = p.Purge(t.SourceDir, t.Purge.Directories, t.Purge.Globs)
	o.recorder.ObserveStepDuration(metrics.StepPurge, o.now().Sub(start))
	o.recorder.AddPurgedBytes(t.Name, res.Purge.RemovedBytes())

	if res.Purge.Err != nil {
		// Cleanup problems never stop the build.
		log.Warn("Stale artifact cleanup incomplete", logfields.Error(res.Purge.Err))
		return
	}
	if removed := res.Purge.Removed(); len(removed) > 0 {
		log.Info("Stale artifacts removed", slog.String("summary", res.Purge.Summary()), logfields.Bytes(res.Purge.RemovedBytes()))
	}
}

func (o *Orchestrator) run(ctx context.Context, log *slog.Logger, step string, cmd toolchain.Command) (toolchain.Result, error) {
	log.Debug("Invoking toolchain", logfields.Step(step), logfields.Tool(cmd.ToolName()), slog.String(logfields.KeyCommand, cmd.String()), logfields.Dir(cmd.Dir))
	start := o.now()
	out, err := o.runner.Run(ctx, cmd)
	o.recorder.ObserveStepDuration(step, o.now().Sub(start))
	if err != nil {
		log.Error("Toolchain step failed", logfields.Step(step), logfields.ExitCode(out.ExitCode), logfields.Error(err))
		if detail := out.Output(); detail != "" {
			log.Debug("Toolchain output", logfields.Step(step), slog.String("output", detail))
		}
		return out, err
	}
	log.Debug("Toolchain step finished", logfields.Step(step), logfields.Duration(out.Duration))
	return out, nil
}

// skipUnchanged fills res.Revision and reports whether the build can be
// skipped because the clean HEAD matches the last successful run.
func (o *Orchestrator) skipUnchanged(ctx context.Context, log *slog.Logger, t config.Target, res *Result) bool {
	if o.history == nil {
		return false
	}
	state, err := o.revision(t.SourceDir)
	if err != nil {
		if t.SkipUnchanged && !errors.Is(err, source.ErrNotRepository) {
			log.Warn("Cannot determine source revision", logfields.Error(err))
		}
		return false
	}
	res.Revision = state.Head
	if !t.SkipUnchanged || o.dryRun {
		return false
	}
	last, ok, err := o.history.LastSuccess(ctx, t.Name)
	if err != nil {
		log.Warn("Cannot read run history", logfields.Error(err))
		return false
	}
	if !ok || !state.Unchanged(last.Revision) {
		log.Debug("Source changed since last successful build", logfields.Revision(state.Short()), slog.Bool("clean", state.Clean))
		return false
	}
	res.Status = StatusSkipped
	o.printf("%s unchanged at %s, skipping build\n", t.Name, state.Short())
	return true
}

// finish records history and metrics. Failures here are logged only.
func (o *Orchestrator) finish(ctx context.Context, log *slog.Logger, res *Result) {
	o.recorder.ObserveBuildDuration(res.Target, res.Duration)
	o.recorder.IncBuildOutcome(res.Target, metrics.OutcomeLabel(res.Status))

	attrs := []any{logfields.Status(string(res.Status)), logfields.Duration(res.Duration)}
	if res.Err != nil {
		attrs = append(attrs, logfields.Error(res.Err))
	}
	log.Info("Pre-build finished", attrs...)

	if o.history == nil || o.dryRun {
		return
	}
	msg := ""
	if res.Err != nil {
		msg = Describe(res.Err)
	}
	// Record with a fresh context so an interrupted build is still recorded.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := o.history.Record(recordCtx, history.Run{
		ID:        res.RunID,
		Target:    res.Target,
		Status:    string(res.Status),
		StartedAt: res.Started,
		Duration:  res.Duration,
		ExitCode:  res.ExitCode(),
		Revision:  res.Revision,
		Message:   msg,
	}); err != nil {
		log.Warn("Failed to record run history", logfields.Error(err))
	}
}

func (o *Orchestrator) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.out, format, args...)
}

// retryable re-invokes only failures the toolchain marked retryable, such as
// non-zero exits and timeouts; a missing tool or cancellation is final.
func retryable(err error) bool {
	ce, ok := ferrors.AsClassified(err)
	if !ok {
		return false
	}
	return ce.CanRetry() && !ce.IsCategory(ferrors.CategoryCanceled)
}

// Describe renders err without the category prefix, for console output.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if ce, ok := ferrors.AsClassified(err); ok {
		if ce.Cause() != nil {
			return ce.Message() + ": " + ce.Cause().Error()
		}
		return ce.Message()
	}
	return err.Error()
}
