package prebuild

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/prebuild/internal/config"
	ferrors "git.home.luguber.info/inful/prebuild/internal/foundation/errors"
	"git.home.luguber.info/inful/prebuild/internal/history"
	"git.home.luguber.info/inful/prebuild/internal/metrics"
	"git.home.luguber.info/inful/prebuild/internal/source"
	"git.home.luguber.info/inful/prebuild/internal/toolchain"
)

// fakeRunner records commands and replays scripted outcomes. With no script
// left every command succeeds.
type fakeRunner struct {
	mu       sync.Mutex
	calls    []toolchain.Command
	outcomes []error
	exits    []int
}

func (f *fakeRunner) Run(_ context.Context, cmd toolchain.Command) (toolchain.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmd)
	res := toolchain.Result{Command: cmd.String(), Dir: cmd.Dir, Duration: 20 * time.Millisecond, Stdout: "Build succeeded.\n"}
	if len(f.outcomes) == 0 {
		return res, nil
	}
	err := f.outcomes[0]
	f.outcomes = f.outcomes[1:]
	if len(f.exits) > 0 {
		res.ExitCode = f.exits[0]
		f.exits = f.exits[1:]
	}
	return res, err
}

func nonZero(code int) error {
	return ferrors.WrapError(fmt.Errorf("%w: exit status %d", toolchain.ErrNonZeroExit, code), ferrors.CategoryToolchain, "build command failed").
		Retryable().
		WithContext("exit_code", code).
		Build()
}

// target returns a finalized default target rooted in a temp dir.
func target(t *testing.T, mutate func(*config.Target)) config.Target {
	t.Helper()
	cfg := config.Default()
	tg := cfg.Targets[0]
	tg.SourceDir = filepath.Join(t.TempDir(), "RockSniffer")
	require.NoError(t, os.MkdirAll(tg.SourceDir, 0o750))
	if mutate != nil {
		mutate(&tg)
	}
	return tg
}

func TestBuildSuccessWithMissingArtifactDirectory(t *testing.T) {
	tg := target(t, nil)
	runner := &fakeRunner{}
	var out bytes.Buffer

	res := New(runner, WithOutput(&out)).Build(context.Background(), tg)

	require.NoError(t, res.Err)
	assert.True(t, res.OK())
	assert.Equal(t, StatusSucceeded, res.Status)
	assert.NotEmpty(t, res.RunID)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Executing dotnet build on RockSniffer...", lines[0])
	assert.NotContains(t, out.String(), "Removed directory")
	assert.True(t, strings.HasPrefix(lines[1], "RockSniffer Build Output: Result(command=dotnet build /p:Configuration=Release /p:Platform=x64"), lines[1])

	require.Len(t, runner.calls, 1)
	assert.Equal(t, tg.SourceDir, runner.calls[0].Dir)
	assert.Equal(t, "dotnet", runner.calls[0].Tool)
}

func TestBuildRemovesStaleArtifactDirectory(t *testing.T) {
	tg := target(t, nil)
	stale := filepath.Join(tg.SourceDir, "bin", "x64", "Release", "net6.0-windows")
	require.NoError(t, os.MkdirAll(stale, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(stale, "RockSniffer.dll"), []byte("old"), 0o600))

	var out bytes.Buffer
	res := New(&fakeRunner{}, WithOutput(&out)).Build(context.Background(), tg)

	require.NoError(t, res.Err)
	assert.NoDirExists(t, stale)
	assert.Contains(t, out.String(), "Removed directory "+stale+"\n")
	assert.Len(t, res.Purge.Removed(), 1)

	// The removal line comes between the announcement and the result.
	idxExec := strings.Index(out.String(), "Executing dotnet build")
	idxRemoved := strings.Index(out.String(), "Removed directory")
	idxOutput := strings.Index(out.String(), "Build Output:")
	assert.True(t, idxExec < idxRemoved && idxRemoved < idxOutput)

	// Second invocation: cleanup is a no-op.
	out.Reset()
	again := New(&fakeRunner{}, WithOutput(&out)).Build(context.Background(), tg)
	require.NoError(t, again.Err)
	require.NoError(t, again.Purge.Err)
	assert.NotContains(t, out.String(), "Removed directory")
}

func TestBuildFailureIsReportedNotRaised(t *testing.T) {
	tg := target(t, nil)
	runner := &fakeRunner{outcomes: []error{nonZero(1)}, exits: []int{1}}
	var out bytes.Buffer

	var res Result
	assert.NotPanics(t, func() {
		res = New(runner, WithOutput(&out)).Build(context.Background(), tg)
	})
	require.Error(t, res.Err)
	assert.False(t, res.OK())
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, 1, res.ExitCode())
	assert.Contains(t, out.String(), "Error executing dotnet build: build command failed: non-zero exit status: exit status 1")
	assert.NotContains(t, out.String(), "Build Output:")

	assert.NotPanics(t, func() {
		New(&fakeRunner{outcomes: []error{nonZero(2)}}, WithOutput(&out)).BuildBestEffort(context.Background(), tg)
	})
}

func TestPurgeFailureDoesNotAbortBuild(t *testing.T) {
	tg := target(t, func(tg *config.Target) { tg.Purge.Directories = []string{"bin"} })
	// A regular file where a directory is expected cannot be purged.
	require.NoError(t, os.WriteFile(filepath.Join(tg.SourceDir, "bin"), []byte("x"), 0o600))

	runner := &fakeRunner{}
	var out bytes.Buffer
	res := New(runner, WithOutput(&out)).Build(context.Background(), tg)

	require.NoError(t, res.Err)
	require.Error(t, res.Purge.Err)
	assert.Len(t, runner.calls, 1, "build still runs after a cleanup failure")
	assert.FileExists(t, filepath.Join(tg.SourceDir, "bin"))
	assert.Contains(t, out.String(), "RockSniffer Build Output:")
}

func TestPreCommandsRunFirstAndFailureStops(t *testing.T) {
	tg := target(t, func(tg *config.Target) {
		tg.PreCommands = []config.CommandConfig{{Tool: "dotnet", Args: []string{"clean"}}}
	})

	runner := &fakeRunner{}
	res := New(runner, WithOutput(&bytes.Buffer{})).Build(context.Background(), tg)
	require.NoError(t, res.Err)
	require.Len(t, runner.calls, 2)
	assert.Equal(t, []string{"clean"}, runner.calls[0].Args)
	assert.Equal(t, "build", runner.calls[1].Args[0])
	assert.Len(t, res.Steps, 2)

	failing := &fakeRunner{outcomes: []error{nonZero(1)}}
	var out bytes.Buffer
	res = New(failing, WithOutput(&out)).Build(context.Background(), tg)
	require.Error(t, res.Err)
	assert.Len(t, failing.calls, 1, "build is not attempted after a failed pre-command")
	assert.Contains(t, out.String(), "Error executing dotnet build:")
}

func TestRetryPolicy(t *testing.T) {
	tg := target(t, func(tg *config.Target) {
		tg.Retry = config.RetryConfig{MaxRetries: 2, Backoff: "fixed", Initial: time.Millisecond, Max: time.Millisecond}
	})
	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)

	runner := &fakeRunner{outcomes: []error{nonZero(1), nil}}
	res := New(runner, WithOutput(&bytes.Buffer{}), WithRecorder(rec)).Build(context.Background(), tg)
	require.NoError(t, res.Err)
	assert.Len(t, runner.calls, 2)
	assert.Len(t, res.Steps, 2)

	// Errors that are not retryable stop immediately.
	missing := ferrors.WrapError(toolchain.ErrToolNotFound, ferrors.CategoryToolchain, "cannot run build").UserAction().Build()
	runner = &fakeRunner{outcomes: []error{missing}}
	res = New(runner, WithOutput(&bytes.Buffer{})).Build(context.Background(), tg)
	require.Error(t, res.Err)
	assert.Len(t, runner.calls, 1)
}

func TestDefaultTargetNeverRetries(t *testing.T) {
	tg := target(t, nil)
	runner := &fakeRunner{outcomes: []error{nonZero(1), nil}}
	res := New(runner, WithOutput(&bytes.Buffer{})).Build(context.Background(), tg)
	require.Error(t, res.Err)
	assert.Len(t, runner.calls, 1)
}

func TestRunAllModes(t *testing.T) {
	ok := target(t, func(tg *config.Target) { tg.Name = "ok" })
	bad := target(t, func(tg *config.Target) { tg.Name = "bad" })

	runner := &fakeRunner{outcomes: []error{nil, nonZero(1)}}
	results, err := New(runner, WithOutput(&bytes.Buffer{})).RunAll(context.Background(), []config.Target{ok, bad}, config.ModeBestEffort)
	require.NoError(t, err, "best-effort never surfaces failures")
	require.Len(t, results, 2)
	assert.True(t, results[0].OK())
	assert.False(t, results[1].OK())

	runner = &fakeRunner{outcomes: []error{nonZero(1), nil}}
	results, err = New(runner, WithOutput(&bytes.Buffer{})).RunAll(context.Background(), []config.Target{bad, ok}, config.ModeStrict)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryToolchain))
	assert.Len(t, results, 2, "every target is attempted in strict mode too")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(&fakeRunner{}, WithOutput(&bytes.Buffer{})).RunAll(ctx, []config.Target{ok}, config.ModeStrict)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryCanceled))
}

func TestSkipUnchanged(t *testing.T) {
	store, err := history.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	tg := target(t, func(tg *config.Target) { tg.SkipUnchanged = true })
	state := source.State{Head: "0123456789abcdef0123", Clean: true}
	revision := func(string) (source.State, error) { return state, nil }

	runner := &fakeRunner{}
	var out bytes.Buffer
	orch := New(runner, WithOutput(&out), WithHistory(store), WithRevisionFunc(revision))

	first := orch.Build(context.Background(), tg)
	require.NoError(t, first.Err)
	assert.Equal(t, StatusSucceeded, first.Status)
	assert.Equal(t, state.Head, first.Revision)

	out.Reset()
	second := orch.Build(context.Background(), tg)
	assert.Equal(t, StatusSkipped, second.Status)
	assert.True(t, second.OK())
	assert.Equal(t, "RockSniffer unchanged at 0123456789ab, skipping build\n", out.String())
	assert.Len(t, runner.calls, 1)

	// A dirty tree is always rebuilt.
	state.Clean = false
	third := orch.Build(context.Background(), tg)
	assert.Equal(t, StatusSucceeded, third.Status)
	assert.Len(t, runner.calls, 2)

	runs, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, history.StatusSucceeded, runs[0].Status)
	assert.Equal(t, history.StatusSkipped, runs[1].Status)
}

func TestSkipUnchangedWithoutRepository(t *testing.T) {
	store, err := history.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	tg := target(t, func(tg *config.Target) { tg.SkipUnchanged = true })
	runner := &fakeRunner{}
	orch := New(runner, WithOutput(&bytes.Buffer{}), WithHistory(store), WithRevisionFunc(func(string) (source.State, error) {
		return source.State{}, source.ErrNotRepository
	}))
	for i := 0; i < 2; i++ {
		res := orch.Build(context.Background(), tg)
		assert.Equal(t, StatusSucceeded, res.Status)
	}
	assert.Len(t, runner.calls, 2)
}

func TestFailedRunRecordsHistoryMessage(t *testing.T) {
	store, err := history.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	tg := target(t, nil)
	orch := New(&fakeRunner{outcomes: []error{nonZero(3)}, exits: []int{3}}, WithOutput(&bytes.Buffer{}), WithHistory(store),
		WithRevisionFunc(func(string) (source.State, error) { return source.State{}, errors.New("no git") }))
	res := orch.Build(context.Background(), tg)
	require.Error(t, res.Err)

	runs, err := store.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].ID)
	assert.Equal(t, history.StatusFailed, runs[0].Status)
	assert.Equal(t, 3, runs[0].ExitCode)
	assert.Contains(t, runs[0].Message, "build command failed")
}

func TestDryRunTouchesNothing(t *testing.T) {
	tg := target(t, func(tg *config.Target) { tg.Purge.Globs = []string{"cache.sqlite*"} })
	stale := filepath.Join(tg.SourceDir, "bin", "x64", "Release", "net6.0-windows")
	require.NoError(t, os.MkdirAll(stale, 0o750))

	runner := &fakeRunner{}
	var out bytes.Buffer
	res := New(runner, WithOutput(&out), WithDryRun(true)).Build(context.Background(), tg)
	require.NoError(t, res.Err)
	assert.DirExists(t, stale)
	assert.Empty(t, runner.calls)
	assert.Contains(t, out.String(), "Would remove "+stale)
	assert.Contains(t, out.String(), "Would remove "+filepath.Join(tg.SourceDir, "cache.sqlite*"))
}

func TestPanickingRunnerIsContained(t *testing.T) {
	tg := target(t, nil)
	runner := toolchain.RunnerFunc(func(context.Context, toolchain.Command) (toolchain.Result, error) {
		panic("runner exploded")
	})
	var out bytes.Buffer
	var res Result
	require.NotPanics(t, func() { res = New(runner, WithOutput(&out)).Build(context.Background(), tg) })
	require.Error(t, res.Err)
	assert.True(t, ferrors.HasCategory(res.Err, ferrors.CategoryInternal))
	assert.Contains(t, out.String(), "Error executing dotnet build: pre-build panicked: runner exploded")
}

func TestPlanAndDescribe(t *testing.T) {
	tg := target(t, func(tg *config.Target) {
		tg.PreCommands = []config.CommandConfig{{Line: "dotnet restore"}}
		tg.Command = &config.CommandConfig{Line: "dotnet build -c Release && echo done", Shell: true}
	})
	plan := Plan(tg)
	require.Len(t, plan, 2)
	assert.Equal(t, "dotnet restore", plan[0].String())
	assert.True(t, plan[1].Shell)
	assert.Equal(t, tg.SourceDir, plan[1].Dir)

	assert.Equal(t, "", Describe(nil))
	assert.Equal(t, "plain", Describe(errors.New("plain")))
	assert.Equal(t, "cannot run build: tool not found", Describe(
		ferrors.WrapError(toolchain.ErrToolNotFound, ferrors.CategoryToolchain, "cannot run build").Build()))
}
