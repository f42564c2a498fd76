package commands

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/prebuild/internal/config"
	ferrors "git.home.luguber.info/inful/prebuild/internal/foundation/errors"
	"git.home.luguber.info/inful/prebuild/internal/logfields"
	"git.home.luguber.info/inful/prebuild/internal/watch"
)

// WatchCmd implements the 'watch' command. Builds run best-effort: a failed
// build is reported and the watcher keeps going.
type WatchCmd struct {
	Target    string `arg:"" optional:"" help:"Target to watch (default: first configured target)"`
	NoInitial bool   `name:"no-initial" help:"Do not build once before watching"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	t, ok := cfg.Target(w.Target)
	if !ok {
		return ferrors.NotFoundError("unknown target").WithContext("target", w.Target).Build()
	}
	target := *t

	s := newSession(g, cfg, false)
	defer s.Close()

	ctx := commandContext(g)
	rebuild := func(ctx context.Context) {
		s.orch.BuildBestEffort(ctx, target)
		s.flush()
	}
	if !w.NoInitial {
		rebuild(ctx)
	}

	watcher, err := watch.New(target.SourceDir, watch.Options{
		Debounce: cfg.Watch.Debounce,
		Ignore:   watchIgnores(cfg, target),
	})
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot watch source directory").
			WithContext("dir", target.SourceDir).
			Build()
	}
	fmt.Fprintf(g.Stdout, "Watching %s for changes (Ctrl+C to stop)\n", target.SourceDir)
	err = watcher.Run(ctx, func(ctx context.Context, path string) {
		slog.Info("Rebuilding after change", logfields.Target(target.Name), logfields.Path(path))
		rebuild(ctx)
	})
	slog.Debug("Watcher stopped", logfields.Target(target.Name))
	return err
}

// watchIgnores adds the target's purge paths so removing artifacts never
// triggers a rebuild.
func watchIgnores(cfg *config.Config, t config.Target) []string {
	out := append([]string{}, cfg.Watch.Ignore...)
	out = append(out, t.Purge.Directories...)
	return append(out, t.Purge.Globs...)
}
