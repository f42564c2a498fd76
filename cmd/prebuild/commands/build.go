package commands

import (
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/prebuild/internal/config"
	ferrors "git.home.luguber.info/inful/prebuild/internal/foundation/errors"
	"git.home.luguber.info/inful/prebuild/internal/logfields"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Targets   []string `arg:"" optional:"" help:"Targets to build (default: all configured targets)"`
	Mode      string   `help:"Failure handling: best-effort (always exit 0) or strict. Precedence: --mode > PREBUILD_MODE > config."`
	DryRun    bool     `name:"dry-run" help:"Print what would be removed and run without doing it"`
	SourceDir string   `name:"source-dir" help:"Override the source directory of the first selected target"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	targets, err := cfg.SelectTargets(b.Targets)
	if err != nil {
		return err
	}
	targets, err = overrideSourceDir(targets, b.SourceDir)
	if err != nil {
		return err
	}

	mode := config.ResolveMode(b.Mode, cfg)
	slog.Debug("Starting pre-build", logfields.Mode(string(mode)), slog.Int("targets", len(targets)), slog.Bool("dry_run", b.DryRun))

	s := newSession(g, cfg, b.DryRun)
	defer s.Close()

	_, err = s.orch.RunAll(commandContext(g), targets, mode)
	return err
}

// overrideSourceDir points the first target at dir, re-deriving nothing else:
// purge paths and commands stay relative to the new directory.
func overrideSourceDir(targets []config.Target, dir string) ([]config.Target, error) {
	if dir == "" {
		return targets, nil
	}
	if len(targets) == 0 {
		return nil, ferrors.ValidationError("--source-dir needs at least one target").Build()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid --source-dir").
			WithContext("path", dir).
			Build()
	}
	out := append([]config.Target(nil), targets...)
	out[0].SourceDir = abs
	return out, nil
}
