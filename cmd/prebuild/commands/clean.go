package commands

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"

	"git.home.luguber.info/inful/prebuild/internal/config"
	"git.home.luguber.info/inful/prebuild/internal/logfields"
	"git.home.luguber.info/inful/prebuild/internal/purge"
)

// CleanCmd implements the 'clean' command.
type CleanCmd struct {
	Targets []string `arg:"" optional:"" help:"Targets to clean (default: all configured targets)"`
	Mode    string   `help:"Failure handling: best-effort or strict."`
}

func (c *CleanCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	targets, err := cfg.SelectTargets(c.Targets)
	if err != nil {
		return err
	}

	var errs *multierror.Error
	var total int64
	p := purge.New(nil)
	p.OnRemove = func(e purge.Entry) {
		fmt.Fprintf(g.Stdout, "Removed %s %s\n", e.Kind, e.Path)
	}
	for _, t := range targets {
		report := p.Purge(t.SourceDir, t.Purge.Directories, t.Purge.Globs)
		total += report.RemovedBytes()
		if report.Err != nil {
			errs = multierror.Append(errs, report.Err)
		}
		fmt.Fprintf(g.Stdout, "%s: %s\n", t.Name, report.Summary())
	}
	if len(targets) > 1 {
		fmt.Fprintf(g.Stdout, "Total freed: %s\n", humanize.Bytes(uint64(total)))
	}

	if err := errs.ErrorOrNil(); err != nil {
		if config.ResolveMode(c.Mode, cfg) == config.ModeStrict {
			return err
		}
		slog.Warn("Cleanup incomplete", logfields.Error(err))
	}
	return nil
}
