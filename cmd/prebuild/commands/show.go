package commands

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/prebuild/internal/config"
	"git.home.luguber.info/inful/prebuild/internal/prebuild"
)

// ShowCmd implements the 'show' command.
type ShowCmd struct {
	Targets []string `arg:"" optional:"" help:"Targets to show (default: all configured targets)"`
	Mode    string   `help:"Show the mode that --mode would resolve to."`
	YAML    bool     `name:"yaml" help:"Print the effective configuration as YAML"`
}

func (s *ShowCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	targets, err := cfg.SelectTargets(s.Targets)
	if err != nil {
		return err
	}
	mode := config.ResolveMode(s.Mode, cfg)

	if s.YAML {
		effective := *cfg
		effective.Mode = mode
		effective.Targets = targets
		enc := yaml.NewEncoder(g.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(&effective)
	}

	fmt.Fprintf(g.Stdout, "mode: %s\n", mode)
	for _, t := range targets {
		writeTarget(g.Stdout, t)
	}
	return nil
}

func writeTarget(w io.Writer, t config.Target) {
	fmt.Fprintf(w, "target %s\n", t.Name)
	fmt.Fprintf(w, "  source_dir: %s\n", t.SourceDir)
	fmt.Fprintf(w, "  revision:   %s (framework %s)\n", t.Revision, t.Framework)
	fmt.Fprintf(w, "  purge:      %s\n", listOrNone(t.Purge.Directories))
	if len(t.Purge.Globs) > 0 {
		fmt.Fprintf(w, "  globs:      %s\n", strings.Join(t.Purge.Globs, ", "))
	}
	for _, cmd := range prebuild.Plan(t) {
		fmt.Fprintf(w, "  run:        %s\n", cmd)
	}
	if t.Timeout > 0 {
		fmt.Fprintf(w, "  timeout:    %s\n", t.Timeout)
	}
	if t.Retry.MaxRetries > 0 {
		fmt.Fprintf(w, "  retries:    %d (%s)\n", t.Retry.MaxRetries, t.Retry.Backoff)
	}
	if t.SkipUnchanged {
		fmt.Fprintln(w, "  skip_unchanged: true")
	}
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
