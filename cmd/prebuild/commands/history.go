package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	ferrors "git.home.luguber.info/inful/prebuild/internal/foundation/errors"
	"git.home.luguber.info/inful/prebuild/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of runs to show" default:"20"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfg.History.Path); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(g.Stdout, "No runs recorded (history database %s does not exist; enable history in the config)\n", cfg.History.Path)
		return nil
	}

	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryHistory, "cannot read run history").
			WithContext("path", cfg.History.Path).
			Build()
	}
	defer store.Close()

	runs, err := store.Recent(commandContext(g), h.Limit)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryHistory, "cannot read run history").
			WithContext("path", cfg.History.Path).
			Build()
	}
	if len(runs) == 0 {
		fmt.Fprintln(g.Stdout, "No runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(g.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tTARGET\tSTATUS\tDURATION\tEXIT\tREVISION\tMESSAGE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			humanize.Time(r.StartedAt), r.Target, r.Status, r.Duration.Round(time.Millisecond),
			r.ExitCode, shortRevision(r.Revision), firstLine(r.Message))
	}
	return tw.Flush()
}

func shortRevision(rev string) string {
	if rev == "" {
		return "-"
	}
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 80 {
		s = s[:77] + "..."
	}
	return s
}
