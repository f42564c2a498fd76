package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/prebuild/internal/config"
	"git.home.luguber.info/inful/prebuild/internal/history"
	"git.home.luguber.info/inful/prebuild/internal/logfields"
	"git.home.luguber.info/inful/prebuild/internal/logging"
	"git.home.luguber.info/inful/prebuild/internal/metrics"
	"git.home.luguber.info/inful/prebuild/internal/prebuild"
	"git.home.luguber.info/inful/prebuild/internal/toolchain"
	"git.home.luguber.info/inful/prebuild/internal/version"
)

// Global carries process-wide state shared by subcommands.
type Global struct {
	Context context.Context
	Stdout  io.Writer // status lines and child process output
	Stderr  io.Writer // diagnostics
}

// NewGlobal returns a Global bound to the process streams.
func NewGlobal(ctx context.Context) *Global {
	return &Global{Context: ctx, Stdout: os.Stdout, Stderr: os.Stderr}
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"prebuild.yaml" env:"PREBUILD_CONFIG"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogLevel  string           `name:"log-level" help:"Log level (debug, info, warn, error). Overrides PREBUILD_LOG_LEVEL and the config file."`
	LogFormat string           `name:"log-format" help:"Log format (compact, text, json)."`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" default:"withargs" help:"Purge stale artifacts and build the configured targets (default command)"`
	Clean   CleanCmd   `cmd:"" help:"Remove stale artifacts without building"`
	Show    ShowCmd    `cmd:"" help:"Print the effective configuration and planned commands"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	History HistoryCmd `cmd:"" help:"List recent pre-build runs"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild a target whenever its sources change"`

	stderr       io.Writer
	level        *slog.LevelVar
	levelPinned  bool
	formatPinned bool
}

// NewParser builds the kong parser for cli. Diagnostics go to stderr.
func NewParser(cli *CLI, stdout, stderr io.Writer, options ...kong.Option) (*kong.Kong, error) {
	cli.stderr = stderr
	opts := []kong.Option{
		kong.Name("prebuild"),
		kong.Description("Prepare third-party components (RockSniffer by default) before the main build."),
		kong.Vars{"version": version.String()},
		kong.Writers(stdout, stderr),
		kong.UsageOnError(),
	}
	return kong.New(cli, append(opts, options...)...)
}

// AfterApply runs after flag parsing; setup logging once.
// Precedence: --log-level > PREBUILD_LOG_LEVEL > -v > config logging.level.
func (c *CLI) AfterApply() error {
	c.level = new(slog.LevelVar)
	c.level.Set(slog.LevelInfo)

	switch {
	case c.LogLevel != "":
		if lvl, ok := logging.ParseLevel(c.LogLevel); ok {
			c.level.Set(lvl)
			c.levelPinned = true
		}
	case os.Getenv(config.EnvLogLevel) != "":
		if lvl, ok := logging.ParseLevel(os.Getenv(config.EnvLogLevel)); ok {
			c.level.Set(lvl)
			c.levelPinned = true
		}
	case c.Verbose:
		c.level.Set(slog.LevelDebug)
		c.levelPinned = true
	}
	c.formatPinned = c.LogFormat != ""

	logging.Setup(c.diagnostics(), c.level, c.LogFormat)
	if c.LogLevel != "" && !c.levelPinned {
		slog.Warn("Ignoring invalid --log-level value", "value", c.LogLevel)
	}
	return nil
}

func (c *CLI) diagnostics() io.Writer {
	if c.stderr != nil {
		return c.stderr
	}
	return os.Stderr
}

// LoadConfig reads the configuration (falling back to built-in defaults when
// the file is absent) and applies its logging section unless flags won.
func (c *CLI) LoadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(c.Config)
	if err != nil {
		return nil, err
	}
	if c.level == nil {
		c.level = new(slog.LevelVar)
	}
	if !c.levelPinned {
		if lvl, ok := logging.ParseLevel(cfg.Logging.Level); ok {
			c.level.Set(lvl)
		}
	}
	if !c.formatPinned && cfg.Logging.Format != "" {
		logging.Setup(c.diagnostics(), c.level, cfg.Logging.Format)
	}
	return cfg, nil
}

// session bundles an orchestrator with the resources it holds open.
type session struct {
	orch     *prebuild.Orchestrator
	store    history.Store
	recorder *metrics.PrometheusRecorder
	textfile string
}

// newSession wires the orchestrator from configuration: local toolchain
// runner, optional run history and optional Prometheus textfile export.
// Optional parts that fail to open are logged and left out.
func newSession(g *Global, cfg *config.Config, dryRun bool) *session {
	s := &session{}
	opts := []prebuild.Option{
		prebuild.WithOutput(g.Stdout),
		prebuild.WithDryRun(dryRun),
	}

	if cfg.History.Enabled && !dryRun {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			slog.Warn("Run history unavailable", logfields.Path(cfg.History.Path), logfields.Error(err))
		} else {
			s.store = store
			opts = append(opts, prebuild.WithHistory(store))
		}
	}
	if cfg.Metrics.Textfile != "" && !dryRun {
		s.recorder = metrics.NewPrometheusRecorder(nil)
		s.textfile = cfg.Metrics.Textfile
		opts = append(opts, prebuild.WithRecorder(s.recorder))
	}

	s.orch = prebuild.New(toolchain.NewLocalRunner(g.Stdout, g.Stderr), opts...)
	return s
}

// flush writes the metrics textfile, if configured.
func (s *session) flush() {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.WriteTextfile(s.textfile); err != nil {
		slog.Warn("Failed to write metrics textfile", logfields.Path(s.textfile), logfields.Error(err))
	}
}

func (s *session) Close() {
	s.flush()
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			slog.Warn("Failed to close run history", logfields.Error(err))
		}
	}
}

func commandContext(g *Global) context.Context {
	if g != nil && g.Context != nil {
		return g.Context
	}
	return context.Background()
}
