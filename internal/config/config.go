package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/prebuild/internal/foundation/errors"
)

// Defaults applied when a field is left empty.
const (
	DefaultSourceDir     = "./RockSniffer"
	DefaultHistoryPath   = ".prebuild/history.db"
	DefaultWatchDebounce = 2 * time.Second
	DefaultLogFormat     = "compact"
)

// Default returns the configuration used when no prebuild.yaml exists: the
// RockSniffer component built with the latest preset, best-effort.
func Default() *Config {
	cfg := bareDefault()
	finalize(cfg)
	return cfg
}

func bareDefault() *Config {
	return &Config{
		Version: "1",
		Mode:    ModeBestEffort,
		Targets: []Target{{SourceDir: DefaultSourceDir}},
		BaseDir: ".",
	}
}

// Load reads, expands, defaults and validates the configuration at configPath.
// A missing file is a config error; see LoadOrDefault.
func Load(configPath string) (*Config, error) {
	baseDir := filepath.Dir(configPath)
	loadEnvFiles(baseDir)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			Fatal().
			WithContext("path", configPath).
			Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse config file").
			Fatal().
			WithContext("path", configPath).
			Build()
	}
	cfg.BaseDir = baseDir

	applyEnvOverrides(cfg)
	finalize(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Default when the file does
// not exist. Environment overrides still apply to the default.
func LoadOrDefault(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		slog.Debug("No configuration file, using defaults", "path", configPath)
		loadEnvFiles(filepath.Dir(configPath))
		cfg := bareDefault()
		applyEnvOverrides(cfg)
		finalize(cfg)
		if err := Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return Load(configPath)
}

// Parse decodes YAML after ${VAR} expansion. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// finalize applies defaults and anchors relative paths at BaseDir. It must run
// exactly once per Config.
func finalize(cfg *Config) {
	applyDefaults(cfg)
	for i := range cfg.Targets {
		cfg.Targets[i].SourceDir = cfg.ResolvePath(cfg.Targets[i].SourceDir)
	}
	cfg.History.Path = cfg.ResolvePath(cfg.History.Path)
	cfg.Metrics.Textfile = cfg.ResolvePath(cfg.Metrics.Textfile)
}

func applyDefaults(cfg *Config) {
	if cfg.BaseDir == "" {
		cfg.BaseDir = "."
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath
	}
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}
	for i := range cfg.Targets {
		applyTargetDefaults(&cfg.Targets[i])
	}
}

func applyTargetDefaults(t *Target) {
	if t.SourceDir == "" {
		t.SourceDir = DefaultSourceDir
	}
	if t.Name == "" {
		t.Name = filepath.Base(filepath.Clean(t.SourceDir))
	}
	if t.Revision == "" {
		t.Revision = RevisionLatest
	} else if r := NormalizeRevision(string(t.Revision)); r != "" {
		t.Revision = r
	}
	if t.Framework == "" {
		t.Framework = DefaultFramework
	}
	if t.Purge.Directories == nil {
		t.Purge.Directories = PresetPurgeDirectories(t.Revision, t.Framework)
	}
	if t.Command == nil {
		cmd := PresetCommand(t.Revision)
		t.Command = &cmd
	}
}

// Target returns the named target, or the first target when name is empty.
func (c *Config) Target(name string) (*Target, bool) {
	if len(c.Targets) == 0 {
		return nil, false
	}
	if name == "" {
		return &c.Targets[0], true
	}
	for i := range c.Targets {
		if c.Targets[i].Name == name {
			return &c.Targets[i], true
		}
	}
	return nil, false
}

// SelectTargets resolves names to targets; no names selects every target.
func (c *Config) SelectTargets(names []string) ([]Target, error) {
	if len(names) == 0 {
		return c.Targets, nil
	}
	selected := make([]Target, 0, len(names))
	for _, name := range names {
		t, ok := c.Target(name)
		if !ok {
			return nil, ferrors.NotFoundError("unknown target").WithContext("target", name).Build()
		}
		selected = append(selected, *t)
	}
	return selected, nil
}

// ResolvePath anchors a relative path at the config base directory.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// Init writes an example configuration file. An existing file is only
// replaced when force is set.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.NewError(ferrors.CategoryConfig, "configuration file already exists (use --force to overwrite)").
			UserAction().
			WithContext("path", configPath).
			Build()
	}

	example := Config{
		Version: "1",
		Mode:    ModeBestEffort,
		Targets: []Target{
			{
				Name:      "RockSniffer",
				SourceDir: DefaultSourceDir,
				Revision:  RevisionLatest,
				Framework: DefaultFramework,
				Purge: PurgeConfig{
					Directories: PresetPurgeDirectories(RevisionLatest, DefaultFramework),
					Globs:       []string{"cache.sqlite*"},
				},
				PreCommands: []CommandConfig{{Tool: "dotnet", Args: []string{"clean"}}},
			},
		},
		History: HistoryConfig{Enabled: true, Path: DefaultHistoryPath},
		Logging: LoggingConfig{Level: "info", Format: DefaultLogFormat},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to marshal example config").Build()
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create config directory").
				WithContext("path", dir).
				Build()
		}
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
