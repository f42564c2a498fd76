package config

import "time"

// DefaultConfigFile is the configuration file looked up when -c is not given.
const DefaultConfigFile = "prebuild.yaml"

// Config is the root of prebuild.yaml.
type Config struct {
	Version string        `yaml:"version,omitempty"`
	Mode    Mode          `yaml:"mode,omitempty"`
	Targets []Target      `yaml:"targets"`
	History HistoryConfig `yaml:"history,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Watch   WatchConfig   `yaml:"watch,omitempty"`

	// BaseDir anchors relative paths; it is the directory holding the config file.
	BaseDir string `yaml:"-"`
}

// Target describes one component to prepare before the main build.
type Target struct {
	Name          string            `yaml:"name,omitempty"`
	SourceDir     string            `yaml:"source_dir"`
	Revision      Revision          `yaml:"revision,omitempty"`
	Framework     string            `yaml:"framework,omitempty"`
	Purge         PurgeConfig       `yaml:"purge,omitempty"`
	PreCommands   []CommandConfig   `yaml:"pre_commands,omitempty"`
	Command       *CommandConfig    `yaml:"command,omitempty"`
	Env           map[string]string `yaml:"env,omitempty"`
	Timeout       time.Duration     `yaml:"timeout,omitempty"`
	Retry         RetryConfig       `yaml:"retry,omitempty"`
	SkipUnchanged bool              `yaml:"skip_unchanged,omitempty"`
}

// PurgeConfig lists stale artifacts relative to the target's source directory.
// A nil Directories slice means "use the revision preset"; an explicit empty
// list disables directory purging.
type PurgeConfig struct {
	Directories []string `yaml:"directories,omitempty"`
	Globs       []string `yaml:"globs,omitempty"`
}

// CommandConfig is either an explicit Tool+Args pair or a Line. A Line is split
// into arguments unless Shell is set, in which case it runs through the
// embedded POSIX shell interpreter.
type CommandConfig struct {
	Tool  string   `yaml:"tool,omitempty"`
	Args  []string `yaml:"args,omitempty"`
	Line  string   `yaml:"line,omitempty"`
	Shell bool     `yaml:"shell,omitempty"`
}

// RetryConfig controls re-invocation of a failed build command. The zero value
// never retries.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries,omitempty"`
	Backoff    string        `yaml:"backoff,omitempty"` // fixed|linear|exponential
	Initial    time.Duration `yaml:"initial,omitempty"`
	Max        time.Duration `yaml:"max,omitempty"`
}

// HistoryConfig enables the SQLite run history.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// MetricsConfig controls Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// LoggingConfig sets the diagnostic log level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// WatchConfig tunes the watch command.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce,omitempty"`
	Ignore   []string      `yaml:"ignore,omitempty"`
}
