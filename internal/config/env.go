package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/prebuild/internal/logging"
)

// Environment variables recognised by prebuild.
const (
	EnvMode      = "PREBUILD_MODE"
	EnvSourceDir = "PREBUILD_SOURCE_DIR"
	EnvLogLevel  = "PREBUILD_LOG_LEVEL"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads .env and .env.local from dir when present. Existing
// process environment variables are never overwritten, and earlier files win
// over later ones.
func loadEnvFiles(dir string) []string {
	var loaded []string
	for _, name := range envFiles {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("Failed to load environment file", "path", p, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", p)
		loaded = append(loaded, p)
	}
	return loaded
}

// applyEnvOverrides applies PREBUILD_* variables on top of file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvSourceDir); v != "" && len(cfg.Targets) > 0 {
		slog.Debug("Overriding source directory from environment", "target", cfg.Targets[0].Name, "source_dir", v)
		cfg.Targets[0].SourceDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		if _, ok := logging.ParseLevel(v); ok {
			cfg.Logging.Level = v
		} else {
			slog.Warn("Ignoring invalid "+EnvLogLevel+" value", "value", v)
		}
	}
}
