package config

import (
	"log/slog"
	"os"

	"git.home.luguber.info/inful/prebuild/internal/foundation"
)

// Mode selects how build failures reach the caller.
type Mode string

const (
	// ModeBestEffort logs failures and always lets the host pipeline continue.
	ModeBestEffort Mode = "best-effort"
	// ModeStrict returns failures to the CLI, which exits non-zero.
	ModeStrict Mode = "strict"
)

// NormalizeMode converts user input (case-insensitive, "best_effort" and
// "besteffort" accepted) to a Mode, returning empty string for unknown values.
func NormalizeMode(raw string) Mode {
	return modeNormalizer.Normalize(raw)
}

var modeNormalizer = foundation.NewNormalizer(map[string]Mode{
	"best-effort": ModeBestEffort,
	"best_effort": ModeBestEffort,
	"besteffort":  ModeBestEffort,
	"strict":      ModeStrict,
}, "")

// ResolveMode determines the effective mode.
// Precedence:
// 1. CLI flag value (when valid)
// 2. PREBUILD_MODE environment variable (when valid)
// 3. config mode
// 4. fallback: best-effort
func ResolveMode(flag string, cfg *Config) Mode {
	if flag != "" {
		if m := NormalizeMode(flag); m != "" {
			return m
		}
		slog.Warn("Ignoring invalid --mode value", "value", flag)
	}
	if env := os.Getenv(EnvMode); env != "" {
		if m := NormalizeMode(env); m != "" {
			return m
		}
		slog.Warn("Ignoring invalid "+EnvMode+" value", "value", env)
	}
	if cfg != nil && cfg.Mode != "" {
		if m := NormalizeMode(string(cfg.Mode)); m != "" {
			return m
		}
	}
	return ModeBestEffort
}
