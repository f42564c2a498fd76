package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"

	ferrors "git.home.luguber.info/inful/prebuild/internal/foundation/errors"
	"git.home.luguber.info/inful/prebuild/internal/logging"
	"git.home.luguber.info/inful/prebuild/internal/retry"
)

// Validate checks the whole configuration and reports every problem at once
// as a single validation error.
func Validate(cfg *Config) error {
	var result *multierror.Error

	if cfg.Mode != "" && NormalizeMode(string(cfg.Mode)) == "" {
		result = multierror.Append(result, fmt.Errorf("mode %q must be best-effort or strict", cfg.Mode))
	}
	if len(cfg.Targets) == 0 {
		result = multierror.Append(result, fmt.Errorf("at least one target must be configured"))
	}

	seen := make(map[string]bool, len(cfg.Targets))
	for i := range cfg.Targets {
		t := &cfg.Targets[i]
		if seen[t.Name] {
			result = multierror.Append(result, fmt.Errorf("duplicate target name %q", t.Name))
		}
		seen[t.Name] = true
		for _, err := range validateTarget(t) {
			result = multierror.Append(result, fmt.Errorf("target %q: %w", t.Name, err))
		}
	}

	if cfg.Logging.Level != "" {
		if _, ok := logging.ParseLevel(cfg.Logging.Level); !ok {
			result = multierror.Append(result, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", cfg.Logging.Level))
		}
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "", logging.FormatCompact, logging.FormatText, logging.FormatJSON:
	default:
		result = multierror.Append(result, fmt.Errorf("logging.format %q is not one of compact, text, json", cfg.Logging.Format))
	}
	if cfg.Watch.Debounce < 0 {
		result = multierror.Append(result, fmt.Errorf("watch.debounce cannot be negative"))
	}

	if err := result.ErrorOrNil(); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryValidation, "invalid configuration").
			Fatal().
			WithContext("problems", len(result.Errors)).
			Build()
	}
	return nil
}

func validateTarget(t *Target) []error {
	var errs []error
	if strings.TrimSpace(t.SourceDir) == "" {
		errs = append(errs, fmt.Errorf("source_dir cannot be empty"))
	}
	if t.Revision != "" && NormalizeRevision(string(t.Revision)) == "" {
		errs = append(errs, fmt.Errorf("revision %q is not one of %v", t.Revision, Revisions()))
	}
	for _, dir := range t.Purge.Directories {
		if !isContainedPath(dir) {
			errs = append(errs, fmt.Errorf("purge directory %q must be a relative path inside source_dir", dir))
		}
	}
	for _, glob := range t.Purge.Globs {
		if !isContainedPath(glob) {
			errs = append(errs, fmt.Errorf("purge glob %q must be a relative pattern inside source_dir", glob))
		} else if _, err := filepath.Match(glob, ""); err != nil {
			errs = append(errs, fmt.Errorf("purge glob %q: %w", glob, err))
		}
	}
	for i, pc := range t.PreCommands {
		if err := validateCommand(pc); err != nil {
			errs = append(errs, fmt.Errorf("pre_commands[%d]: %w", i, err))
		}
	}
	if t.Command != nil {
		if err := validateCommand(*t.Command); err != nil {
			errs = append(errs, fmt.Errorf("command: %w", err))
		}
	}
	if t.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative"))
	}
	if _, err := retry.ParsePolicy(t.Retry.Backoff, t.Retry.Initial, t.Retry.Max, t.Retry.MaxRetries); err != nil {
		errs = append(errs, fmt.Errorf("retry: %w", err))
	}
	return errs
}

func validateCommand(c CommandConfig) error {
	switch {
	case c.Tool == "" && strings.TrimSpace(c.Line) == "":
		return fmt.Errorf("either tool or line must be set")
	case c.Tool != "" && c.Line != "":
		return fmt.Errorf("tool and line are mutually exclusive")
	case c.Shell && c.Line == "":
		return fmt.Errorf("shell requires line")
	}
	return nil
}

// isContainedPath reports whether p is relative and cannot climb out of its root.
func isContainedPath(p string) bool {
	p = filepath.FromSlash(p)
	if p == "" || filepath.Clean(p) == "." {
		return false
	}
	return filepath.IsLocal(p)
}
