package retry

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/prebuild/internal/foundation"
)

// BackoffMode enumerates supported backoff strategies.
type BackoffMode string

const (
	BackoffFixed       BackoffMode = "fixed"
	BackoffLinear      BackoffMode = "linear"
	BackoffExponential BackoffMode = "exponential"
)

// ParseBackoffMode converts user input (case-insensitive) into a mode, returning empty string for unknown.
func ParseBackoffMode(raw string) BackoffMode {
	return backoffNormalizer.Normalize(raw)
}

var backoffNormalizer = foundation.NewNormalizer(map[string]BackoffMode{
	string(BackoffFixed):       BackoffFixed,
	string(BackoffLinear):      BackoffLinear,
	string(BackoffExponential): BackoffExponential,
}, "")

// Policy encapsulates retry/backoff settings for a failing build command.
// It is immutable after construction.
type Policy struct {
	Mode       BackoffMode   // fixed|linear|exponential
	Initial    time.Duration // base delay
	Max        time.Duration // cap for growth
	MaxRetries int           // retries after the first failure
}

// DefaultPolicy never retries; a pre-build step runs its command exactly once
// unless configured otherwise.
func DefaultPolicy() Policy {
	return Policy{Mode: BackoffLinear, Initial: time.Second, Max: 30 * time.Second, MaxRetries: 0}
}

// NewPolicy builds a policy from raw config fields; zero/invalid values fall back to defaults.
func NewPolicy(mode string, initial, maxDuration time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if maxRetries > 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDuration > 0 {
		p.Max = maxDuration
	}
	if m := ParseBackoffMode(mode); m != "" {
		p.Mode = m
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// ParsePolicy is NewPolicy for unchecked user input: an unknown mode or a
// negative value is an error instead of falling back to the default.
func ParsePolicy(mode string, initial, maxDuration time.Duration, maxRetries int) (Policy, error) {
	if mode != "" && ParseBackoffMode(mode) == "" {
		return Policy{}, fmt.Errorf("backoff %q is not one of fixed, linear, exponential", mode)
	}
	if initial < 0 || maxDuration < 0 {
		return Policy{}, fmt.Errorf("backoff durations cannot be negative")
	}
	if maxRetries < 0 {
		return Policy{}, fmt.Errorf("max retries cannot be negative")
	}
	p := NewPolicy(mode, initial, maxDuration, maxRetries)
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Delay returns the backoff delay for the given retry number (1-based: first retry => 1).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	var d time.Duration
	switch p.Mode {
	case BackoffFixed:
		return p.Initial
	case BackoffExponential:
		if retryCount > 30 {
			return p.Max
		}
		d = p.Initial * (1 << (retryCount - 1))
	default:
		d = time.Duration(retryCount) * p.Initial
	}
	if d > p.Max || d <= 0 {
		return p.Max
	}
	return d
}

// Validate ensures invariants; returns error if policy impossible to apply.
func (p Policy) Validate() error {
	if p.Initial <= 0 {
		return fmt.Errorf("initial must be >0")
	}
	if p.Max <= 0 {
		return fmt.Errorf("max must be >0")
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	return nil
}

// Do calls fn until it succeeds, retryable reports false, retries are
// exhausted or ctx is done. attempt is 1-based. The last error is returned.
func (p Policy) Do(ctx context.Context, retryable func(error) bool, fn func(attempt int) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = fn(attempt)
		if err == nil || attempt > p.MaxRetries || (retryable != nil && !retryable(err)) {
			return err
		}
		timer := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}
