package errors

import (
	"log/slog"
	"slices"
)

// ErrorCategory groups errors by the part of a pre-build run that produced
// them. The CLI adapter maps categories to exit codes.
type ErrorCategory string

const (
	// Problems the user fixes by editing flags, env or prebuild.yaml.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"

	// Failures while purging artifacts or running the build tool.
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryToolchain  ErrorCategory = "toolchain"

	// Optional extras. These degrade a run but never fail it on their own.
	CategorySource  ErrorCategory = "source"
	CategoryHistory ErrorCategory = "history"

	CategoryCanceled ErrorCategory = "canceled"
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity controls how loudly the CLI reports an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"
	SeverityError   ErrorSeverity = "error"
	SeverityWarning ErrorSeverity = "warning"
)

// RetryStrategy tells the build retry loop whether another attempt can help.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"
	RetryBackoff    RetryStrategy = "backoff"
	RetryUserAction RetryStrategy = "user"
)

type classDefaults struct {
	severity ErrorSeverity
	retry    RetryStrategy
}

// defaults holds the severity and retry hint each category starts with.
// Builders may override either.
var defaults = map[ErrorCategory]classDefaults{
	CategoryConfig:     {SeverityFatal, RetryUserAction},
	CategoryValidation: {SeverityFatal, RetryUserAction},
	CategoryNotFound:   {SeverityError, RetryUserAction},
	CategoryFileSystem: {SeverityError, RetryBackoff},
	CategoryToolchain:  {SeverityError, RetryNever},
	CategorySource:     {SeverityWarning, RetryNever},
	CategoryHistory:    {SeverityWarning, RetryNever},
	CategoryCanceled:   {SeverityError, RetryNever},
	CategoryRuntime:    {SeverityFatal, RetryNever},
	CategoryInternal:   {SeverityFatal, RetryNever},
}

func defaultsFor(category ErrorCategory) classDefaults {
	if d, ok := defaults[category]; ok {
		return d
	}
	return classDefaults{SeverityError, RetryNever}
}

// ErrorContext carries structured detail such as the command line, working
// directory or exit code of a failed build.
type ErrorContext map[string]any

// Set adds or updates a context value, allocating the map when needed.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	value, ok := c[key]
	return value, ok
}

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}

// GetInt retrieves an int context value.
func (c ErrorContext) GetInt(key string) (int, bool) {
	n, ok := c[key].(int)
	return n, ok
}

// Attrs renders the context as slog attributes sorted by key, so log lines
// for the same failure always print fields in the same order.
func (c ErrorContext) Attrs() []slog.Attr {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, c[k]))
	}
	return attrs
}

func (c ErrorContext) clone(extra int) ErrorContext {
	out := make(ErrorContext, len(c)+extra)
	for k, v := range c {
		out[k] = v
	}
	return out
}
