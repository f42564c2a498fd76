package errors

// ErrorBuilder assembles a ClassifiedError. It starts from the category's
// default severity and retry hint.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts a builder for a category and message.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	d := defaultsFor(category)
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: d.severity,
		retry:    d.retry,
		message:  message,
	}}
}

// WrapError starts a builder whose cause is err.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(err)
}

func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.err.severity = severity
	return b
}

func (b *ErrorBuilder) WithRetry(strategy RetryStrategy) *ErrorBuilder {
	b.err.retry = strategy
	return b
}

func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.Set(key, value)
	return b
}

// Fatal marks the error as stopping the whole invocation.
func (b *ErrorBuilder) Fatal() *ErrorBuilder { return b.WithSeverity(SeverityFatal) }

// Warning marks the error as degrading, not failing, the run.
func (b *ErrorBuilder) Warning() *ErrorBuilder { return b.WithSeverity(SeverityWarning) }

// Retryable allows the build retry loop to try again.
func (b *ErrorBuilder) Retryable() *ErrorBuilder { return b.WithRetry(RetryBackoff) }

// UserAction marks the error as needing a fix before any retry can succeed.
func (b *ErrorBuilder) UserAction() *ErrorBuilder { return b.WithRetry(RetryUserAction) }

// Build returns the error. The builder may be reused; later changes do not
// affect errors already built.
func (b *ErrorBuilder) Build() *ClassifiedError {
	out := b.err
	out.context = b.err.context.clone(0)
	return &out
}

// ConfigError reports an unreadable or unparsable configuration.
func ConfigError(message string) *ErrorBuilder { return NewError(CategoryConfig, message) }

// ValidationError reports bad flag or config values.
func ValidationError(message string) *ErrorBuilder { return NewError(CategoryValidation, message) }

// NotFoundError reports an unknown target name.
func NotFoundError(message string) *ErrorBuilder { return NewError(CategoryNotFound, message) }

// FileSystemError reports a purge or working-directory failure. Purges often
// fail on files still held open by a previous build, so these retry.
func FileSystemError(message string) *ErrorBuilder { return NewError(CategoryFileSystem, message) }

// ToolchainError reports a build tool that could not run or exited non-zero.
func ToolchainError(message string) *ErrorBuilder { return NewError(CategoryToolchain, message) }

// SourceError reports a failure inspecting the source git revision.
func SourceError(message string) *ErrorBuilder { return NewError(CategorySource, message) }

// HistoryError reports a run history storage failure.
func HistoryError(message string) *ErrorBuilder { return NewError(CategoryHistory, message) }

// CanceledError reports an interrupted run.
func CanceledError(message string) *ErrorBuilder { return NewError(CategoryCanceled, message) }

// RuntimeError reports an unexpected environment failure.
func RuntimeError(message string) *ErrorBuilder { return NewError(CategoryRuntime, message) }

// InternalError reports a bug, such as a recovered panic.
func InternalError(message string) *ErrorBuilder { return NewError(CategoryInternal, message) }
