package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "prebuild.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())
		assert.Equal(t, "[config:fatal] invalid configuration", err.Error())

		file, ok := err.Context().GetString("file")
		require.True(t, ok)
		assert.Equal(t, "prebuild.yaml", file)
	})

	t.Run("Cause is unwrapped", func(t *testing.T) {
		cause := errors.New("exit status 1")
		err := WrapError(cause, CategoryToolchain, "dotnet build failed").
			WithContext("exit_code", 1).
			Build()

		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "[toolchain:error] dotnet build failed: exit status 1", err.Error())
		code, ok := err.Context().GetInt("exit_code")
		require.True(t, ok)
		assert.Equal(t, 1, code)
	})

	t.Run("Detection through wrapping", func(t *testing.T) {
		inner := FileSystemError("remove failed").Build()
		wrapped := fmt.Errorf("purge bin: %w", inner)

		_, ok := AsClassified(wrapped)
		assert.True(t, ok)
		assert.True(t, HasCategory(wrapped, CategoryFileSystem))
		assert.Equal(t, CategoryFileSystem, GetCategory(wrapped))
		assert.True(t, inner.CanRetry())
	})

	t.Run("Unclassified defaults", func(t *testing.T) {
		err := errors.New("plain")
		_, ok := AsClassified(err)
		assert.False(t, ok)
		assert.False(t, HasCategory(err, CategoryInternal))
		assert.Equal(t, CategoryInternal, GetCategory(err))
	})

	t.Run("Sentinel matching", func(t *testing.T) {
		sentinel := ToolchainError("tool not found").Build()
		err := fmt.Errorf("run: %w", ToolchainError("tool not found").WithContext("tool", "dotnet").Build())
		assert.ErrorIs(t, err, sentinel)
		assert.NotErrorIs(t, err, ToolchainError("other").Build())
	})
}

func TestWithContextDoesNotMutateOriginal(t *testing.T) {
	base := ConfigError("bad").WithContext("a", 1).Build()
	derived := base.WithContext("b", 2)

	_, ok := base.Context().Get("b")
	assert.False(t, ok)
	v, ok := derived.Context().Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name     string
		builder  *ErrorBuilder
		category ErrorCategory
		severity ErrorSeverity
		retry    RetryStrategy
	}{
		{"ConfigError", ConfigError("x"), CategoryConfig, SeverityFatal, RetryUserAction},
		{"ValidationError", ValidationError("x"), CategoryValidation, SeverityFatal, RetryUserAction},
		{"NotFoundError", NotFoundError("x"), CategoryNotFound, SeverityError, RetryUserAction},
		{"FileSystemError", FileSystemError("x"), CategoryFileSystem, SeverityError, RetryBackoff},
		{"ToolchainError", ToolchainError("x"), CategoryToolchain, SeverityError, RetryNever},
		{"SourceError", SourceError("x"), CategorySource, SeverityWarning, RetryNever},
		{"HistoryError", HistoryError("x"), CategoryHistory, SeverityWarning, RetryNever},
		{"CanceledError", CanceledError("x"), CategoryCanceled, SeverityError, RetryNever},
		{"RuntimeError", RuntimeError("x"), CategoryRuntime, SeverityFatal, RetryNever},
		{"InternalError", InternalError("x"), CategoryInternal, SeverityFatal, RetryNever},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.builder.Build()
			assert.Equal(t, tt.category, err.Category())
			assert.Equal(t, tt.severity, err.Severity())
			assert.Equal(t, tt.retry, err.RetryStrategy())
		})
	}
}

func TestCategoryDefaultsCanBeOverridden(t *testing.T) {
	err := ToolchainError("build command failed").Retryable().Build()
	assert.True(t, err.CanRetry())

	err = FileSystemError("cannot run build").UserAction().Build()
	assert.False(t, err.CanRetry())

	err = NewError(ErrorCategory("custom"), "x").Build()
	assert.Equal(t, SeverityError, err.Severity())
	assert.Equal(t, RetryNever, err.RetryStrategy())
}

func TestBuilderReuseDoesNotShareContext(t *testing.T) {
	b := ToolchainError("build command failed").WithContext("dir", "./RockSniffer")
	first := b.Build()
	b.WithContext("exit_code", 1)
	second := b.Build()

	_, ok := first.Context().Get("exit_code")
	assert.False(t, ok)
	code, ok := second.Context().GetInt("exit_code")
	require.True(t, ok)
	assert.Equal(t, 1, code)
}

func TestErrorContextAttrsSorted(t *testing.T) {
	ctx := ErrorContext{"exit_code": 1, "command": "dotnet build", "dir": "./RockSniffer"}
	attrs := ctx.Attrs()
	require.Len(t, attrs, 3)
	assert.Equal(t, "command", attrs[0].Key)
	assert.Equal(t, "dir", attrs[1].Key)
	assert.Equal(t, "exit_code", attrs[2].Key)

	var empty ErrorContext
	assert.Empty(t, empty.Attrs())
}
