package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for in, want := range cases {
		got, ok := ParseLevel(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	got, ok := ParseLevel("loud")
	assert.False(t, ok)
	assert.Equal(t, slog.LevelInfo, got)
}

func TestCompactHandlerFormatsLines(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	logger := New(&buf, level, FormatCompact)

	logger.Info("Removed directory", "path", "RockSniffer/bin")
	logger.Warn("Purge incomplete", "error", errors.New("busy"))
	logger.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"Removed directory (path=RockSniffer/bin)",
		"WARNING: Purge incomplete (error=busy)",
	}, lines)

	buf.Reset()
	level.Set(slog.LevelDebug)
	logger.With("target", "RockSniffer").WithGroup("step").Debug("running", "name", "build")
	assert.Equal(t, "DEBUG: running (target=RockSniffer, step.name=build)\n", buf.String())
}

func TestCompactHandlerForceColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	t.Setenv("FORCE_COLOR", "1")
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, FormatCompact)

	logger.Error("boom")
	assert.Equal(t, colorRed+"ERROR: boom"+colorReset+"\n", buf.String())
}

func TestNewSelectsFormat(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, slog.LevelInfo, FormatJSON).Info("hello", "k", 1)
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	New(&buf, slog.LevelInfo, FormatText).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}
