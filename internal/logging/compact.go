package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// CompactHandler is a slog handler that formats records as a single readable
// line: "WARNING: message (key=value, key=value)". Info records carry no prefix.
type CompactHandler struct {
	opts      slog.HandlerOptions
	w         io.Writer
	mu        *sync.Mutex
	attrs     []string // preformatted WithAttrs values, qualified by the group active when added
	group     string
	useColors bool
}

func NewCompactHandler(w io.Writer, opts *slog.HandlerOptions) *CompactHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &CompactHandler{
		opts:      *opts,
		w:         w,
		mu:        &sync.Mutex{},
		useColors: shouldUseColors(w),
	}
}

// shouldUseColors honours NO_COLOR and FORCE_COLOR before falling back to terminal detection.
func shouldUseColors(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

func (h *CompactHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func levelPrefix(level slog.Level) (prefix, color string) {
	switch {
	case level >= slog.LevelError:
		return "ERROR: ", colorRed
	case level >= slog.LevelWarn:
		return "WARNING: ", colorYellow
	case level >= slog.LevelInfo:
		return "", ""
	default:
		return "DEBUG: ", colorGray
	}
}

func (h *CompactHandler) Handle(_ context.Context, r slog.Record) error {
	prefix, color := levelPrefix(r.Level)

	var b strings.Builder
	if h.useColors && color != "" {
		b.WriteString(color)
	}
	b.WriteString(prefix)
	b.WriteString(r.Message)

	attrs := make([]string, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.formatAttr(a))
		return true
	})
	if len(attrs) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(attrs, ", "))
		b.WriteString(")")
	}

	if h.useColors && color != "" {
		b.WriteString(colorReset)
	}
	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *CompactHandler) formatAttr(a slog.Attr) string {
	key := a.Key
	if h.group != "" {
		key = h.group + "." + key
	}
	return fmt.Sprintf("%s=%v", key, a.Value)
}

func (h *CompactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]string, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, a := range attrs {
		merged = append(merged, h.formatAttr(a))
	}
	clone := *h
	clone.attrs = merged
	return &clone
}

func (h *CompactHandler) WithGroup(name string) slog.Handler {
	clone := *h
	if clone.group != "" {
		clone.group = clone.group + "." + name
	} else {
		clone.group = name
	}
	return &clone
}
