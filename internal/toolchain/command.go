// Package toolchain runs external build tools in a component's source
// directory and captures what happened.
//
// A Command is either an explicit argv (Tool and Args), a Line split into an
// argv, or a Line interpreted by the embedded POSIX shell when Shell is set.
// Runners return a Result for every invocation that started, even when the
// error is non-nil.
package toolchain

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/google/shlex"
)

// Command describes one external invocation.
type Command struct {
	Tool    string
	Args    []string
	Line    string
	Shell   bool
	Dir     string
	Env     map[string]string
	Timeout time.Duration
}

// Argv returns the argument vector for non-shell commands.
func (c Command) Argv() ([]string, error) {
	if c.Tool != "" {
		return append([]string{c.Tool}, c.Args...), nil
	}
	if strings.TrimSpace(c.Line) == "" {
		return nil, fmt.Errorf("%w: empty command", ErrInvalidCommand)
	}
	argv, err := shlex.Split(c.Line)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrInvalidCommand)
	}
	return argv, nil
}

// ToolName is the executable a user would recognise, e.g. "dotnet".
func (c Command) ToolName() string {
	if c.Tool != "" {
		return c.Tool
	}
	if argv, err := shlex.Split(c.Line); err == nil && len(argv) > 0 {
		return argv[0]
	}
	if f := strings.Fields(c.Line); len(f) > 0 {
		return f[0]
	}
	return "unknown"
}

// String renders the command as it would be typed into a shell.
func (c Command) String() string {
	if c.Shell {
		return c.Line
	}
	argv, err := c.Argv()
	if err != nil {
		return c.Line
	}
	return shellescape.QuoteCommand(argv)
}

// environ appends Env to base in key order; later entries win on lookup.
func (c Command) environ(base []string) []string {
	out := slices.Clone(base)
	for _, k := range slices.Sorted(maps.Keys(c.Env)) {
		out = append(out, k+"="+c.Env[k])
	}
	return out
}

// Result captures a finished invocation. ExitCode is -1 when the process never
// started or was killed.
type Result struct {
	Command  string
	Dir      string
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// OK reports a zero exit status.
func (r Result) OK() bool { return r.ExitCode == 0 }

// String is the one-line form printed after a build.
func (r Result) String() string {
	return fmt.Sprintf("Result(command=%s, dir=%s, exit_code=%d, duration=%s)",
		r.Command, r.Dir, r.ExitCode, r.Duration.Round(time.Millisecond))
}

// Output joins stdout and stderr, trimmed, for diagnostics.
func (r Result) Output() string {
	out := strings.TrimSpace(r.Stdout)
	errOut := strings.TrimSpace(r.Stderr)
	switch {
	case out == "":
		return errOut
	case errOut == "":
		return out
	default:
		return out + "\n" + errOut
	}
}
