// Package purge removes stale build artifacts below a component's source
// directory.
package purge

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"

	ferrors "git.home.luguber.info/inful/prebuild/internal/foundation/errors"
	"git.home.luguber.info/inful/prebuild/internal/logfields"
)

// Outcome is what happened to one purge entry.
type Outcome string

const (
	OutcomeRemoved Outcome = "removed"
	OutcomeSkipped Outcome = "skipped" // path did not exist
	OutcomeFailed  Outcome = "failed"
)

// Kind distinguishes directory entries from glob matches.
type Kind string

const (
	KindDirectory Kind = "directory"
	KindFile      Kind = "file"
)

// Entry records a single path considered for removal.
type Entry struct {
	Path    string
	Kind    Kind
	Outcome Outcome
	Bytes   int64
	Err     error
}

// Report summarises one Purge call. Err aggregates every failed entry and is
// nil when nothing failed.
type Report struct {
	Root    string
	Entries []Entry
	Err     error
}

// Removed returns the entries that were deleted, in processing order.
func (r Report) Removed() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Outcome == OutcomeRemoved {
			out = append(out, e)
		}
	}
	return out
}

// RemovedBytes is the total size of everything deleted.
func (r Report) RemovedBytes() int64 {
	var n int64
	for _, e := range r.Removed() {
		n += e.Bytes
	}
	return n
}

// Summary renders a one-line human readable description.
func (r Report) Summary() string {
	removed := r.Removed()
	if len(removed) == 0 {
		return "nothing to remove"
	}
	failed := 0
	for _, e := range r.Entries {
		if e.Outcome == OutcomeFailed {
			failed++
		}
	}
	s := humanize.Comma(int64(len(removed))) + " path(s) removed, " + humanize.Bytes(uint64(r.RemovedBytes())) + " freed"
	if failed > 0 {
		s += ", " + humanize.Comma(int64(failed)) + " failed"
	}
	return s
}

// Purger deletes artifact directories and file globs.
type Purger struct {
	logger *slog.Logger
	// OnRemove, when set, is called after each successful removal.
	OnRemove func(Entry)
}

// New returns a Purger logging to logger (slog.Default when nil).
func New(logger *slog.Logger) *Purger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Purger{logger: logger}
}

// Purge removes each directory (relative to root, slash separated) and each
// regular file matching a glob. Missing paths are skipped. Failures are
// collected and never stop the remaining removals, so calling Purge twice is
// safe and the second call is a no-op.
func (p *Purger) Purge(root string, directories, globs []string) Report {
	report := Report{Root: root}
	var result *multierror.Error

	for _, dir := range directories {
		entry := p.removeDirectory(filepath.Join(root, filepath.FromSlash(dir)))
		report.Entries = append(report.Entries, entry)
		if entry.Err != nil {
			result = multierror.Append(result, entry.Err)
		}
	}

	for _, pattern := range globs {
		entries, err := p.removeGlob(root, pattern)
		report.Entries = append(report.Entries, entries...)
		if err != nil {
			result = multierror.Append(result, err)
		}
		for _, e := range entries {
			if e.Err != nil {
				result = multierror.Append(result, e.Err)
			}
		}
	}

	report.Err = result.ErrorOrNil()
	return report
}

func (p *Purger) removeDirectory(path string) Entry {
	entry := Entry{Path: path, Kind: KindDirectory}
	info, err := os.Lstat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		entry.Outcome = OutcomeSkipped
		p.logger.Debug("Artifact directory absent", logfields.Path(path))
		return entry
	case err != nil:
		return p.fail(entry, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to stat directory").
			WithContext("path", path).
			Build())
	case !info.IsDir():
		return p.fail(entry, ferrors.FileSystemError("path is not a directory").
			WithContext("path", path).
			Build())
	}

	entry.Bytes = diskUsage(path)
	if err := os.RemoveAll(path); err != nil {
		return p.fail(entry, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to remove directory").
			WithContext("path", path).
			Build())
	}
	return p.removed(entry)
}

func (p *Purger) removeGlob(root, pattern string) ([]Entry, error) {
	matches, err := filepath.Glob(filepath.Join(root, filepath.FromSlash(pattern)))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid purge glob").
			WithContext("pattern", pattern).
			Build()
	}
	var entries []Entry
	for _, match := range matches {
		info, err := os.Lstat(match)
		if err != nil || !info.Mode().IsRegular() {
			// Vanished or not a plain file; globs only ever delete files.
			continue
		}
		entry := Entry{Path: match, Kind: KindFile, Bytes: info.Size()}
		if err := os.Remove(match); err != nil && !errors.Is(err, fs.ErrNotExist) {
			entries = append(entries, p.fail(entry, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to remove file").
				WithContext("path", match).
				Build()))
			continue
		}
		entries = append(entries, p.removed(entry))
	}
	return entries, nil
}

func (p *Purger) removed(entry Entry) Entry {
	entry.Outcome = OutcomeRemoved
	p.logger.Debug("Removed artifact", logfields.Path(entry.Path), slog.String("kind", string(entry.Kind)), logfields.Bytes(entry.Bytes))
	if p.OnRemove != nil {
		p.OnRemove(entry)
	}
	return entry
}

func (p *Purger) fail(entry Entry, err error) Entry {
	entry.Outcome = OutcomeFailed
	entry.Err = err
	p.logger.Warn("Artifact removal failed", logfields.Path(entry.Path), logfields.Error(err))
	return entry
}

// diskUsage sums regular file sizes below path. Unreadable entries are ignored.
func diskUsage(path string) int64 {
	var total int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total
}

// Describe renders directories as they will be removed, for dry runs.
func Describe(root string, directories, globs []string) []string {
	out := make([]string, 0, len(directories)+len(globs))
	for _, d := range directories {
		out = append(out, filepath.Join(root, filepath.FromSlash(d))+string(filepath.Separator))
	}
	for _, g := range globs {
		out = append(out, filepath.Join(root, filepath.FromSlash(strings.TrimSpace(g))))
	}
	return out
}
