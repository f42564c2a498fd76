// Package watch triggers rebuilds when a source tree changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/prebuild/internal/logfields"
)

// DefaultIgnore lists directories that build tools write to. Watching them
// would make every build trigger the next one.
var DefaultIgnore = []string{".git", "bin", "obj", ".vs", ".prebuild"}

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// Ignore holds base-name globs ("*.user") or slash paths relative to the
	// root ("bin/x64"). DefaultIgnore is always applied.
	Ignore []string
}

// Watcher watches a directory tree recursively and calls a function once per
// burst of changes.
type Watcher struct {
	root     string
	debounce time.Duration
	ignore   []string
	fsw      *fsnotify.Watcher
	changes  chan string
}

// New starts watching root. Directories are registered before New returns, so
// any change made afterwards is observed.
func New(root string, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch root: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 2 * time.Second
	}
	w := &Watcher{
		root:     abs,
		debounce: opts.Debounce,
		ignore:   append(append([]string{}, DefaultIgnore...), opts.Ignore...),
		fsw:      fsw,
		changes:  make(chan string, 1),
	}
	if err := w.addTree(abs); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run blocks until ctx is done, calling onChange after each debounced burst
// of changes. onChange runs on the Run goroutine, so calls never overlap;
// changes arriving meanwhile schedule one more call.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, path string)) error {
	defer w.fsw.Close()
	go w.eventLoop(ctx)

	slog.Info("Watching for changes", logfields.Dir(w.root), slog.Duration("debounce", w.debounce))

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		lastHit string
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case p := <-w.changes:
			lastHit = p
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			slog.Debug("Change burst settled", logfields.Path(lastHit))
			onChange(ctx, lastHit)
		}
	}
}

func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod || w.ignored(event.Name) {
		return
	}
	if event.Op&fsnotify.Create == fsnotify.Create {
		if err := w.addTree(event.Name); err != nil {
			slog.Debug("Could not watch new path", logfields.Path(event.Name), logfields.Error(err))
		}
	}
	slog.Debug("Source change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
	select {
	case w.changes <- event.Name:
	default:
		// A change is already pending.
	}
}

// addTree registers p and every non-ignored directory below it. Plain files
// are ignored; their parent directory is already watched.
func (w *Watcher) addTree(p string) error {
	return filepath.WalkDir(p, func(current string, d fs.DirEntry, err error) error {
		if err != nil {
			if current == p && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if current != w.root && w.ignored(current) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(current); err != nil {
			return fmt.Errorf("failed to watch %s: %w", current, err)
		}
		return nil
	})
}

// ignored matches p against the ignore list, relative to the root.
func (w *Watcher) ignored(p string) bool {
	rel, err := filepath.Rel(w.root, p)
	if err != nil || rel == "." {
		return false
	}
	rel = filepath.ToSlash(rel)
	segments := strings.Split(rel, "/")
	for _, pattern := range w.ignore {
		pattern = strings.Trim(filepath.ToSlash(pattern), "/")
		if pattern == "" {
			continue
		}
		if strings.Contains(pattern, "/") {
			if rel == pattern || strings.HasPrefix(rel, pattern+"/") {
				return true
			}
			continue
		}
		for _, seg := range segments {
			if ok, _ := path.Match(pattern, seg); ok {
				return true
			}
		}
	}
	return false
}
