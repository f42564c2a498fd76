// Package source inspects the git state of a component's source directory.
package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"

	ferrors "git.home.luguber.info/inful/prebuild/internal/foundation/errors"
)

// ErrNotRepository indicates dir is not inside a git worktree.
var ErrNotRepository = ferrors.SourceError("source directory is not a git repository").Build()

// State is the revision of a source directory.
type State struct {
	Head  string // full commit hash of HEAD
	Clean bool   // no modified or untracked files below the directory
}

// Unchanged reports whether s is a clean checkout of revision.
func (s State) Unchanged(revision string) bool {
	return s.Clean && s.Head != "" && s.Head == revision
}

// Short returns the abbreviated HEAD hash.
func (s State) Short() string {
	if len(s.Head) > 12 {
		return s.Head[:12]
	}
	return s.Head
}

// Revision opens the repository containing dir (searching parent directories)
// and reports HEAD and whether the part of the worktree below dir is clean.
func Revision(dir string) (State, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return State{}, ErrNotRepository
	}
	if err != nil {
		return State{}, ferrors.WrapError(err, ferrors.CategorySource, "failed to open repository").
			WithContext("dir", dir).
			Build()
	}

	head, err := repo.Head()
	if err != nil {
		// Freshly initialised repositories have no HEAD commit yet.
		return State{}, ferrors.WrapError(err, ferrors.CategorySource, "failed to resolve HEAD").
			WithContext("dir", dir).
			Build()
	}

	wt, err := repo.Worktree()
	if err != nil {
		return State{}, ferrors.WrapError(err, ferrors.CategorySource, "failed to open worktree").
			WithContext("dir", dir).
			Build()
	}
	status, err := wt.Status()
	if err != nil {
		return State{}, ferrors.WrapError(err, ferrors.CategorySource, "failed to read worktree status").
			WithContext("dir", dir).
			Build()
	}

	prefix, err := relativePrefix(wt.Filesystem.Root(), dir)
	if err != nil {
		return State{}, ferrors.WrapError(err, ferrors.CategorySource, "failed to locate directory in worktree").
			WithContext("dir", dir).
			Build()
	}

	clean := true
	for path, st := range status {
		if st.Staging == git.Unmodified && st.Worktree == git.Unmodified {
			continue
		}
		if prefix == "" || path == strings.TrimSuffix(prefix, "/") || strings.HasPrefix(path, prefix) {
			clean = false
			break
		}
	}
	return State{Head: head.Hash().String(), Clean: clean}, nil
}

// relativePrefix returns dir relative to root as a slash-terminated prefix,
// or "" when dir is the root itself.
func relativePrefix(root, dir string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if r, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = r
	}
	if d, err := filepath.EvalSymlinks(absDir); err == nil {
		absDir = d
	}
	rel, err := filepath.Rel(absRoot, absDir)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", nil
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside worktree %s", dir, root)
	}
	return filepath.ToSlash(rel) + "/", nil
}
