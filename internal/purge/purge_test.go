package purge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/prebuild/internal/foundation/errors"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o600))
}

func TestPurgeRemovesExistingDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bin", "x64", "Release", "net6.0-windows", "RockSniffer.dll"), 1024)
	writeFile(t, filepath.Join(root, "bin", "x64", "Release", "net6.0-windows", "sub", "a.pdb"), 512)
	writeFile(t, filepath.Join(root, "Program.cs"), 10)

	var notified []string
	p := New(nil)
	p.OnRemove = func(e Entry) { notified = append(notified, e.Path) }

	report := p.Purge(root, []string{"bin/x64/Release/net6.0-windows"}, nil)
	require.NoError(t, report.Err)

	target := filepath.Join(root, "bin", "x64", "Release", "net6.0-windows")
	assert.NoDirExists(t, target)
	assert.DirExists(t, filepath.Join(root, "bin", "x64", "Release"))
	assert.FileExists(t, filepath.Join(root, "Program.cs"))

	require.Len(t, report.Removed(), 1)
	assert.Equal(t, target, report.Removed()[0].Path)
	assert.Equal(t, KindDirectory, report.Removed()[0].Kind)
	assert.EqualValues(t, 1536, report.RemovedBytes())
	assert.Equal(t, []string{target}, notified)
	assert.Contains(t, report.Summary(), "1 path(s) removed")
}

func TestPurgeMissingDirectoryIsSkipped(t *testing.T) {
	root := t.TempDir()
	called := false
	p := New(nil)
	p.OnRemove = func(Entry) { called = true }

	report := p.Purge(root, []string{"bin"}, nil)
	require.NoError(t, report.Err)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, OutcomeSkipped, report.Entries[0].Outcome)
	assert.False(t, called)
	assert.Empty(t, report.Removed())
	assert.Equal(t, "nothing to remove", report.Summary())
}

func TestPurgeIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bin", "out.dll"), 8)

	p := New(nil)
	first := p.Purge(root, []string{"bin"}, nil)
	require.NoError(t, first.Err)
	assert.Len(t, first.Removed(), 1)

	second := p.Purge(root, []string{"bin"}, nil)
	require.NoError(t, second.Err)
	assert.Empty(t, second.Removed())
	assert.Equal(t, OutcomeSkipped, second.Entries[0].Outcome)
}

func TestPurgeRegularFileIsErrorAndOthersContinue(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bin"), 4)
	writeFile(t, filepath.Join(root, "obj", "cache"), 4)

	report := New(nil).Purge(root, []string{"bin", "obj"}, nil)
	require.Error(t, report.Err)
	assert.True(t, ferrors.HasCategory(report.Err, ferrors.CategoryFileSystem))

	require.Len(t, report.Entries, 2)
	assert.Equal(t, OutcomeFailed, report.Entries[0].Outcome)
	assert.Equal(t, OutcomeRemoved, report.Entries[1].Outcome)

	assert.FileExists(t, filepath.Join(root, "bin"), "regular file must be left alone")
	assert.NoDirExists(t, filepath.Join(root, "obj"))
}

func TestPurgeGlobsRemoveOnlyRegularFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "cache.sqlite"), 100)
	writeFile(t, filepath.Join(root, "cache.sqlite-wal"), 50)
	writeFile(t, filepath.Join(root, "cache.sqlite.d", "keep"), 1)
	writeFile(t, filepath.Join(root, "config.json"), 1)

	report := New(nil).Purge(root, nil, []string{"cache.sqlite*"})
	require.NoError(t, report.Err)

	assert.NoFileExists(t, filepath.Join(root, "cache.sqlite"))
	assert.NoFileExists(t, filepath.Join(root, "cache.sqlite-wal"))
	assert.DirExists(t, filepath.Join(root, "cache.sqlite.d"))
	assert.FileExists(t, filepath.Join(root, "config.json"))
	assert.Len(t, report.Removed(), 2)
	assert.EqualValues(t, 150, report.RemovedBytes())
	for _, e := range report.Removed() {
		assert.Equal(t, KindFile, e.Kind)
	}
}

func TestPurgeInvalidGlob(t *testing.T) {
	report := New(nil).Purge(t.TempDir(), nil, []string{"[unterminated"})
	require.Error(t, report.Err)
	assert.True(t, ferrors.HasCategory(report.Err, ferrors.CategoryValidation))
}

func TestPurgeNothingConfigured(t *testing.T) {
	report := New(nil).Purge(t.TempDir(), []string{}, nil)
	require.NoError(t, report.Err)
	assert.Empty(t, report.Entries)
}

func TestDescribe(t *testing.T) {
	got := Describe("src", []string{"bin/x64"}, []string{"cache.sqlite*"})
	assert.Equal(t, []string{
		filepath.Join("src", "bin", "x64") + string(filepath.Separator),
		filepath.Join("src", "cache.sqlite*"),
	}, got)
}
