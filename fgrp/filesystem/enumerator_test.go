package filesystem

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/common"
	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/options"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestTree writes files relative to root on fsys
func createTestTree(t *testing.T, fsys afero.Fs, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, fsys.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, afero.WriteFile(fsys, path, []byte(content), 0o644))
	}
}

func testTraversalOptions() options.TraversalOptions {
	opts := options.DefaultTraversalOptions()
	opts.WorkerCount = 3
	return opts
}

func TestWalkListsRegularFilesOnDisk(t *testing.T) {
	root := t.TempDir()
	fsys := afero.NewOsFs()
	createTestTree(t, fsys, root, map[string]string{
		"a.txt":            "a",
		"sub/b.txt":        "b",
		"sub/deeper/c.log": "c",
		".hidden/d.txt":    "d",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(root, "a.txt"), filepath.Join(root, "link.txt")))

	e := NewEnumerator(fsys, testTraversalOptions())
	files, err := e.Walk(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, ".hidden/d.txt"),
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "sub/b.txt"),
		filepath.Join(root, "sub/deeper/c.log"),
	}, files)

	stats := e.Stats()
	assert.Equal(t, int64(5), stats.DirsProcessed)
	assert.Equal(t, int64(4), stats.FilesProcessed)
}

func TestWalkExcludesHidden(t *testing.T) {
	fsys := afero.NewMemMapFs()
	createTestTree(t, fsys, "/r", map[string]string{
		"visible.txt": "v",
		".secret":     "s",
		".git/HEAD":   "h",
		"sub/.env":    "e",
		"sub/keep.go": "k",
	})

	opts := testTraversalOptions()
	opts.IncludeHidden = false
	files, err := NewEnumerator(fsys, opts).Walk(context.Background(), "/r")
	require.NoError(t, err)

	assert.Equal(t, []string{"/r/sub/keep.go", "/r/visible.txt"}, files)
}

func TestWalkHonorsIgnoreFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	createTestTree(t, fsys, "/proj", map[string]string{
		".fgrpignore":           "# build output\n*.log\nbuild/\n",
		"main.go":               "package main",
		"debug.log":             "x",
		"build/out.bin":         "x",
		"src/app.go":            "package app",
		"src/trace.log":         "x",
		"src/.fgrpignore":       "generated\n",
		"src/generated/gen.go":  "x",
		"other/generated/g.txt": "kept: rule is scoped to src",
	})

	e := NewEnumerator(fsys, testTraversalOptions())
	files, err := e.Walk(context.Background(), "/proj")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/proj/main.go",
		"/proj/other/generated/g.txt",
		"/proj/src/app.go",
	}, files)
	assert.Equal(t, int64(4), e.Stats().Ignored)
}

func TestWalkWithoutIgnoreFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	createTestTree(t, fsys, "/p", map[string]string{
		".fgrpignore": "*.log\n",
		"a.log":       "x",
	})

	opts := testTraversalOptions()
	opts.IgnoreFile = ""
	files, err := NewEnumerator(fsys, opts).Walk(context.Background(), "/p")
	require.NoError(t, err)

	assert.Equal(t, []string{"/p/.fgrpignore", "/p/a.log"}, files)
}

func TestWalkRootIsFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	createTestTree(t, fsys, "/", map[string]string{"single.txt": "x"})

	files, err := NewEnumerator(fsys, testTraversalOptions()).Walk(context.Background(), "/single.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"/single.txt"}, files)
}

func TestWalkMissingRoot(t *testing.T) {
	_, err := NewEnumerator(afero.NewMemMapFs(), testTraversalOptions()).Walk(context.Background(), "/nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTraversal)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestWalkEmptyRoot(t *testing.T) {
	_, err := NewEnumerator(afero.NewMemMapFs(), testTraversalOptions()).Walk(context.Background(), "  ")
	assert.ErrorIs(t, err, common.ErrTraversal)
	assert.ErrorIs(t, err, common.ErrPathEmpty)
}

// unreadableDirFs fails to open one directory
type unreadableDirFs struct {
	afero.Fs
	dir string
}

func (u *unreadableDirFs) Open(name string) (afero.File, error) {
	if filepath.Clean(name) == u.dir {
		return nil, &os.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
	}
	return u.Fs.Open(name)
}

func TestWalkUnreadableSubdirAborts(t *testing.T) {
	mem := afero.NewMemMapFs()
	createTestTree(t, mem, "/r", map[string]string{
		"ok/a.txt":     "a",
		"locked/b.txt": "b",
	})

	files, err := NewEnumerator(&unreadableDirFs{Fs: mem, dir: "/r/locked"}, testTraversalOptions()).
		Walk(context.Background(), "/r")

	assert.Nil(t, files)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrTraversal))
	assert.True(t, errors.Is(err, fs.ErrPermission))
	assert.Contains(t, err.Error(), "/r/locked")
}

func TestWalkCancelled(t *testing.T) {
	fsys := afero.NewMemMapFs()
	createTestTree(t, fsys, "/c", map[string]string{"a/b": "x"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEnumerator(fsys, testTraversalOptions()).Walk(ctx, "/c")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFilterByPattern(t *testing.T) {
	paths := []string{"/a/report.txt", "/b/Report.txt", "/c/notes.md", "/report/x.bin"}

	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{"empty keeps all", "", paths},
		{"case sensitive", "report", []string{"/a/report.txt", "/report/x.bin"}},
		{"directory component", "/c/", []string{"/c/notes.md"}},
		{"no match", "zzz", []string{}},
		{"literal dot", ".md", []string{"/c/notes.md"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterByPattern(paths, tt.pattern))
		})
	}
}
