package filesystem

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/common"
	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/options"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
)

// ignoreRule is a compiled ignore file and the directory it applies below.
type ignoreRule struct {
	base    string
	matcher *ignore.GitIgnore
}

func (r ignoreRule) matches(path string, isDir bool) bool {
	rel, err := filepath.Rel(r.base, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	rel = filepath.ToSlash(rel)
	if r.matcher.MatchesPath(rel) {
		return true
	}
	return isDir && r.matcher.MatchesPath(rel+"/")
}

// dirFrame is a directory queued for listing together with the rules it inherits.
type dirFrame struct {
	path  string
	rules []ignoreRule
}

// dirListing is what one directory task owns: the files it found and the
// subdirectories for the next level.
type dirListing struct {
	files []string
	dirs  []dirFrame
}

// TraversalStats tracks work done during a walk
type TraversalStats struct {
	DirsProcessed  int64
	FilesProcessed int64
	Ignored        int64
}

// Enumerator lists the regular files beneath a root. Directories are read
// level by level, each level on a bounded conc pool.
type Enumerator struct {
	fs    afero.Fs
	opts  options.TraversalOptions
	paths *common.PathUtils
	stats TraversalStats
}

// NewEnumerator creates an enumerator reading through fsys
func NewEnumerator(fsys afero.Fs, opts options.TraversalOptions) *Enumerator {
	return &Enumerator{fs: fsys, opts: opts, paths: common.NewPathUtils()}
}

// Stats returns the counters of the last walk
func (e *Enumerator) Stats() TraversalStats {
	return TraversalStats{
		DirsProcessed:  atomic.LoadInt64(&e.stats.DirsProcessed),
		FilesProcessed: atomic.LoadInt64(&e.stats.FilesProcessed),
		Ignored:        atomic.LoadInt64(&e.stats.Ignored),
	}
}

// Walk returns every regular file beneath root, sorted. Symlinks and other
// non-regular entries are skipped. Any directory that cannot be read aborts the
// walk with an error wrapping common.ErrTraversal.
func (e *Enumerator) Walk(ctx context.Context, root string) ([]string, error) {
	if err := e.paths.ValidatePath(root); err != nil {
		return nil, common.TraversalError(root, err)
	}
	root = filepath.Clean(root)
	e.stats = TraversalStats{}
	start := time.Now()

	info, err := e.fs.Stat(root)
	if err != nil {
		return nil, common.TraversalError(root, err)
	}
	if info.Mode().IsRegular() {
		return []string{root}, nil
	}
	if !info.IsDir() {
		return nil, common.TraversalError(root, fs.ErrInvalid)
	}

	var files []string
	currentLevel := []dirFrame{{path: root}}

	for depth := 0; len(currentLevel) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		levelPool := pool.NewWithResults[dirListing]().
			WithContext(ctx).
			WithCancelOnError().
			WithFirstError().
			WithMaxGoroutines(options.Workers(e.opts.WorkerCount))

		for _, frame := range currentLevel {
			levelPool.Go(func(ctx context.Context) (dirListing, error) {
				return e.readDir(ctx, frame)
			})
		}

		listings, err := levelPool.Wait()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil {
			return nil, err
		}

		nextLevel := make([]dirFrame, 0)
		for _, l := range listings {
			files = append(files, l.files...)
			nextLevel = append(nextLevel, l.dirs...)
		}

		slog.Debug("Traversal level completed",
			"depth", depth,
			"dirs", len(currentLevel),
			"next", len(nextLevel))

		currentLevel = nextLevel
	}

	sort.Strings(files)

	stats := e.Stats()
	slog.Debug("Traversal completed",
		"root", root,
		"dirs", stats.DirsProcessed,
		"files", stats.FilesProcessed,
		"ignored", stats.Ignored,
		"duration", common.NewTimeUtils().FormatDuration(time.Since(start)))

	return files, nil
}

// readDir lists one directory, applying inherited and local ignore rules
func (e *Enumerator) readDir(ctx context.Context, frame dirFrame) (dirListing, error) {
	if err := ctx.Err(); err != nil {
		return dirListing{}, err
	}

	entries, err := afero.ReadDir(e.fs, frame.path)
	if err != nil {
		return dirListing{}, common.TraversalError(frame.path, err)
	}

	rules, err := e.loadIgnore(frame)
	if err != nil {
		return dirListing{}, err
	}

	var listing dirListing
	for _, entry := range entries {
		name := entry.Name()
		if !e.opts.IncludeHidden && e.paths.IsHidden(name) {
			continue
		}
		if e.opts.IgnoreFile != "" && name == e.opts.IgnoreFile {
			continue
		}

		path := filepath.Join(frame.path, name)
		isDir := entry.IsDir()
		if ignored(rules, path, isDir) {
			atomic.AddInt64(&e.stats.Ignored, 1)
			continue
		}

		switch {
		case isDir:
			listing.dirs = append(listing.dirs, dirFrame{path: path, rules: rules})
		case entry.Mode().IsRegular():
			listing.files = append(listing.files, path)
		default:
			slog.Debug("Skipping non-regular entry", "path", path, "mode", entry.Mode().String())
		}
	}

	atomic.AddInt64(&e.stats.DirsProcessed, 1)
	atomic.AddInt64(&e.stats.FilesProcessed, int64(len(listing.files)))

	return listing, nil
}

// loadIgnore compiles the ignore file of frame's directory, if present, on top
// of the inherited rules.
func (e *Enumerator) loadIgnore(frame dirFrame) ([]ignoreRule, error) {
	if e.opts.IgnoreFile == "" {
		return frame.rules, nil
	}

	ignorePath := filepath.Join(frame.path, e.opts.IgnoreFile)
	data, err := afero.ReadFile(e.fs, ignorePath)
	if errors.Is(err, fs.ErrNotExist) {
		return frame.rules, nil
	}
	if err != nil {
		return nil, common.TraversalError(frame.path, err)
	}

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	rules := make([]ignoreRule, 0, len(frame.rules)+1)
	rules = append(rules, frame.rules...)
	rules = append(rules, ignoreRule{base: frame.path, matcher: ignore.CompileIgnoreLines(lines...)})
	return rules, nil
}

func ignored(rules []ignoreRule, path string, isDir bool) bool {
	for _, r := range rules {
		if r.matches(path, isDir) {
			return true
		}
	}
	return false
}
