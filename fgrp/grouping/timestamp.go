package grouping

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/common"
	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/options"

	"github.com/spf13/afero"
)

// TimeResult holds the UTC modification time of every readable path plus the
// files whose metadata could not be read.
type TimeResult struct {
	Times    map[string]time.Time
	Failures []*common.FileError
	Scanned  int
	Duration time.Duration
}

// TimeCluster is a set of paths whose modification times are exactly equal.
type TimeCluster struct {
	At    time.Time `json:"at"`
	Paths []string  `json:"paths"`
}

// SessionResult partitions the readable paths against a boundary.
type SessionResult struct {
	Boundary     Boundary `json:"boundary"`
	InSession    []string `json:"in_session"`
	OutOfSession []string `json:"out_of_session"`
}

// timeKey compares exactly at whatever precision the filesystem reported.
type timeKey struct {
	sec  int64
	nsec int
}

func keyOf(t time.Time) timeKey {
	return timeKey{sec: t.Unix(), nsec: t.Nanosecond()}
}

// Timestamper reads modification times and groups or partitions files by them.
type Timestamper struct {
	fs   afero.Fs
	opts options.TimestampOptions
}

// NewTimestamper creates a timestamp engine reading metadata through fsys.
func NewTimestamper(fsys afero.Fs, opts options.TimestampOptions) *Timestamper {
	return &Timestamper{fs: fsys, opts: opts}
}

func (ts *Timestamper) modTime(_ context.Context, path string) (time.Time, int64, *common.FileError) {
	info, err := ts.fs.Stat(path)
	if err != nil {
		return time.Time{}, 0, common.NewMetadataUnreadable(path, err)
	}
	mt := info.ModTime()
	if mt.IsZero() {
		return time.Time{}, 0, common.NewMetadataUnreadable(path, common.ErrUnsupportedPlatform)
	}
	return mt.UTC(), 0, nil
}

// FileTimes stats every path concurrently. Paths whose metadata cannot be read
// are skipped and returned in TimeResult.Failures. If no path yields a
// modification time because the host does not provide one, ErrUnsupportedPlatform
// is returned.
func (ts *Timestamper) FileTimes(ctx context.Context, paths []string) (*TimeResult, error) {
	metrics := common.NewScanMetrics()

	outcomes, err := runPerFile(ctx, paths, ts.opts.WorkerCount, ts.opts.Progress, metrics, ts.modTime)
	if err != nil {
		return nil, err
	}

	result := &TimeResult{
		Times:   make(map[string]time.Time, len(outcomes)),
		Scanned: len(paths),
	}
	unsupported := 0
	for _, o := range outcomes {
		if o.failure != nil {
			if o.failure.Kind == common.KindUnsupported {
				unsupported++
			}
			result.Failures = append(result.Failures, o.failure)
			continue
		}
		result.Times[o.path] = o.value
	}
	sortFailures(result.Failures)
	result.Duration = metrics.Finish()

	if unsupported > 0 && unsupported == len(paths) {
		return nil, fmt.Errorf("%w: no file under scan reported a modification time", common.ErrUnsupportedPlatform)
	}

	slog.Debug("File times collected",
		"files", result.Scanned,
		"failures", len(result.Failures),
		"duration", result.Duration)

	return result, nil
}

// GroupByTime clusters every path by exact modification time, singletons
// included, oldest first. Colliding files are all kept; no path is dropped in
// favour of another.
func (r *TimeResult) GroupByTime() []TimeCluster {
	byKey := make(map[timeKey]*TimeCluster)
	for path, mt := range r.Times {
		k := keyOf(mt)
		c, ok := byKey[k]
		if !ok {
			c = &TimeCluster{At: mt}
			byKey[k] = c
		}
		c.Paths = append(c.Paths, path)
	}

	clusters := make([]TimeCluster, 0, len(byKey))
	for _, c := range byKey {
		sort.Strings(c.Paths)
		clusters = append(clusters, *c)
	}
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].At.Before(clusters[j].At)
	})
	return clusters
}

// FindTimeDuplicates returns clusters of two or more paths sharing an exact
// modification time, oldest first.
func (r *TimeResult) FindTimeDuplicates() []TimeCluster {
	duplicates := make([]TimeCluster, 0)
	for _, c := range r.GroupByTime() {
		if len(c.Paths) >= 2 {
			duplicates = append(duplicates, c)
		}
	}
	return duplicates
}

// SessionFiles partitions paths against b. A file modified at or after b.At is
// in session; everything else is out. Each readable path lands in exactly one list.
func (r *TimeResult) SessionFiles(b Boundary) SessionResult {
	res := SessionResult{
		Boundary:     b,
		InSession:    make([]string, 0),
		OutOfSession: make([]string, 0),
	}
	for path, mt := range r.Times {
		if b.Contains(mt) {
			res.InSession = append(res.InSession, path)
		} else {
			res.OutOfSession = append(res.OutOfSession, path)
		}
	}
	sort.Strings(res.InSession)
	sort.Strings(res.OutOfSession)
	return res
}
