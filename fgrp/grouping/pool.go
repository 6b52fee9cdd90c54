package grouping

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/common"
	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/options"

	"github.com/sourcegraph/conc/pool"
)

// outcome is the value a single per-file task owns. Tasks never touch shared
// aggregates; the caller merges outcomes after the pool has drained.
type outcome[T any] struct {
	path    string
	value   T
	bytes   int64
	failure *common.FileError
}

type fileTask[T any] func(ctx context.Context, path string) (T, int64, *common.FileError)

// runPerFile runs task once per path on a bounded pool. Per-file failures are
// carried in the outcomes. The only whole-run error is cancellation of ctx,
// in which case every partial outcome is discarded.
func runPerFile[T any](ctx context.Context, paths []string, workers int, progress options.ProgressFunc, metrics *common.ScanMetrics, task fileTask[T]) ([]outcome[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, nil
	}

	total := len(paths)
	var done atomic.Int64

	p := pool.NewWithResults[outcome[T]]().
		WithContext(ctx).
		WithMaxGoroutines(options.Workers(workers))

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		p.Go(func(ctx context.Context) (outcome[T], error) {
			if err := ctx.Err(); err != nil {
				return outcome[T]{}, err
			}

			value, n, failure := task(ctx, path)
			if metrics != nil {
				metrics.RecordFile(failure == nil, n)
			}
			if progress != nil {
				progress(int(done.Add(1)), total)
			}
			return outcome[T]{path: path, value: value, bytes: n, failure: failure}, nil
		})
	}

	outcomes, err := p.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}

// sortFailures orders failures by path so reports are stable between runs.
func sortFailures(failures []*common.FileError) {
	sort.Slice(failures, func(i, j int) bool {
		return failures[i].Path < failures[j].Path
	})
}
