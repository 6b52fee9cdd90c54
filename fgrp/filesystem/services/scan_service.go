package services

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem"
	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/common"
	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/interfaces"
	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/options"
	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/types"
	"github.com/ZanzyTHEbar/filegroup/fgrp/grouping"
	"github.com/ZanzyTHEbar/filegroup/fgrp/trees"

	"github.com/spf13/afero"
)

// ScanService runs the Enumerator -> Filter -> engine pipeline for every
// command. It never modifies the files it scans.
type ScanService struct {
	fs            afero.Fs
	enumerator    interfaces.FileEnumerator
	errorUtils    *common.ErrorUtils
	eventHandlers []func(types.Event)
	mu            sync.RWMutex
}

var _ interfaces.ScanService = (*ScanService)(nil)

// NewScanService creates a scan service reading through fsys. A nil enumerator
// builds a filesystem.Enumerator from each call's traversal options.
func NewScanService(fsys afero.Fs, enumerator interfaces.FileEnumerator) *ScanService {
	return &ScanService{
		fs:            fsys,
		enumerator:    enumerator,
		errorUtils:    common.NewErrorUtils(),
		eventHandlers: make([]func(types.Event), 0),
	}
}

// AddEventHandler registers a handler called for every scan event
func (ss *ScanService) AddEventHandler(handler func(types.Event)) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.eventHandlers = append(ss.eventHandlers, handler)
}

func (ss *ScanService) emitEvent(event types.Event) {
	ss.mu.RLock()
	handlers := slices.Clone(ss.eventHandlers)
	ss.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// collect enumerates opts.Root and applies the pattern filter
func (ss *ScanService) collect(ctx context.Context, operation string, opts options.ScanOptions) (types.ScanSummary, []string, error) {
	summary := types.ScanSummary{
		Operation: operation,
		Root:      opts.Root,
		Pattern:   opts.Pattern,
		StartTime: time.Now(),
	}

	ss.emitEvent(types.Event{
		Type:      types.EventOperationStart,
		Timestamp: summary.StartTime,
		Path:      opts.Root,
		Operation: operation,
		Success:   true,
		Metadata:  map[string]interface{}{"pattern": opts.Pattern},
	})

	enumerator := ss.enumerator
	if enumerator == nil {
		traversal := opts.Traversal
		if traversal.WorkerCount < 1 {
			traversal.WorkerCount = opts.Workers
		}
		enumerator = filesystem.NewEnumerator(ss.fs, traversal)
	}

	all, err := enumerator.Walk(ctx, opts.Root)
	if err != nil {
		ss.emitFailure(operation, opts.Root, err)
		return summary, nil, err
	}
	summary.Enumerated = len(all)
	ss.emitEvent(types.Event{
		Type:      types.EventFilesEnumerated,
		Timestamp: time.Now(),
		Path:      opts.Root,
		Operation: operation,
		Success:   true,
		Metadata:  map[string]interface{}{"files": len(all)},
	})

	matched := filesystem.FilterByPattern(all, opts.Pattern)
	summary.Matched = len(matched)
	ss.emitEvent(types.Event{
		Type:      types.EventFilesFiltered,
		Timestamp: time.Now(),
		Path:      opts.Root,
		Operation: operation,
		Success:   true,
		Metadata:  map[string]interface{}{"files": len(matched), "pattern": opts.Pattern},
	})

	slog.Debug("Files collected",
		"operation", operation,
		"root", opts.Root,
		"enumerated", summary.Enumerated,
		"matched", summary.Matched)

	if opts.OnTotal != nil {
		opts.OnTotal(len(matched))
	}

	return summary, matched, nil
}

// finish stamps the end of the scan and emits the completion event
func (ss *ScanService) finish(summary *types.ScanSummary, failures []*common.FileError) {
	skipped := len(failures)
	summary.EndTime = time.Now()
	summary.Duration = summary.EndTime.Sub(summary.StartTime)

	ss.emitEvent(types.Event{
		Type:      types.EventOperationEnd,
		Timestamp: summary.EndTime,
		Path:      summary.Root,
		Operation: summary.Operation,
		Success:   true,
		Metadata: map[string]interface{}{
			"matched":         summary.Matched,
			"skipped":         skipped,
			"skipped_by_kind": common.CountByKind(failures),
			"duration":        summary.Duration.String(),
		},
	})

	slog.Info("Scan completed",
		"operation", summary.Operation,
		"matched", summary.Matched,
		"skipped", skipped,
		"duration", summary.Duration)
}

func (ss *ScanService) emitFailure(operation, root string, err error) {
	ss.emitEvent(types.Event{
		Type:      types.EventOperationEnd,
		Timestamp: time.Now(),
		Path:      root,
		Operation: operation,
		Success:   false,
		Error:     err.Error(),
	})
}

// Search lists the files under opts.Root whose path contains opts.Pattern
func (ss *ScanService) Search(ctx context.Context, opts options.ScanOptions) (*types.SearchResult, error) {
	summary, matched, err := ss.collect(ctx, types.OpSearch, opts)
	if err != nil {
		return nil, err
	}
	ss.finish(&summary, nil)
	return &types.SearchResult{ScanSummary: summary, Files: matched}, nil
}

// Count counts the matching files, optionally tallied per parent directory
func (ss *ScanService) Count(ctx context.Context, opts options.ScanOptions, byDir bool) (*types.CountResult, error) {
	summary, matched, err := ss.collect(ctx, types.OpCount, opts)
	if err != nil {
		return nil, err
	}

	result := &types.CountResult{Count: len(matched)}
	if byDir {
		idx := trees.NewPathIndexFrom(matched)
		result.ByDir = idx.CountByDir()
		result.CommonDir = idx.CommonDir()
	}
	ss.finish(&summary, nil)
	result.ScanSummary = summary
	return result, nil
}

// Dedupe fingerprints the matching files and returns clusters of identical content
func (ss *ScanService) Dedupe(ctx context.Context, opts options.ScanOptions) (*types.DedupeResult, error) {
	fingerprinter, err := grouping.NewFingerprinter(ss.fs, fingerprintOptions(opts))
	if err != nil {
		return nil, err
	}

	summary, matched, err := ss.collect(ctx, types.OpDedupe, opts)
	if err != nil {
		return nil, err
	}

	digests, err := fingerprinter.Checksum(ctx, matched)
	if err != nil {
		ss.emitFailure(types.OpDedupe, opts.Root, err)
		return nil, ss.errorUtils.WrapError(err, "checksum of %d files failed", len(matched))
	}
	ss.errorUtils.LogFailures(types.OpDedupe, digests.Failures)
	ss.finish(&summary, digests.Failures)

	return &types.DedupeResult{
		ScanSummary: summary,
		Algorithm:   digests.Algorithm,
		Duplicates:  digests.Duplicates(),
		Failures:    digests.Failures,
		BytesRead:   digests.BytesRead,
	}, nil
}

func (ss *ScanService) fileTimes(ctx context.Context, operation string, opts options.ScanOptions) (types.ScanSummary, *grouping.TimeResult, error) {
	summary, matched, err := ss.collect(ctx, operation, opts)
	if err != nil {
		return summary, nil, err
	}

	timestamper := grouping.NewTimestamper(ss.fs, timestampOptions(opts))
	times, err := timestamper.FileTimes(ctx, matched)
	if err != nil {
		ss.emitFailure(operation, opts.Root, err)
		return summary, nil, ss.errorUtils.WrapError(err, "reading modification times of %d files failed", len(matched))
	}
	ss.errorUtils.LogFailures(operation, times.Failures)
	return summary, times, nil
}

// fingerprintOptions overlays the set fields of opts on the engine defaults
func fingerprintOptions(opts options.ScanOptions) options.FingerprintOptions {
	fo := options.DefaultFingerprintOptions()
	if opts.Algorithm != "" {
		fo.Algorithm = opts.Algorithm
	}
	if opts.Workers > 0 {
		fo.WorkerCount = opts.Workers
	}
	fo.Progress = opts.Progress
	return fo
}

// timestampOptions overlays the set fields of opts on the engine defaults
func timestampOptions(opts options.ScanOptions) options.TimestampOptions {
	to := options.DefaultTimestampOptions()
	if opts.Workers > 0 {
		to.WorkerCount = opts.Workers
	}
	to.Progress = opts.Progress
	return to
}

// Session partitions the matching files into those modified at or after
// boundary and the rest.
func (ss *ScanService) Session(ctx context.Context, opts options.ScanOptions, boundary grouping.Boundary) (*types.SessionScanResult, error) {
	summary, times, err := ss.fileTimes(ctx, types.OpSession, opts)
	if err != nil {
		return nil, err
	}
	ss.finish(&summary, times.Failures)

	return &types.SessionScanResult{
		ScanSummary: summary,
		Session:     times.SessionFiles(boundary),
		Failures:    times.Failures,
	}, nil
}

// Times groups the matching files that share an exact modification time
func (ss *ScanService) Times(ctx context.Context, opts options.ScanOptions) (*types.TimesResult, error) {
	summary, times, err := ss.fileTimes(ctx, types.OpTimes, opts)
	if err != nil {
		return nil, err
	}
	ss.finish(&summary, times.Failures)

	return &types.TimesResult{
		ScanSummary: summary,
		Clusters:    times.FindTimeDuplicates(),
		Failures:    times.Failures,
	}, nil
}
