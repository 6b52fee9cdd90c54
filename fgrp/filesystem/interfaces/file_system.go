package interfaces

import (
	"context"

	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/options"
	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/types"
	"github.com/ZanzyTHEbar/filegroup/fgrp/grouping"
)

// FileEnumerator lists the regular files beneath a root
type FileEnumerator interface {
	Walk(ctx context.Context, root string) ([]string, error)
}

// ScanService defines the operations exposed to the command line
type ScanService interface {
	Search(ctx context.Context, opts options.ScanOptions) (*types.SearchResult, error)
	Count(ctx context.Context, opts options.ScanOptions, byDir bool) (*types.CountResult, error)
	Dedupe(ctx context.Context, opts options.ScanOptions) (*types.DedupeResult, error)
	Session(ctx context.Context, opts options.ScanOptions, boundary grouping.Boundary) (*types.SessionScanResult, error)
	Times(ctx context.Context, opts options.ScanOptions) (*types.TimesResult, error)
}
