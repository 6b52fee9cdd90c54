package options

import (
	"runtime"

	internal "github.com/ZanzyTHEbar/filegroup/fgrp"
)

// ProgressFunc reports per-file progress. It may be called concurrently.
type ProgressFunc func(done, total int)

// TraversalOptions configures file enumeration
type TraversalOptions struct {
	IncludeHidden bool   // Include dot-files and dot-directories
	IgnoreFile    string // Per-directory gitignore-style file name; empty disables
	WorkerCount   int    // Number of concurrent directory readers
}

// FingerprintOptions configures the content fingerprint engine
type FingerprintOptions struct {
	Algorithm   string       // sha256, md5 or xxhash
	WorkerCount int          // Number of concurrent hashing tasks
	Progress    ProgressFunc // Progress reporting
}

// TimestampOptions configures the modification time engine
type TimestampOptions struct {
	WorkerCount int          // Number of concurrent stat tasks
	Progress    ProgressFunc // Progress reporting
}

// ScanOptions configures a full Enumerator -> Filter -> engine run
type ScanOptions struct {
	Root      string
	Pattern   string // Literal substring; empty keeps every path
	Traversal TraversalOptions
	Workers   int
	Algorithm string
	Progress  ProgressFunc
	// OnTotal is called once the file list is known, before any engine work starts.
	OnTotal func(total int)
}

// DefaultTraversalOptions returns sensible defaults for enumeration
func DefaultTraversalOptions() TraversalOptions {
	return TraversalOptions{
		IncludeHidden: true,
		IgnoreFile:    internal.DefaultIgnoreFileName,
		WorkerCount:   DefaultWorkerCount(),
	}
}

// DefaultFingerprintOptions returns sensible defaults for fingerprinting
func DefaultFingerprintOptions() FingerprintOptions {
	return FingerprintOptions{
		Algorithm:   internal.DefaultAlgorithm,
		WorkerCount: DefaultWorkerCount(),
	}
}

// DefaultTimestampOptions returns sensible defaults for the time engine
func DefaultTimestampOptions() TimestampOptions {
	return TimestampOptions{
		WorkerCount: DefaultWorkerCount(),
	}
}

// DefaultScanOptions returns sensible defaults rooted at root
func DefaultScanOptions(root string) ScanOptions {
	return ScanOptions{
		Root:      root,
		Traversal: DefaultTraversalOptions(),
		Workers:   DefaultWorkerCount(),
		Algorithm: internal.DefaultAlgorithm,
	}
}

// DefaultWorkerCount fans out across all available processors
func DefaultWorkerCount() int {
	return max(runtime.NumCPU(), 1)
}

// Workers returns n when positive, otherwise the default worker count
func Workers(n int) int {
	if n < 1 {
		return DefaultWorkerCount()
	}
	return n
}
