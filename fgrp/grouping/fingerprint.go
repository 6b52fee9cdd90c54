package grouping

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/common"
	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/options"

	"github.com/spf13/afero"
)

// Cluster is a set of paths sharing a key. Paths are sorted; the order carries no meaning.
type Cluster struct {
	Key   string   `json:"key"`
	Paths []string `json:"paths"`
}

// DigestResult holds every digest cluster of a run, singletons included, plus
// the files that could not be read.
type DigestResult struct {
	Algorithm string
	Clusters  map[Digest][]string
	Failures  []*common.FileError
	Scanned   int
	BytesRead int64
	Duration  time.Duration
}

// Fingerprinter groups files by the digest of their full contents.
type Fingerprinter struct {
	opts     options.FingerprintOptions
	digester *digester
}

// NewFingerprinter creates a fingerprint engine reading through fsys.
func NewFingerprinter(fsys afero.Fs, opts options.FingerprintOptions) (*Fingerprinter, error) {
	ctor, err := lookupHash(opts.Algorithm)
	if err != nil {
		return nil, err
	}
	if opts.Algorithm == "" {
		opts.Algorithm = AlgorithmSHA256
	}
	return &Fingerprinter{
		opts:     opts,
		digester: newDigester(fsys, ctor),
	}, nil
}

// Algorithm returns the digest algorithm in use.
func (f *Fingerprinter) Algorithm() string {
	return f.opts.Algorithm
}

// Checksum digests every path and clusters the paths by digest. Unreadable
// files are skipped and returned in DigestResult.Failures; every other path
// lands in exactly one cluster.
func (f *Fingerprinter) Checksum(ctx context.Context, paths []string) (*DigestResult, error) {
	metrics := common.NewScanMetrics()

	outcomes, err := runPerFile(ctx, paths, f.opts.WorkerCount, f.opts.Progress, metrics, f.digester.digestFile)
	if err != nil {
		return nil, err
	}

	result := &DigestResult{
		Algorithm: f.opts.Algorithm,
		Clusters:  make(map[Digest][]string),
		Scanned:   len(paths),
	}
	for _, o := range outcomes {
		if o.failure != nil {
			result.Failures = append(result.Failures, o.failure)
			continue
		}
		result.Clusters[o.value] = append(result.Clusters[o.value], o.path)
	}
	sortFailures(result.Failures)

	result.Duration = metrics.Finish()
	result.BytesRead = metrics.BytesRead()

	slog.Debug("Checksum completed",
		"algorithm", result.Algorithm,
		"files", result.Scanned,
		"clusters", len(result.Clusters),
		"failures", len(result.Failures),
		"metrics", metrics.GetMetrics())

	return result, nil
}

// Duplicates returns the clusters with at least two members.
func (r *DigestResult) Duplicates() []Cluster {
	return FindDuplicates(r.Clusters)
}

// FindDuplicates keeps only clusters with two or more paths. Clusters are
// ordered by digest and their paths sorted.
func FindDuplicates(clusters map[Digest][]string) []Cluster {
	duplicates := make([]Cluster, 0)
	for digest, paths := range clusters {
		if len(paths) < 2 {
			continue
		}
		sorted := append([]string(nil), paths...)
		sort.Strings(sorted)
		duplicates = append(duplicates, Cluster{Key: string(digest), Paths: sorted})
	}
	sort.Slice(duplicates, func(i, j int) bool {
		return duplicates[i].Key < duplicates[j].Key
	})
	return duplicates
}
