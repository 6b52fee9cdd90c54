package grouping

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/common"
	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/options"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFiles creates every path with its content on fsys
func writeFiles(t *testing.T, fsys afero.Fs, files map[string]string) []string {
	t.Helper()
	paths := make([]string, 0, len(files))
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fsys, path, []byte(content), 0o644))
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func newTestFingerprinter(t *testing.T, fsys afero.Fs, algorithm string) *Fingerprinter {
	t.Helper()
	opts := options.DefaultFingerprintOptions()
	opts.Algorithm = algorithm
	opts.WorkerCount = 4
	f, err := NewFingerprinter(fsys, opts)
	require.NoError(t, err)
	return f
}

func TestChecksumClustersIdenticalContent(t *testing.T) {
	fsys := afero.NewMemMapFs()
	paths := writeFiles(t, fsys, map[string]string{
		"/data/a.txt":     "abc",
		"/data/b.txt":     "abc",
		"/data/sub/c.txt": "abc",
		"/data/d.txt":     "xyz",
	})

	result, err := newTestFingerprinter(t, fsys, "").Checksum(context.Background(), paths)
	require.NoError(t, err)

	assert.Equal(t, AlgorithmSHA256, result.Algorithm)
	assert.Equal(t, 4, result.Scanned)
	assert.Empty(t, result.Failures)
	assert.Len(t, result.Clusters, 2)
	assert.Equal(t, int64(12), result.BytesRead)

	sum := sha256.Sum256([]byte("abc"))
	abc := Digest(hex.EncodeToString(sum[:]))
	assert.ElementsMatch(t, []string{"/data/a.txt", "/data/b.txt", "/data/sub/c.txt"}, result.Clusters[abc])

	dups := result.Duplicates()
	require.Len(t, dups, 1)
	assert.Equal(t, string(abc), dups[0].Key)
	assert.Equal(t, []string{"/data/a.txt", "/data/b.txt", "/data/sub/c.txt"}, dups[0].Paths)
}

func TestChecksumEveryPathExactlyOnce(t *testing.T) {
	fsys := afero.NewMemMapFs()
	files := map[string]string{}
	for i := range 40 {
		files["/tree/"+string(rune('a'+i%26))+"/"+string(rune('a'+i/26))+".bin"] = string(rune('0' + i%5))
	}
	paths := writeFiles(t, fsys, files)
	paths = append(paths, "/tree/missing.bin")

	result, err := newTestFingerprinter(t, fsys, AlgorithmXXHash).Checksum(context.Background(), paths)
	require.NoError(t, err)

	seen := map[string]int{}
	for _, members := range result.Clusters {
		for _, p := range members {
			seen[p]++
		}
	}
	for _, f := range result.Failures {
		seen[f.Path]++
	}
	assert.Len(t, seen, len(paths))
	for p, n := range seen {
		assert.Equal(t, 1, n, "path %s counted %d times", p, n)
	}
	assert.Len(t, result.Clusters, 5)
}

func TestChecksumIsIdempotent(t *testing.T) {
	fsys := afero.NewMemMapFs()
	paths := writeFiles(t, fsys, map[string]string{
		"/x/1": "one",
		"/x/2": "two",
		"/x/3": "one",
		"/x/4": "",
		"/x/5": "",
	})
	f := newTestFingerprinter(t, fsys, AlgorithmMD5)

	first, err := f.Checksum(context.Background(), paths)
	require.NoError(t, err)
	second, err := f.Checksum(context.Background(), paths)
	require.NoError(t, err)

	assert.Equal(t, first.Duplicates(), second.Duplicates())
	assert.Len(t, first.Duplicates(), 2)
}

func TestChecksumIsolatesMissingFiles(t *testing.T) {
	fsys := afero.NewMemMapFs()
	paths := writeFiles(t, fsys, map[string]string{
		"/d/a": "same",
		"/d/b": "same",
	})
	paths = append(paths, "/d/gone")

	result, err := newTestFingerprinter(t, fsys, "").Checksum(context.Background(), paths)
	require.NoError(t, err)

	require.Len(t, result.Failures, 1)
	failure := result.Failures[0]
	assert.Equal(t, "/d/gone", failure.Path)
	assert.Equal(t, common.KindNotFound, failure.Kind)
	assert.True(t, errors.Is(failure, common.ErrFileUnreadable))
	assert.Len(t, result.Duplicates(), 1)
}

func TestChecksumAlgorithms(t *testing.T) {
	content := []byte("fingerprint me")
	md5Sum := md5.Sum(content)
	shaSum := sha256.Sum256(content)
	xx := xxhash.New()
	_, _ = xx.Write(content)

	tests := []struct {
		algorithm string
		want      string
	}{
		{AlgorithmSHA256, hex.EncodeToString(shaSum[:])},
		{AlgorithmMD5, hex.EncodeToString(md5Sum[:])},
		{AlgorithmXXHash, hex.EncodeToString(xx.Sum(nil))},
		{"SHA256", hex.EncodeToString(shaSum[:])},
	}

	for _, tt := range tests {
		t.Run(tt.algorithm, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fsys, "/f", content, 0o644))

			result, err := newTestFingerprinter(t, fsys, tt.algorithm).Checksum(context.Background(), []string{"/f"})
			require.NoError(t, err)
			assert.Equal(t, []string{"/f"}, result.Clusters[Digest(tt.want)])
		})
	}
}

func TestNewFingerprinterUnknownAlgorithm(t *testing.T) {
	opts := options.DefaultFingerprintOptions()
	opts.Algorithm = "crc32"

	_, err := NewFingerprinter(afero.NewMemMapFs(), opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnknownAlgorithm)
	assert.Contains(t, err.Error(), "md5, sha256, xxhash")
}

func TestChecksumEmptyInput(t *testing.T) {
	result, err := newTestFingerprinter(t, afero.NewMemMapFs(), "").Checksum(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Clusters)
	assert.Empty(t, result.Failures)
	assert.Empty(t, result.Duplicates())
}

func TestChecksumCancelled(t *testing.T) {
	fsys := afero.NewMemMapFs()
	paths := writeFiles(t, fsys, map[string]string{"/a": "1", "/b": "1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newTestFingerprinter(t, fsys, "").Checksum(ctx, paths)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChecksumCancelledMidRun(t *testing.T) {
	fsys := afero.NewMemMapFs()
	files := map[string]string{}
	for i := range 64 {
		files["/many/"+string(rune('A'+i%26))+string(rune('a'+i/26))] = "payload"
	}
	paths := writeFiles(t, fsys, files)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int64
	opts := options.DefaultFingerprintOptions()
	opts.WorkerCount = 2
	opts.Progress = func(done, total int) {
		if calls.Add(1) == 3 {
			cancel()
		}
	}
	f, err := NewFingerprinter(fsys, opts)
	require.NoError(t, err)

	result, err := f.Checksum(ctx, paths)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChecksumReportsProgress(t *testing.T) {
	fsys := afero.NewMemMapFs()
	paths := writeFiles(t, fsys, map[string]string{"/p/1": "a", "/p/2": "b", "/p/3": "c"})

	var last atomic.Int64
	var seenTotal atomic.Int64
	opts := options.DefaultFingerprintOptions()
	opts.Progress = func(done, total int) {
		seenTotal.Store(int64(total))
		for {
			cur := last.Load()
			if int64(done) <= cur || last.CompareAndSwap(cur, int64(done)) {
				break
			}
		}
	}
	f, err := NewFingerprinter(fsys, opts)
	require.NoError(t, err)

	_, err = f.Checksum(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, int64(3), last.Load())
	assert.Equal(t, int64(3), seenTotal.Load())
}

func TestFindDuplicatesDropsSingletons(t *testing.T) {
	clusters := map[Digest][]string{
		"ff": {"/z", "/a"},
		"00": {"/only"},
		"aa": {"/m", "/b", "/c"},
	}

	dups := FindDuplicates(clusters)
	require.Len(t, dups, 2)
	assert.Equal(t, Cluster{Key: "aa", Paths: []string{"/b", "/c", "/m"}}, dups[0])
	assert.Equal(t, Cluster{Key: "ff", Paths: []string{"/a", "/z"}}, dups[1])
	// input is not reordered
	assert.Equal(t, []string{"/z", "/a"}, clusters["ff"])
}

func TestAlgorithmsSorted(t *testing.T) {
	assert.Equal(t, []string{"md5", "sha256", "xxhash"}, Algorithms())
}
