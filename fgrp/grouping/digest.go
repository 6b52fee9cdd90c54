package grouping

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/common"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
)

// Digest is the lowercase hex encoding of a file's full-content hash.
// Equal digests are treated as equal content; a collision between different
// contents is possible and is not detected.
type Digest string

// Supported digest algorithms. xxhash is 64 bits wide and the most exposed to
// collisions; sha256 is the default.
const (
	AlgorithmSHA256 = "sha256"
	AlgorithmMD5    = "md5"
	AlgorithmXXHash = "xxhash"
)

// BlockSize is the read buffer used when streaming file contents
const BlockSize = 32 * 1024

var hashConstructors = map[string]func() hash.Hash{
	AlgorithmSHA256: sha256.New,
	AlgorithmMD5:    md5.New,
	AlgorithmXXHash: func() hash.Hash { return xxhash.New() },
}

// bufferPool shares read buffers between hashing tasks
var bufferPool = sync.Pool{
	New: func() any {
		b := make([]byte, BlockSize)
		return &b
	},
}

// Algorithms lists the supported digest algorithm names in sorted order.
func Algorithms() []string {
	names := make([]string, 0, len(hashConstructors))
	for name := range hashConstructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupHash(algorithm string) (func() hash.Hash, error) {
	name := strings.ToLower(strings.TrimSpace(algorithm))
	if name == "" {
		name = AlgorithmSHA256
	}
	ctor, ok := hashConstructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", common.ErrUnknownAlgorithm, algorithm, strings.Join(Algorithms(), ", "))
	}
	return ctor, nil
}

// digester hashes whole files. Hash states are pooled per algorithm.
type digester struct {
	fs      afero.Fs
	hashers sync.Pool
}

func newDigester(fsys afero.Fs, ctor func() hash.Hash) *digester {
	return &digester{
		fs:      fsys,
		hashers: sync.Pool{New: func() any { return ctor() }},
	}
}

// digestFile streams path through the hasher and returns its digest and size.
func (d *digester) digestFile(ctx context.Context, path string) (Digest, int64, *common.FileError) {
	file, err := d.fs.Open(path)
	if err != nil {
		return "", 0, common.NewFileUnreadable(path, err, false)
	}
	defer file.Close()

	h := d.hashers.Get().(hash.Hash)
	h.Reset()
	defer d.hashers.Put(h)

	bufPtr := bufferPool.Get().(*[]byte)
	defer bufferPool.Put(bufPtr)

	n, err := io.CopyBuffer(h, &contextReader{ctx: ctx, r: file}, *bufPtr)
	if err != nil {
		return "", n, common.NewFileUnreadable(path, err, true)
	}

	return Digest(hex.EncodeToString(h.Sum(nil))), n, nil
}

// contextReader stops a long read once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
