package trees

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/armon/go-radix"
)

// DirCount is the number of indexed files directly inside Dir.
type DirCount struct {
	Dir   string `json:"dir"`
	Files int    `json:"files"`
}

// PathIndex stores file paths in a patricia tree keyed by path, with each
// file's parent directory as the value.
type PathIndex struct {
	tree *radix.Tree
	mu   sync.RWMutex
}

// NewPathIndex creates an empty path index
func NewPathIndex() *PathIndex {
	return &PathIndex{tree: radix.New()}
}

// NewPathIndexFrom indexes every path in paths
func NewPathIndexFrom(paths []string) *PathIndex {
	idx := NewPathIndex()
	for _, p := range paths {
		if err := idx.Insert(p); err != nil {
			slog.Debug("Path not indexed", "path", p, "error", err)
		}
	}
	return idx
}

// Insert adds a file path. Inserting the same path twice is a no-op.
func (idx *PathIndex) Insert(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("invalid input: path cannot be empty")
	}
	key := normalizePath(path)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.tree.Insert(key, filepath.Dir(key))
	return nil
}

// CountByDir tallies files by their immediate parent directory, ordered by
// directory path.
func (idx *PathIndex) CountByDir() []DirCount {
	idx.mu.RLock()
	counts := make(map[string]int)
	idx.tree.Walk(func(_ string, value interface{}) bool {
		counts[value.(string)]++
		return false
	})
	idx.mu.RUnlock()

	result := make([]DirCount, 0, len(counts))
	for dir, n := range counts {
		result = append(result, DirCount{Dir: dir, Files: n})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Dir < result[j].Dir
	})
	return result
}

// CommonDir returns the deepest directory containing every indexed file, or ""
// when the index is empty.
func (idx *PathIndex) CommonDir() string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.tree.Len() == 0 {
		return ""
	}

	var common string
	first := true
	idx.tree.Walk(func(_ string, value interface{}) bool {
		dir := value.(string)
		if first {
			common = dir
			first = false
			return false
		}
		common = commonDir(common, dir)
		return common == "" || common == "/"
	})
	return common
}

// commonDir returns the longest shared directory of a and b
func commonDir(a, b string) string {
	for {
		if a == b || strings.HasPrefix(b, dirPrefix(a)) {
			return a
		}
		parent := filepath.Dir(a)
		if parent == a {
			return a
		}
		a = parent
	}
}

// dirPrefix turns dir into a key prefix that stops at a path boundary
func dirPrefix(dir string) string {
	prefix := normalizePath(dir)
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}

// normalizePath ensures consistent key formatting
func normalizePath(path string) string {
	normalized := strings.ReplaceAll(path, "\\", "/")
	normalized = filepath.ToSlash(filepath.Clean(normalized))

	if len(normalized) > 1 && strings.HasSuffix(normalized, "/") {
		normalized = strings.TrimSuffix(normalized, "/")
	}
	return normalized
}
