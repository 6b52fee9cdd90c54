package trees

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathIndex(t *testing.T) {
	tests := []struct {
		name string
		test func(t *testing.T)
	}{
		{"Insert", testPathIndexInsert},
		{"CountByDir", testPathIndexCountByDir},
		{"NormalizePath", testPathIndexNormalizePath},
		{"CommonDir", testPathIndexCommonDir},
		{"ConcurrentAccess", testPathIndexConcurrentAccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.test)
	}
}

func testPathIndexInsert(t *testing.T) {
	idx := NewPathIndex()

	require.NoError(t, idx.Insert("/home/user/documents/a.txt"))
	require.NoError(t, idx.Insert("/home/user/documents/a.txt"))
	require.NoError(t, idx.Insert("/home/user/documents/./b.txt"))
	assert.Error(t, idx.Insert(""))
	assert.Error(t, idx.Insert("   "))

	assert.Equal(t, []DirCount{{Dir: "/home/user/documents", Files: 2}}, idx.CountByDir())
}

func testPathIndexCountByDir(t *testing.T) {
	idx := NewPathIndexFrom([]string{
		"/r/x/1",
		"/r/x/2",
		"/r/x/y/3",
		"/r/4",
		"/r/x/2",
	})

	assert.Equal(t, []DirCount{
		{Dir: "/r", Files: 1},
		{Dir: "/r/x", Files: 2},
		{Dir: "/r/x/y", Files: 1},
	}, idx.CountByDir())

	assert.Empty(t, NewPathIndex().CountByDir())
}

func testPathIndexNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/home/user/file", "/home/user/file"},
		{"/home/user/dir/", "/home/user/dir"},
		{"/home/user/../user/file", "/home/user/file"},
		{"/home//user///file", "/home/user/file"},
		{"/", "/"},
		{"C:\\Users\\file", "C:/Users/file"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizePath(tt.input))
		})
	}
}

func testPathIndexCommonDir(t *testing.T) {
	assert.Equal(t, "", NewPathIndex().CommonDir())
	assert.Equal(t, "/a/b", NewPathIndexFrom([]string{"/a/b/1", "/a/b/2"}).CommonDir())
	assert.Equal(t, "/a", NewPathIndexFrom([]string{"/a/b/1", "/a/bc/2"}).CommonDir())
	assert.Equal(t, "/", NewPathIndexFrom([]string{"/a/1", "/z/2"}).CommonDir())
	assert.Equal(t, "ws", NewPathIndexFrom([]string{"ws/a", "ws/sub/b"}).CommonDir())
}

func testPathIndexConcurrentAccess(t *testing.T) {
	idx := NewPathIndex()

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := range 50 {
				assert.NoError(t, idx.Insert(fmt.Sprintf("/w%d/f%d", g, i)))
			}
		}(g)
	}
	wg.Wait()

	counts := idx.CountByDir()
	require.Len(t, counts, 8)
	for _, c := range counts {
		assert.Equal(t, 50, c.Files)
	}
}
