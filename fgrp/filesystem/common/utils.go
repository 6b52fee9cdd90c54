package common

import (
	"fmt"
	"path/filepath"
	"strings"
)

// PathUtils provides path manipulation utilities used across filesystem packages
type PathUtils struct{}

// NewPathUtils creates a new PathUtils instance
func NewPathUtils() *PathUtils {
	return &PathUtils{}
}

// NormalizePath cleans a path and makes it absolute when possible
func (pu *PathUtils) NormalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Clean(abs)
}

// ValidatePath validates that a path is non-empty and well formed
func (pu *PathUtils) ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrPathEmpty
	}
	if strings.Contains(path, "\x00") {
		return ErrPathInvalid
	}
	if len(path) > 4096 {
		return ErrPathTooLong
	}
	return nil
}

// IsHidden reports whether the final element of path starts with a dot
func (pu *PathUtils) IsHidden(path string) bool {
	base := filepath.Base(path)
	return len(base) > 1 && strings.HasPrefix(base, ".") && base != ".."
}

// ByteCountDecimal renders a byte count with SI units.
func ByteCountDecimal(b int64) string {
	const unit = 1000
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "kMGTPE"[exp])
}
