package common

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"syscall"
)

// Common error types used across filesystem and grouping packages
var (
	ErrPathEmpty   = errors.New("path cannot be empty")
	ErrPathTooLong = errors.New("path too long (max 4096 characters)")
	ErrPathInvalid = errors.New("path contains invalid characters")

	// ErrTraversal marks a directory that could not be listed. It aborts the run.
	ErrTraversal = errors.New("traversal failure")
	// ErrFileUnreadable marks a file whose contents could not be opened or fully read.
	ErrFileUnreadable = errors.New("file unreadable")
	// ErrMetadataUnreadable marks a file whose metadata could not be read.
	ErrMetadataUnreadable = errors.New("metadata unreadable")
	// ErrUnsupportedPlatform is returned when the host reports no modification time.
	ErrUnsupportedPlatform = errors.New("modification time not supported on this platform")
	ErrBadDuration         = errors.New("bad duration")
	ErrBadBoundarySpec     = errors.New("bad session boundary specification")
	ErrUnknownAlgorithm    = errors.New("unknown digest algorithm")
)

// FailureKind distinguishes why a single file was skipped.
type FailureKind string

const (
	KindNotFound         FailureKind = "not_found"
	KindPermissionDenied FailureKind = "permission_denied"
	// KindVanished is a file that was listed but removed before or while it was read.
	KindVanished    FailureKind = "vanished"
	KindUnsupported FailureKind = "unsupported"
	KindIO          FailureKind = "io"
)

// FileError records one skipped file. Err is the underlying cause, Op the
// sentinel for the operation that failed (ErrFileUnreadable or ErrMetadataUnreadable).
type FileError struct {
	Path string
	Op   error
	Kind FailureKind
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s (%s): %v", e.Op, e.Path, e.Kind, e.Err)
}

// Unwrap exposes both the operation sentinel and the cause to errors.Is/As.
func (e *FileError) Unwrap() []error {
	return []error{e.Op, e.Err}
}

// NewFileUnreadable builds a FileError for a failed content read.
// opened reports whether the file had already been opened when err occurred.
func NewFileUnreadable(path string, err error, opened bool) *FileError {
	return &FileError{Path: path, Op: ErrFileUnreadable, Kind: ClassifyFailure(err, opened), Err: err}
}

// NewMetadataUnreadable builds a FileError for a failed stat.
func NewMetadataUnreadable(path string, err error) *FileError {
	return &FileError{Path: path, Op: ErrMetadataUnreadable, Kind: ClassifyFailure(err, false), Err: err}
}

// ClassifyFailure maps an I/O error to a FailureKind. A not-exist error after
// the file was opened means it was removed mid-scan.
func ClassifyFailure(err error, opened bool) FailureKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedPlatform):
		return KindUnsupported
	case errors.Is(err, fs.ErrPermission):
		return KindPermissionDenied
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ESTALE):
		if opened {
			return KindVanished
		}
		return KindNotFound
	default:
		return KindIO
	}
}

// TraversalError wraps a directory read failure with ErrTraversal.
func TraversalError(dir string, err error) error {
	return fmt.Errorf("%w: failed to read directory %s: %w", ErrTraversal, dir, err)
}

// ErrorUtils provides common error handling utilities
type ErrorUtils struct{}

// NewErrorUtils creates a new ErrorUtils instance
func NewErrorUtils() *ErrorUtils {
	return &ErrorUtils{}
}

// WrapError wraps an error with additional context
func (eu *ErrorUtils) WrapError(err error, message string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	context := fmt.Sprintf(message, args...)
	return fmt.Errorf("%s: %w", context, err)
}

// LogFailures writes one log record per skipped file. Callers decide whether to
// surface the failures further; logging never replaces returning them.
func (eu *ErrorUtils) LogFailures(operation string, failures []*FileError) {
	for _, f := range failures {
		slog.Info("Skipped file",
			"operation", operation,
			"path", f.Path,
			"kind", string(f.Kind),
			"error", f.Err)
	}
}

// CountByKind tallies failures per kind.
func CountByKind(failures []*FileError) map[FailureKind]int {
	counts := make(map[FailureKind]int)
	for _, f := range failures {
		counts[f.Kind]++
	}
	return counts
}
