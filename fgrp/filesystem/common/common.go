// Package common contains shared utilities and types used across the filesystem
// and grouping packages: the error taxonomy for skipped files, path helpers and
// scan metrics.
//
// Use constructors like common.NewPathUtils() to create instances.
package common
