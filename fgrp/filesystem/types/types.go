package types

import (
	"time"

	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/common"
	"github.com/ZanzyTHEbar/filegroup/fgrp/grouping"
	"github.com/ZanzyTHEbar/filegroup/fgrp/trees"
)

// Event represents a scan lifecycle event with metadata
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Path      string                 `json:"path"`
	Operation string                 `json:"operation"`
	Success   bool                   `json:"success"`
	Error     string                 `json:"error,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// EventType defines the types of scan events
type EventType string

const (
	EventOperationStart  EventType = "operation_start"
	EventFilesEnumerated EventType = "files_enumerated"
	EventFilesFiltered   EventType = "files_filtered"
	EventOperationEnd    EventType = "operation_end"
)

// Operation names used in events and reports
const (
	OpSearch  = "search"
	OpCount   = "count"
	OpDedupe  = "dedupe"
	OpSession = "session"
	OpTimes   = "times"
)

// ScanSummary is shared by every scan result
type ScanSummary struct {
	Operation  string        `json:"operation"`
	Root       string        `json:"root"`
	Pattern    string        `json:"pattern"`
	Enumerated int           `json:"enumerated"`
	Matched    int           `json:"matched"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	Duration   time.Duration `json:"duration"`
}

// SearchResult lists the files matching a pattern
type SearchResult struct {
	ScanSummary
	Files []string `json:"files"`
}

// CountResult counts the files matching a pattern
type CountResult struct {
	ScanSummary
	Count     int              `json:"count"`
	ByDir     []trees.DirCount `json:"by_dir,omitempty"`
	CommonDir string           `json:"common_dir,omitempty"`
}

// DedupeResult holds the duplicate clusters of a scan
type DedupeResult struct {
	ScanSummary
	Algorithm  string              `json:"algorithm"`
	Duplicates []grouping.Cluster  `json:"duplicates"`
	Failures   []*common.FileError `json:"-"`
	BytesRead  int64               `json:"bytes_read"`
}

// SessionScanResult partitions the matched files against a session boundary
type SessionScanResult struct {
	ScanSummary
	Session  grouping.SessionResult `json:"session"`
	Failures []*common.FileError    `json:"-"`
}

// TimesResult holds exact modification time clusters
type TimesResult struct {
	ScanSummary
	Clusters []grouping.TimeCluster `json:"clusters"`
	Failures []*common.FileError    `json:"-"`
}
