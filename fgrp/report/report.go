// Package report turns scan results into the text and JSON output of the CLI.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/common"
	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/types"
	"github.com/ZanzyTHEbar/filegroup/fgrp/grouping"
	"github.com/ZanzyTHEbar/filegroup/fgrp/trees"

	"github.com/google/uuid"
)

// Group is one reported cluster: a digest or a timestamp and its paths.
type Group struct {
	Key   string   `json:"key"`
	Paths []string `json:"paths"`
}

// Skipped is a file left out of a result, with the reason.
type Skipped struct {
	Path  string `json:"path"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// Session is the session partition of a report.
type Session struct {
	Boundary     grouping.Boundary `json:"boundary"`
	InSession    []string          `json:"in_session"`
	OutOfSession []string          `json:"out_of_session"`
}

// Report is the outcome of one command. Fields not relevant to the command
// are left empty and omitted from JSON.
type Report struct {
	ScanID      string           `json:"scan_id"`
	Command     string           `json:"command"`
	Root        string           `json:"root"`
	Pattern     string           `json:"pattern"`
	Enumerated  int              `json:"enumerated"`
	Scanned     int              `json:"scanned"`
	Algorithm   string           `json:"algorithm,omitempty"`
	Matches     []string         `json:"matches,omitempty"`
	Count       int              `json:"count"`
	ByDir       []trees.DirCount `json:"by_dir,omitempty"`
	CommonDir   string           `json:"common_dir,omitempty"`
	Groups      []Group          `json:"groups,omitempty"`
	Session     *Session         `json:"session,omitempty"`
	Skipped     []Skipped        `json:"skipped"`
	BytesRead   int64            `json:"bytes_read,omitempty"`
	GeneratedAt time.Time        `json:"generated_at"`
	Duration    time.Duration    `json:"duration_ns"`
}

func newReport(summary types.ScanSummary) *Report {
	return &Report{
		ScanID:      uuid.NewString(),
		Command:     summary.Operation,
		Root:        summary.Root,
		Pattern:     summary.Pattern,
		Enumerated:  summary.Enumerated,
		Scanned:     summary.Matched,
		Count:       summary.Matched,
		Skipped:     make([]Skipped, 0),
		GeneratedAt: summary.EndTime.UTC(),
		Duration:    summary.Duration,
	}
}

func skippedFrom(failures []*common.FileError) []Skipped {
	skipped := make([]Skipped, 0, len(failures))
	for _, f := range failures {
		skipped = append(skipped, Skipped{Path: f.Path, Kind: string(f.Kind), Error: f.Err.Error()})
	}
	return skipped
}

// FromSearch reports the files matching the pattern
func FromSearch(r *types.SearchResult) *Report {
	rep := newReport(r.ScanSummary)
	rep.Matches = r.Files
	return rep
}

// FromCount reports how many files match
func FromCount(r *types.CountResult) *Report {
	rep := newReport(r.ScanSummary)
	rep.Count = r.Count
	rep.ByDir = r.ByDir
	rep.CommonDir = r.CommonDir
	return rep
}

// FromDedupe reports duplicate content clusters
func FromDedupe(r *types.DedupeResult) *Report {
	rep := newReport(r.ScanSummary)
	rep.Algorithm = r.Algorithm
	rep.BytesRead = r.BytesRead
	rep.Groups = make([]Group, 0, len(r.Duplicates))
	for _, c := range r.Duplicates {
		rep.Groups = append(rep.Groups, Group{Key: c.Key, Paths: c.Paths})
	}
	rep.Skipped = skippedFrom(r.Failures)
	return rep
}

// FromSession reports the in-session and out-of-session files
func FromSession(r *types.SessionScanResult) *Report {
	rep := newReport(r.ScanSummary)
	rep.Session = &Session{
		Boundary:     r.Session.Boundary,
		InSession:    r.Session.InSession,
		OutOfSession: r.Session.OutOfSession,
	}
	rep.Skipped = skippedFrom(r.Failures)
	return rep
}

// FromTimes reports files sharing an exact modification time
func FromTimes(r *types.TimesResult) *Report {
	rep := newReport(r.ScanSummary)
	rep.Groups = make([]Group, 0, len(r.Clusters))
	for _, c := range r.Clusters {
		rep.Groups = append(rep.Groups, Group{Key: c.At.Format(time.RFC3339Nano), Paths: c.Paths})
	}
	rep.Skipped = skippedFrom(r.Failures)
	return rep
}

// JSON writes the report as indented JSON
func (r *Report) JSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
