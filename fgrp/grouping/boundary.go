package grouping

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/common"
)

// BoundaryPolicy names how a session boundary was derived.
type BoundaryPolicy string

const (
	PolicyMinutesAgo  BoundaryPolicy = "minutes_ago"
	PolicyLastWeekday BoundaryPolicy = "last_weekday"
)

// Boundary is the cutoff instant of a session. At is always UTC.
type Boundary struct {
	At     time.Time      `json:"at"`
	Policy BoundaryPolicy `json:"policy"`
	Spec   string         `json:"spec"`
}

// Contains reports whether t is at or after the boundary.
func (b Boundary) Contains(t time.Time) bool {
	return !t.Before(b.At)
}

func (b Boundary) String() string {
	return fmt.Sprintf("%s (%s %s)", b.At.Format(time.RFC3339), b.Policy, b.Spec)
}

// Resolver computes session boundaries relative to Now.
type Resolver struct {
	Now func() time.Time
}

// NewResolver returns a Resolver on the wall clock.
func NewResolver() *Resolver {
	return &Resolver{Now: time.Now}
}

func (r *Resolver) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now().UTC()
}

// maxMinutes keeps N*time.Minute inside time.Duration.
const maxMinutes = math.MaxInt64 / int64(time.Minute)

// SinceMinutes returns now minus spec minutes. spec must be a non-negative
// base-10 integer.
func (r *Resolver) SinceMinutes(spec string) (Boundary, error) {
	trimmed := strings.TrimSpace(spec)
	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return Boundary{}, fmt.Errorf("%w: %q is not a whole number of minutes", common.ErrBadDuration, spec)
	}
	if n < 0 {
		return Boundary{}, fmt.Errorf("%w: %q is negative", common.ErrBadDuration, spec)
	}
	if n > maxMinutes {
		return Boundary{}, fmt.Errorf("%w: %q is out of range", common.ErrBadDuration, spec)
	}

	return Boundary{
		At:     r.now().Add(-time.Duration(n) * time.Minute),
		Policy: PolicyMinutesAgo,
		Spec:   trimmed,
	}, nil
}

// LastWeekday returns midnight UTC of the most recent day falling on w, today
// included. If today is w the boundary is today's midnight, never a week back.
func (r *Resolver) LastWeekday(w time.Weekday) Boundary {
	now := r.now()
	offset := DaysSince(now.Weekday(), w)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -offset)

	return Boundary{
		At:     day,
		Policy: PolicyLastWeekday,
		Spec:   strings.ToLower(w.String()),
	}
}

// DaysSince is the number of days from the most recent target back to today,
// in [0, 6].
func DaysSince(today, target time.Weekday) int {
	return (int(today) - int(target) + 7) % 7
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday accepts English weekday names or their three-letter prefixes,
// case-insensitively.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if len(name) >= 3 {
		for full, day := range weekdays {
			if full == name || full[:3] == name {
				return day, nil
			}
		}
	}
	return time.Sunday, fmt.Errorf("%w: unknown weekday %q", common.ErrBadBoundarySpec, s)
}

// Resolve builds a boundary from exactly one of minutes or weekday.
func (r *Resolver) Resolve(minutes, weekday string) (Boundary, error) {
	hasMinutes := strings.TrimSpace(minutes) != ""
	hasWeekday := strings.TrimSpace(weekday) != ""

	switch {
	case hasMinutes && hasWeekday:
		return Boundary{}, fmt.Errorf("%w: set either minutes or weekday, not both", common.ErrBadBoundarySpec)
	case hasMinutes:
		return r.SinceMinutes(minutes)
	case hasWeekday:
		w, err := ParseWeekday(weekday)
		if err != nil {
			return Boundary{}, err
		}
		return r.LastWeekday(w), nil
	default:
		return Boundary{}, fmt.Errorf("%w: a minutes value or a weekday is required", common.ErrBadBoundarySpec)
	}
}
