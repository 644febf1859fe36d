package service

import (
	"fmt"
	"time"
)

// WindowStatus is the outcome of evaluating a time window.
type WindowStatus string

const (
	WindowValid      WindowStatus = "valid"
	WindowBeforeOpen WindowStatus = "before_open"
	WindowAfterClose WindowStatus = "after_close"
)

// TimeWindow holds an assessment's open/close bounds. A nil bound means
// that side is unbounded; a bound that failed to parse upstream is
// represented as nil too, relaxing only that one side.
type TimeWindow struct {
	Open  *time.Time
	Close *time.Time
}

// Evaluate compares now against the window. Both now and the bounds go
// through the same location conversion exactly once, so the database
// session timezone can never drift from the application offset.
// Boundary semantics: now == open is valid, now < open is before_open,
// now > close is after_close.
func (w TimeWindow) Evaluate(now time.Time, loc *time.Location) WindowStatus {
	now = now.In(loc)

	if w.Open != nil && now.Before(w.Open.In(loc)) {
		return WindowBeforeOpen
	}
	if w.Close != nil && now.After(w.Close.In(loc)) {
		return WindowAfterClose
	}
	return WindowValid
}

// ParseOffset builds a fixed-offset location from a string like "+07:00".
func ParseOffset(offset string) (*time.Location, error) {
	t, err := time.Parse("-07:00", offset)
	if err != nil {
		return nil, fmt.Errorf("parse timezone offset %q: %w", offset, err)
	}
	return t.Location(), nil
}
