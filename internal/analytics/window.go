// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

// Package analytics implements the pure aggregation and temporal analysis
// engines. Every function here is deterministic: callers supply the event
// slice and the reference time, and no function reads the clock, the
// database, or any other ambient state. This keeps the ranking and streak
// semantics testable without storage.
package analytics

import (
	"errors"
	"time"
)

// ErrNegativeDays is returned when a window is requested with days < 0.
var ErrNegativeDays = errors.New("days must be zero or positive")

// Window is a half-open time range [Start, End). A zero Start with Days == 0
// denotes the unbounded all-time window.
type Window struct {
	Days  int
	Start time.Time
	End   time.Time
}

// Bounded reports whether the window has a lower edge.
func (w Window) Bounded() bool {
	return w.Days > 0
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if t.Before(w.End) {
		return !w.Bounded() || !t.Before(w.Start)
	}
	return false
}

// ResolveWindow maps a day count onto a concrete window anchored at now.
// days > 0 yields [now - days*24h, now); days == 0 yields the all-time
// window ending at now; negative days are rejected.
func ResolveWindow(days int, now time.Time) (Window, error) {
	if days < 0 {
		return Window{}, ErrNegativeDays
	}
	w := Window{Days: days, End: now}
	if days > 0 {
		w.Start = now.Add(-time.Duration(days) * 24 * time.Hour)
	}
	return w, nil
}
