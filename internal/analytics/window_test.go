// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package analytics

import (
	"testing"
	"time"
)

func TestResolveWindow(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		days      int
		wantStart time.Time
		wantErr   bool
	}{
		{
			name:      "bounded 30 day window",
			days:      30,
			wantStart: now.Add(-30 * 24 * time.Hour),
		},
		{
			name:      "single day window",
			days:      1,
			wantStart: now.Add(-24 * time.Hour),
		},
		{
			name: "all time window has zero start",
			days: 0,
		},
		{
			name:    "negative days rejected",
			days:    -7,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := ResolveWindow(tt.days, now)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !w.Start.Equal(tt.wantStart) {
				t.Errorf("Start = %v, want %v", w.Start, tt.wantStart)
			}
			if !w.End.Equal(now) {
				t.Errorf("End = %v, want %v", w.End, now)
			}
			if w.Bounded() != (tt.days > 0) {
				t.Errorf("Bounded() = %v, want %v", w.Bounded(), tt.days > 0)
			}
		})
	}
}

func TestWindowContains(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	w, err := ResolveWindow(7, now)
	if err != nil {
		t.Fatalf("ResolveWindow: %v", err)
	}

	if !w.Contains(now.Add(-time.Hour)) {
		t.Error("recent timestamp should be inside the window")
	}
	if w.Contains(now) {
		t.Error("the upper edge is exclusive")
	}
	if !w.Contains(w.Start) {
		t.Error("the lower edge is inclusive")
	}
	if w.Contains(w.Start.Add(-time.Second)) {
		t.Error("timestamp before the start should be outside")
	}

	unbounded, _ := ResolveWindow(0, now)
	if !unbounded.Contains(now.Add(-10 * 365 * 24 * time.Hour)) {
		t.Error("all-time window should contain arbitrarily old timestamps")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0m"},
		{59999, "0m"},
		{60000, "1m"},
		{900000, "15m"},
		{3599999, "59m"},
		{3600000, "1h 0m"},
		{5025000, "1h 23m"},
		{90061000, "25h 1m"},
		{-5, "0m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.ms); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}
