// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package analytics

import (
	"time"

	"github.com/soundtrail/soundtrail/internal/models"
)

// CompareMonths splits plays into calendar-month snapshots, newest first.
// The result always has exactly months entries: index 0 is the current
// month-to-date and silent months appear with zero totals and nil top
// entries. Events must be played-at ascending and cover the whole range.
func CompareMonths(events []models.Play, months int, now time.Time) []models.MonthlySnapshot {
	if months < 1 {
		months = 1
	}
	now = now.UTC()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	out := make([]models.MonthlySnapshot, 0, months)
	for i := 0; i < months; i++ {
		start := current.AddDate(0, -i, 0)
		end := start.AddDate(0, 1, 0)
		out = append(out, monthSnapshot(events, start, end))
	}
	return out
}

func monthSnapshot(events []models.Play, start, end time.Time) models.MonthlySnapshot {
	s := models.MonthlySnapshot{Month: start.Format("2006-01")}

	var slice []models.Play
	tracks := make(map[string]struct{})
	artists := make(map[string]struct{})
	for _, e := range events {
		at := e.PlayedAt.UTC()
		if at.Before(start) || !at.Before(end) {
			continue
		}
		slice = append(slice, e)
		s.TotalPlays++
		s.TotalTimeMS += e.DurationMS
		tracks[e.TrackID] = struct{}{}
		artists[e.ArtistName] = struct{}{}
	}
	s.UniqueTracks = len(tracks)
	s.UniqueArtists = len(artists)

	if topArtists := rankArtists(slice, 1); len(topArtists) > 0 {
		s.TopArtist = &topArtists[0]
	}
	if topTracks := rankTracks(slice, 1); len(topTracks) > 0 {
		s.TopTrack = &topTracks[0]
	}
	return s
}
