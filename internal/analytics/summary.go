// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package analytics

import (
	"time"

	"github.com/soundtrail/soundtrail/internal/models"
)

// Summarize aggregates a window of plays into a Summary. Events must be the
// full window contents sorted by played-at ascending; days is the requested
// window size (0 for all-time) and now is the window's upper edge.
//
// The average daily time divides the total by the effective day count: the
// requested days for bounded windows, or the span since the earliest play
// for all-time, with a floor of one day either way. An empty window yields a
// zero-valued Summary with empty top lists.
func Summarize(events []models.Play, days int, now time.Time) models.Summary {
	s := models.Summary{
		PeriodDays: days,
		TopTracks:  []models.TrackPlayCount{},
		TopArtists: []models.ArtistPlayCount{},
		TopAlbums:  []models.AlbumPlayCount{},
	}

	tracks := make(map[string]struct{})
	artists := make(map[string]struct{})
	albums := make(map[[2]string]struct{})
	for _, e := range events {
		s.TotalPlays++
		s.TotalTimeMS += e.DurationMS
		tracks[e.TrackID] = struct{}{}
		artists[e.ArtistName] = struct{}{}
		albums[[2]string{e.AlbumName, e.ArtistName}] = struct{}{}
	}
	s.UniqueTracks = len(tracks)
	s.UniqueArtists = len(artists)
	s.UniqueAlbums = len(albums)

	effective := effectiveDays(events, days, now)
	s.AverageDailyTimeMS = s.TotalTimeMS / int64(effective)
	s.TotalTimeFormatted = FormatDuration(s.TotalTimeMS)
	s.AverageDailyTimeFormatted = FormatDuration(s.AverageDailyTimeMS)

	s.TopTracks = rankTracks(events, topN)
	s.TopArtists = rankArtists(events, topN)
	s.TopAlbums = rankAlbums(events, topN)
	return s
}

// effectiveDays is the divisor for daily averages, never less than one. For
// all-time windows it is the whole-day span from the earliest play to now.
func effectiveDays(events []models.Play, days int, now time.Time) int {
	effective := days
	if days == 0 && len(events) > 0 {
		effective = int(now.Sub(events[0].PlayedAt).Hours() / 24)
	}
	if effective < 1 {
		effective = 1
	}
	return effective
}
