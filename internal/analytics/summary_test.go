// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package analytics

import (
	"testing"
	"time"

	"github.com/soundtrail/soundtrail/internal/models"
)

// play builds a test event. Track IDs derive from the track name so repeated
// names count as repeated plays of the same track.
func play(track, artist, album string, durMS int64, at time.Time) models.Play {
	return models.Play{
		UserID:     "listener-1",
		TrackID:    "track:" + track,
		TrackName:  track,
		ArtistName: artist,
		AlbumName:  album,
		DurationMS: durMS,
		PlayedAt:   at,
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	t.Run("aggregates totals and distinct counts", func(t *testing.T) {
		events := []models.Play{
			play("Alpha", "Artist One", "Album X", 200000, now.Add(-50*time.Hour)),
			play("Beta", "Artist One", "Album X", 200000, now.Add(-40*time.Hour)),
			play("Alpha", "Artist One", "Album X", 200000, now.Add(-30*time.Hour)),
			play("Gamma", "Artist Two", "Album Y", 200000, now.Add(-20*time.Hour)),
			play("Beta", "Artist One", "Album X", 200000, now.Add(-10*time.Hour)),
		}
		s := Summarize(events, 7, now)

		if s.PeriodDays != 7 {
			t.Errorf("PeriodDays = %d, want 7", s.PeriodDays)
		}
		if s.TotalPlays != 5 {
			t.Errorf("TotalPlays = %d, want 5", s.TotalPlays)
		}
		if s.TotalTimeMS != 1000000 {
			t.Errorf("TotalTimeMS = %d, want 1000000", s.TotalTimeMS)
		}
		if s.TotalTimeFormatted != "16m" {
			t.Errorf("TotalTimeFormatted = %q, want %q", s.TotalTimeFormatted, "16m")
		}
		if s.UniqueTracks != 3 || s.UniqueArtists != 2 || s.UniqueAlbums != 2 {
			t.Errorf("distinct counts = %d/%d/%d, want 3/2/2",
				s.UniqueTracks, s.UniqueArtists, s.UniqueAlbums)
		}
		if want := int64(1000000 / 7); s.AverageDailyTimeMS != want {
			t.Errorf("AverageDailyTimeMS = %d, want %d", s.AverageDailyTimeMS, want)
		}
	})

	t.Run("top tracks break ties by first encountered", func(t *testing.T) {
		// Alpha and Beta both have two plays; Alpha appears first in
		// played-at order and must rank ahead.
		events := []models.Play{
			play("Alpha", "Artist One", "Album X", 100000, now.Add(-5*time.Hour)),
			play("Beta", "Artist One", "Album X", 100000, now.Add(-4*time.Hour)),
			play("Alpha", "Artist One", "Album X", 100000, now.Add(-3*time.Hour)),
			play("Beta", "Artist One", "Album X", 100000, now.Add(-2*time.Hour)),
			play("Gamma", "Artist Two", "Album Y", 100000, now.Add(-1*time.Hour)),
		}
		s := Summarize(events, 1, now)

		if len(s.TopTracks) != 3 {
			t.Fatalf("len(TopTracks) = %d, want 3", len(s.TopTracks))
		}
		if s.TopTracks[0].TrackName != "Alpha" || s.TopTracks[1].TrackName != "Beta" {
			t.Errorf("tie order = %q, %q; want Alpha, Beta",
				s.TopTracks[0].TrackName, s.TopTracks[1].TrackName)
		}
		if s.TopTracks[0].PlayCount != 2 || s.TopTracks[0].TotalTimeMS != 200000 {
			t.Errorf("top track = %d plays / %d ms, want 2 / 200000",
				s.TopTracks[0].PlayCount, s.TopTracks[0].TotalTimeMS)
		}
		if s.TopTracks[0].AlbumName != "Album X" {
			t.Errorf("top track album = %q, want Album X", s.TopTracks[0].AlbumName)
		}
		if s.TopArtists[0].ArtistName != "Artist One" || s.TopArtists[0].PlayCount != 4 {
			t.Errorf("top artist = %q/%d, want Artist One/4",
				s.TopArtists[0].ArtistName, s.TopArtists[0].PlayCount)
		}
	})

	t.Run("top lists cap at ten", func(t *testing.T) {
		var events []models.Play
		for i := 0; i < 15; i++ {
			name := string(rune('A' + i))
			events = append(events, play(name, "Artist "+name, "Album", 1000,
				now.Add(-time.Duration(15-i)*time.Minute)))
		}
		s := Summarize(events, 1, now)
		if len(s.TopTracks) != 10 {
			t.Errorf("len(TopTracks) = %d, want 10", len(s.TopTracks))
		}
		if len(s.TopArtists) != 10 {
			t.Errorf("len(TopArtists) = %d, want 10", len(s.TopArtists))
		}
	})

	t.Run("all time average divides by span since earliest play", func(t *testing.T) {
		events := []models.Play{
			play("Alpha", "Artist One", "Album X", 500000, now.Add(-10*24*time.Hour)),
			play("Beta", "Artist One", "Album X", 500000, now.Add(-time.Hour)),
		}
		s := Summarize(events, 0, now)
		if s.PeriodDays != 0 {
			t.Errorf("PeriodDays = %d, want 0", s.PeriodDays)
		}
		if want := int64(1000000 / 10); s.AverageDailyTimeMS != want {
			t.Errorf("AverageDailyTimeMS = %d, want %d", s.AverageDailyTimeMS, want)
		}
	})

	t.Run("all time average floors the divisor at one day", func(t *testing.T) {
		events := []models.Play{
			play("Alpha", "Artist One", "Album X", 300000, now.Add(-2*time.Hour)),
		}
		s := Summarize(events, 0, now)
		if s.AverageDailyTimeMS != 300000 {
			t.Errorf("AverageDailyTimeMS = %d, want 300000", s.AverageDailyTimeMS)
		}
	})

	t.Run("empty window yields zero summary", func(t *testing.T) {
		s := Summarize(nil, 30, now)
		if s.TotalPlays != 0 || s.TotalTimeMS != 0 || s.AverageDailyTimeMS != 0 {
			t.Errorf("expected zero totals, got %+v", s)
		}
		if s.TotalTimeFormatted != "0m" {
			t.Errorf("TotalTimeFormatted = %q, want %q", s.TotalTimeFormatted, "0m")
		}
		if s.TopTracks == nil || len(s.TopTracks) != 0 {
			t.Errorf("TopTracks should be empty non-nil, got %v", s.TopTracks)
		}
	})
}
