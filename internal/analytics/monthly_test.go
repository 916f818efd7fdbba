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

func TestCompareMonths(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	events := []models.Play{
		// June: one play.
		play("Old", "Artist Two", "Album Y", 240000,
			time.Date(2026, 6, 10, 20, 0, 0, 0, time.UTC)),
		// August: three plays, Alpha twice.
		play("Alpha", "Artist One", "Album X", 200000,
			time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)),
		play("Beta", "Artist One", "Album X", 200000,
			time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC)),
		play("Alpha", "Artist One", "Album X", 200000,
			time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)),
	}

	snaps := CompareMonths(events, 6, now)
	if len(snaps) != 6 {
		t.Fatalf("len(snaps) = %d, want 6", len(snaps))
	}

	t.Run("index zero is the current month", func(t *testing.T) {
		cur := snaps[0]
		if cur.Month != "2026-08" {
			t.Fatalf("Month = %q, want 2026-08", cur.Month)
		}
		if cur.TotalPlays != 3 || cur.TotalTimeMS != 600000 {
			t.Errorf("totals = %d plays / %d ms, want 3 / 600000", cur.TotalPlays, cur.TotalTimeMS)
		}
		if cur.UniqueTracks != 2 || cur.UniqueArtists != 1 {
			t.Errorf("distinct = %d tracks / %d artists, want 2 / 1",
				cur.UniqueTracks, cur.UniqueArtists)
		}
		if cur.TopTrack == nil || cur.TopTrack.TrackName != "Alpha" || cur.TopTrack.PlayCount != 2 {
			t.Errorf("TopTrack = %+v, want Alpha with 2 plays", cur.TopTrack)
		}
		if cur.TopArtist == nil || cur.TopArtist.ArtistName != "Artist One" {
			t.Errorf("TopArtist = %+v, want Artist One", cur.TopArtist)
		}
	})

	t.Run("months run backward from the current one", func(t *testing.T) {
		want := []string{"2026-08", "2026-07", "2026-06", "2026-05", "2026-04", "2026-03"}
		for i, m := range want {
			if snaps[i].Month != m {
				t.Errorf("snaps[%d].Month = %q, want %q", i, snaps[i].Month, m)
			}
		}
	})

	t.Run("silent months have zero totals and nil tops", func(t *testing.T) {
		july := snaps[1]
		if july.TotalPlays != 0 || july.TotalTimeMS != 0 {
			t.Errorf("July totals = %+v, want zeros", july)
		}
		if july.TopTrack != nil || july.TopArtist != nil {
			t.Errorf("July tops should be nil, got %+v / %+v", july.TopTrack, july.TopArtist)
		}
	})

	t.Run("events land in their calendar month", func(t *testing.T) {
		june := snaps[2]
		if june.TotalPlays != 1 || june.TopArtist == nil || june.TopArtist.ArtistName != "Artist Two" {
			t.Errorf("June = %+v, want 1 play by Artist Two", june)
		}
	})

	t.Run("months below one clamps to a single snapshot", func(t *testing.T) {
		snaps := CompareMonths(events, 0, now)
		if len(snaps) != 1 || snaps[0].Month != "2026-08" {
			t.Errorf("snaps = %+v, want single current month", snaps)
		}
	})
}
