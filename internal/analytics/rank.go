// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package analytics

import (
	"sort"

	"github.com/soundtrail/soundtrail/internal/models"
)

// topN is the fixed ranking depth for all top lists.
const topN = 10

// Rankings are built by scanning events in played-at ascending order and
// sorting stably by play count, so equal counts preserve first-encountered
// order. This matches the ingestion order and keeps rankings deterministic
// across runs.

func rankTracks(events []models.Play, limit int) []models.TrackPlayCount {
	index := make(map[string]int, len(events))
	out := make([]models.TrackPlayCount, 0)
	for _, e := range events {
		i, ok := index[e.TrackID]
		if !ok {
			i = len(out)
			index[e.TrackID] = i
			out = append(out, models.TrackPlayCount{
				TrackID:    e.TrackID,
				TrackName:  e.TrackName,
				ArtistName: e.ArtistName,
				AlbumName:  e.AlbumName,
			})
		}
		out[i].PlayCount++
		out[i].TotalTimeMS += e.DurationMS
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].PlayCount > out[b].PlayCount
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func rankArtists(events []models.Play, limit int) []models.ArtistPlayCount {
	index := make(map[string]int, len(events))
	out := make([]models.ArtistPlayCount, 0)
	for _, e := range events {
		i, ok := index[e.ArtistName]
		if !ok {
			i = len(out)
			index[e.ArtistName] = i
			out = append(out, models.ArtistPlayCount{ArtistName: e.ArtistName})
		}
		out[i].PlayCount++
		out[i].TotalTimeMS += e.DurationMS
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].PlayCount > out[b].PlayCount
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func rankAlbums(events []models.Play, limit int) []models.AlbumPlayCount {
	type key struct{ album, artist string }
	index := make(map[key]int, len(events))
	out := make([]models.AlbumPlayCount, 0)
	for _, e := range events {
		k := key{e.AlbumName, e.ArtistName}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, models.AlbumPlayCount{
				AlbumName:  e.AlbumName,
				ArtistName: e.ArtistName,
			})
		}
		out[i].PlayCount++
		out[i].TotalTimeMS += e.DurationMS
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].PlayCount > out[b].PlayCount
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
