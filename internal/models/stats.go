// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package models

// TrackPlayCount ranks one track inside a summary window.
type TrackPlayCount struct {
	TrackID     string `json:"track_id"`
	TrackName   string `json:"track_name"`
	ArtistName  string `json:"artist_name"`
	AlbumName   string `json:"album_name"`
	PlayCount   int    `json:"play_count"`
	TotalTimeMS int64  `json:"total_time_ms"`
}

// ArtistPlayCount ranks one artist inside a summary window.
type ArtistPlayCount struct {
	ArtistName  string `json:"artist_name"`
	PlayCount   int    `json:"play_count"`
	TotalTimeMS int64  `json:"total_time_ms"`
}

// AlbumPlayCount ranks one album inside a summary window. Albums are keyed by
// the (album, artist) pair so identically named albums by different artists
// stay separate.
type AlbumPlayCount struct {
	AlbumName   string `json:"album_name"`
	ArtistName  string `json:"artist_name"`
	PlayCount   int    `json:"play_count"`
	TotalTimeMS int64  `json:"total_time_ms"`
}

// Summary aggregates a listener's plays over a selected window.
//
// PeriodDays echoes the requested window (0 means all-time). The average
// daily figures divide total listening time by the effective day count, which
// for all-time windows is the span since the earliest recorded play. An empty
// window produces a zero-valued Summary with empty top lists, never an error.
type Summary struct {
	PeriodDays                int              `json:"period_days"`
	TotalPlays                int              `json:"total_plays"`
	TotalTimeMS               int64            `json:"total_time_ms"`
	TotalTimeFormatted        string           `json:"total_time_formatted"`
	UniqueTracks              int              `json:"unique_tracks"`
	UniqueArtists             int              `json:"unique_artists"`
	UniqueAlbums              int              `json:"unique_albums"`
	AverageDailyTimeMS        int64            `json:"average_daily_time_ms"`
	AverageDailyTimeFormatted string           `json:"average_daily_time_formatted"`
	TopTracks                 []TrackPlayCount `json:"top_tracks"`
	TopArtists                []ArtistPlayCount `json:"top_artists"`
	TopAlbums                 []AlbumPlayCount  `json:"top_albums"`
}
