// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package spotify

import "strings"

// Profile is the authenticated listener's profile from /v1/me.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// Track is a track object as returned by the player endpoints.
type Track struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	DurationMS int64  `json:"duration_ms"`
	Album      Album  `json:"album"`
	Artists    []Artist `json:"artists"`
}

// Album carries the album fields Soundtrail uses.
type Album struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TopAlbum is one derived top-albums entry. The provider has no top-albums
// endpoint, so entries are counted out of the listener's top tracks.
type TopAlbum struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ArtistName      string `json:"artist_name"`
	TrackCountInTop int    `json:"track_count_in_top"`
}

// Artist carries the artist fields Soundtrail uses.
type Artist struct {
	Name       string   `json:"name"`
	Genres     []string `json:"genres,omitempty"`
	Popularity int      `json:"popularity,omitempty"`
}

// JoinedArtists returns all artist names joined with ", ", or "Unknown" for
// malformed tracks.
func (t *Track) JoinedArtists() string {
	if len(t.Artists) == 0 {
		return "Unknown"
	}
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

// CurrentlyPlaying is the playback state from /v1/me/player/currently-playing.
// A nil *CurrentlyPlaying from the client means nothing is playing.
type CurrentlyPlaying struct {
	IsPlaying  bool   `json:"is_playing"`
	ProgressMS int64  `json:"progress_ms"`
	Timestamp  int64  `json:"timestamp"`
	Item       *Track `json:"item"`
}

// PlayHistoryItem is one entry from /v1/me/player/recently-played.
type PlayHistoryItem struct {
	Track    Track  `json:"track"`
	PlayedAt string `json:"played_at"`
}

// recentlyPlayedResponse wraps the recently-played items list.
type recentlyPlayedResponse struct {
	Items []PlayHistoryItem `json:"items"`
}

// topArtistsResponse wraps the top artists list.
type topArtistsResponse struct {
	Items []Artist `json:"items"`
}

// topTracksResponse wraps the top tracks list.
type topTracksResponse struct {
	Items []Track `json:"items"`
}
