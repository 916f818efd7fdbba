// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package api

import (
	"net/http"
	"time"
)

// RecordPlayRequest is a manually submitted play. PlayedAt is optional; a
// missing timestamp means "just now".
type RecordPlayRequest struct {
	TrackID    string    `json:"track_id" validate:"required,max=256"`
	TrackName  string    `json:"track_name" validate:"required,max=512"`
	ArtistName string    `json:"artist_name" validate:"required,max=512"`
	AlbumName  string    `json:"album_name" validate:"required,max=512"`
	DurationMS int64     `json:"duration_ms" validate:"min=0"`
	PlayedAt   time.Time `json:"played_at"`
}

// TrackingSettingsRequest toggles background polling for the listener.
type TrackingSettingsRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// defaultStatsDays is the window applied when a stats or analytics request
// does not name one. days=0 must be passed explicitly for all-time.
const defaultStatsDays = 30

// daysParam reads the window size. Negative values are rejected here so
// handlers return a clean 400 instead of surfacing the engine error.
func daysParam(r *http.Request) (int, string) {
	days, err := queryInt(r, "days", defaultStatsDays)
	if err != nil {
		return 0, err.Error()
	}
	if days < 0 {
		return 0, "days must not be negative"
	}
	return days, ""
}

// pageParams reads limit and offset, clamped to the configured page sizes.
func (h *Handler) pageParams(r *http.Request) (limit, offset int, errMsg string) {
	limit, err := queryInt(r, "limit", h.cfg.API.DefaultPageSize)
	if err != nil {
		return 0, 0, err.Error()
	}
	offset, err = queryInt(r, "offset", 0)
	if err != nil {
		return 0, 0, err.Error()
	}
	if limit < 1 {
		limit = 1
	}
	if limit > h.cfg.API.MaxPageSize {
		limit = h.cfg.API.MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset, ""
}
