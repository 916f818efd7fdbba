// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/soundtrail/soundtrail/internal/database"
	"github.com/soundtrail/soundtrail/internal/logging"
	"github.com/soundtrail/soundtrail/internal/models"
	"github.com/soundtrail/soundtrail/internal/spotify"
)

// validTimeRanges are the period aliases the provider's top lists accept.
var validTimeRanges = map[string]struct{}{
	"short_term":  {},
	"medium_term": {},
	"long_term":   {},
}

// Profile handles GET /api/v1/spotify/me, returning the live provider
// profile rather than the stored account snapshot.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	token, ok := h.listenerToken(w, r, claims.UserID)
	if !ok {
		return
	}

	profile, err := h.spotify.Me(r.Context(), token)
	if err != nil {
		h.respondProviderError(w, r, claims.UserID, err)
		return
	}
	respond(w, r, http.StatusOK, profile)
}

// CurrentlyPlaying handles GET /api/v1/spotify/currently-playing. Data is
// null when nothing is playing.
func (h *Handler) CurrentlyPlaying(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	token, ok := h.listenerToken(w, r, claims.UserID)
	if !ok {
		return
	}

	playing, err := h.spotify.GetCurrentlyPlaying(r.Context(), token)
	if err != nil {
		h.respondProviderError(w, r, claims.UserID, err)
		return
	}
	respond(w, r, http.StatusOK, playing)
}

// RecentlyPlayed handles GET /api/v1/spotify/recently-played?limit=N.
func (h *Handler) RecentlyPlayed(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	limit, err := queryInt(r, "limit", h.cfg.Tracker.RecentlyPlayedLimit)
	if err != nil || limit < 1 || limit > 50 {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "limit must be between 1 and 50")
		return
	}

	token, ok := h.listenerToken(w, r, claims.UserID)
	if !ok {
		return
	}

	items, err := h.spotify.GetRecentlyPlayed(r.Context(), token, limit, time.Time{})
	if err != nil {
		h.respondProviderError(w, r, claims.UserID, err)
		return
	}
	respond(w, r, http.StatusOK, items)
}

// TopArtists handles GET /api/v1/spotify/top-artists?time_range=R&limit=N.
func (h *Handler) TopArtists(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	timeRange, limit, ok := h.topListParams(w, r)
	if !ok {
		return
	}
	token, ok := h.listenerToken(w, r, claims.UserID)
	if !ok {
		return
	}

	artists, err := h.spotify.GetTopArtists(r.Context(), token, timeRange, limit)
	if err != nil {
		h.respondProviderError(w, r, claims.UserID, err)
		return
	}
	respond(w, r, http.StatusOK, artists)
}

// TopTracks handles GET /api/v1/spotify/top-tracks?time_range=R&limit=N.
func (h *Handler) TopTracks(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	timeRange, limit, ok := h.topListParams(w, r)
	if !ok {
		return
	}
	token, ok := h.listenerToken(w, r, claims.UserID)
	if !ok {
		return
	}

	tracks, err := h.spotify.GetTopTracks(r.Context(), token, timeRange, limit)
	if err != nil {
		h.respondProviderError(w, r, claims.UserID, err)
		return
	}
	respond(w, r, http.StatusOK, tracks)
}

// TopAlbums handles GET /api/v1/spotify/top-albums?time_range=R&limit=N.
// The provider has no albums endpoint, so the list is derived from top
// tracks.
func (h *Handler) TopAlbums(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	timeRange, limit, ok := h.topListParams(w, r)
	if !ok {
		return
	}
	token, ok := h.listenerToken(w, r, claims.UserID)
	if !ok {
		return
	}

	albums, err := h.spotify.GetTopAlbums(r.Context(), token, timeRange, limit)
	if err != nil {
		h.respondProviderError(w, r, claims.UserID, err)
		return
	}
	respond(w, r, http.StatusOK, albums)
}

func (h *Handler) topListParams(w http.ResponseWriter, r *http.Request) (timeRange string, limit int, ok bool) {
	timeRange = r.URL.Query().Get("time_range")
	if timeRange == "" {
		timeRange = "medium_term"
	}
	if _, valid := validTimeRanges[timeRange]; !valid {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "time_range must be short_term, medium_term, or long_term")
		return "", 0, false
	}
	limit, err := queryInt(r, "limit", 20)
	if err != nil || limit < 1 || limit > 50 {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "limit must be between 1 and 50")
		return "", 0, false
	}
	return timeRange, limit, true
}

// listenerToken resolves the listener's provider token, writing the error
// response when none is usable.
func (h *Handler) listenerToken(w http.ResponseWriter, r *http.Request, userID string) (string, bool) {
	token, err := h.accessToken(r.Context(), userID)
	if err != nil {
		if errors.Is(err, database.ErrTokenNotFound) {
			respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "no connected account for this listener")
			return "", false
		}
		logging.Err(err).Str("user_id", userID).Msg("Failed to resolve provider token")
		respondError(w, r, http.StatusBadGateway, models.ErrCodeUpstream, "failed to resolve provider token")
		return "", false
	}
	return token, true
}

// respondProviderError maps provider client failures onto API errors.
func (h *Handler) respondProviderError(w http.ResponseWriter, r *http.Request, userID string, err error) {
	switch {
	case errors.Is(err, spotify.ErrUnauthorized):
		respondError(w, r, http.StatusUnauthorized, models.ErrCodeUnauthorized, "provider rejected the access token")
	case errors.Is(err, spotify.ErrRateLimited):
		respondError(w, r, http.StatusTooManyRequests, models.ErrCodeRateLimited, "provider rate limit reached")
	default:
		logging.Err(err).Str("user_id", userID).Msg("Provider request failed")
		respondError(w, r, http.StatusBadGateway, models.ErrCodeUpstream, "provider request failed")
	}
}
