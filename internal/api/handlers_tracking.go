// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package api

import (
	"errors"
	"net/http"

	"github.com/soundtrail/soundtrail/internal/database"
	"github.com/soundtrail/soundtrail/internal/logging"
	"github.com/soundtrail/soundtrail/internal/models"
)

// RecordPlay handles POST /api/v1/plays. Duplicates inside the dedup window
// come back 200 with recorded=false; new plays come back 201.
func (h *Handler) RecordPlay(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	var req RecordPlayRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	outcome, err := h.svc.Record(r.Context(), "api", models.Play{
		UserID:     claims.UserID,
		TrackID:    req.TrackID,
		TrackName:  req.TrackName,
		ArtistName: req.ArtistName,
		AlbumName:  req.AlbumName,
		DurationMS: req.DurationMS,
		PlayedAt:   req.PlayedAt,
	})
	if err != nil {
		logging.Err(err).Str("user_id", claims.UserID).Msg("Failed to record play")
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "failed to record play")
		return
	}

	status := http.StatusCreated
	if !outcome.Recorded {
		status = http.StatusOK
	}
	respond(w, r, status, outcome)
}

// GetStats handles GET /api/v1/stats?days=N. days=0 selects all-time.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	days, errMsg := daysParam(r)
	if errMsg != "" {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, errMsg)
		return
	}

	summary, err := h.svc.Stats(r.Context(), claims.UserID, days)
	if err != nil {
		logging.Err(err).Str("user_id", claims.UserID).Msg("Failed to compute stats")
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "failed to compute stats")
		return
	}
	respond(w, r, http.StatusOK, summary)
}

// GetHistory handles GET /api/v1/history?days=N&limit=L&offset=O, newest
// first.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	days, err := queryInt(r, "days", 0)
	if err != nil || days < 0 {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "days must be a non-negative integer")
		return
	}
	limit, offset, errMsg := h.pageParams(r)
	if errMsg != "" {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, errMsg)
		return
	}

	history, err := h.svc.History(r.Context(), claims.UserID, days, limit, offset)
	if err != nil {
		logging.Err(err).Str("user_id", claims.UserID).Msg("Failed to load history")
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "failed to load history")
		return
	}
	respond(w, r, http.StatusOK, history)
}

// GetAdvancedAnalytics handles GET /api/v1/analytics?days=N.
func (h *Handler) GetAdvancedAnalytics(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	days, errMsg := daysParam(r)
	if errMsg != "" {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, errMsg)
		return
	}

	result, err := h.svc.Advanced(r.Context(), claims.UserID, days)
	if err != nil {
		logging.Err(err).Str("user_id", claims.UserID).Msg("Failed to compute analytics")
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "failed to compute analytics")
		return
	}
	respond(w, r, http.StatusOK, result)
}

// GetMonthlyComparison handles GET /api/v1/analytics/monthly?months=N,
// defaulting to the last six calendar months.
func (h *Handler) GetMonthlyComparison(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	months, err := queryInt(r, "months", 6)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "months must be an integer")
		return
	}

	snapshots, err := h.svc.Monthly(r.Context(), claims.UserID, months)
	if err != nil {
		logging.Err(err).Str("user_id", claims.UserID).Msg("Failed to compare months")
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "failed to compare months")
		return
	}
	respond(w, r, http.StatusOK, snapshots)
}

// GetTrackingSettings handles GET /api/v1/tracking/settings.
func (h *Handler) GetTrackingSettings(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	token, err := h.tokens.GetToken(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, database.ErrTokenNotFound) {
			respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "no connected account for this listener")
			return
		}
		logging.Err(err).Str("user_id", claims.UserID).Msg("Failed to load tracking settings")
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "failed to load tracking settings")
		return
	}
	respond(w, r, http.StatusOK, map[string]bool{"tracking_enabled": token.TrackingEnabled})
}

// UpdateTrackingSettings handles PUT /api/v1/tracking/settings.
func (h *Handler) UpdateTrackingSettings(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	var req TrackingSettingsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.tokens.SetTrackingEnabled(r.Context(), claims.UserID, *req.Enabled); err != nil {
		if errors.Is(err, database.ErrTokenNotFound) {
			respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "no connected account for this listener")
			return
		}
		logging.Err(err).Str("user_id", claims.UserID).Msg("Failed to update tracking settings")
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "failed to update tracking settings")
		return
	}
	respond(w, r, http.StatusOK, map[string]bool{"tracking_enabled": *req.Enabled})
}
