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
)

// BeginLogin handles GET /api/v1/auth/login. It returns the provider
// authorization URL instead of redirecting so single-page frontends can open
// it themselves.
func (h *Handler) BeginLogin(w http.ResponseWriter, r *http.Request) {
	authorizeURL, state, err := h.oauth.BeginFlow()
	if err != nil {
		logging.Err(err).Msg("Failed to start OAuth flow")
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "failed to start login")
		return
	}
	respond(w, r, http.StatusOK, map[string]string{
		"authorize_url": authorizeURL,
		"state":         state,
	})
}

// OAuthCallback handles GET /api/v1/auth/callback?code=...&state=... It
// exchanges the code, fetches the listener's profile, stores the delegated
// credentials, and issues a session token.
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if errCode := q.Get("error"); errCode != "" {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeUnauthorized, "authorization denied: "+errCode)
		return
	}
	code := q.Get("code")
	state := q.Get("state")
	if code == "" || state == "" {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "code and state are required")
		return
	}

	token, err := h.oauth.CompleteFlow(r.Context(), code, state)
	if err != nil {
		logging.Err(err).Msg("OAuth code exchange failed")
		respondError(w, r, http.StatusUnauthorized, models.ErrCodeUnauthorized, "authorization failed")
		return
	}

	profile, err := h.spotify.Me(r.Context(), token.AccessToken)
	if err != nil {
		logging.Err(err).Msg("Failed to fetch listener profile")
		respondError(w, r, http.StatusBadGateway, models.ErrCodeUpstream, "failed to fetch profile")
		return
	}

	now := time.Now().UTC()
	err = h.tokens.UpsertToken(r.Context(), models.UserToken{
		UserID:          profile.ID,
		DisplayName:     profile.DisplayName,
		Email:           profile.Email,
		AccessToken:     token.AccessToken,
		RefreshToken:    token.RefreshToken,
		TokenExpiresAt:  token.ExpiresAtTime(),
		TrackingEnabled: true,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		logging.Err(err).Str("user_id", profile.ID).Msg("Failed to store credentials")
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "failed to store credentials")
		return
	}

	session, err := h.jwt.GenerateToken(profile.ID, profile.DisplayName)
	if err != nil {
		logging.Err(err).Msg("Failed to issue session token")
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "failed to issue session token")
		return
	}

	logging.Info().Str("user_id", profile.ID).Msg("Listener connected")
	respond(w, r, http.StatusOK, map[string]interface{}{
		"token": session,
		"user":  profile,
	})
}

// RefreshSession handles POST /api/v1/auth/refresh. It issues a fresh
// session token for an already-authenticated caller, pushing out the expiry.
func (h *Handler) RefreshSession(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	session, err := h.jwt.GenerateToken(claims.UserID, claims.DisplayName)
	if err != nil {
		logging.Err(err).Str("user_id", claims.UserID).Msg("Failed to refresh session token")
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "failed to refresh session token")
		return
	}
	respond(w, r, http.StatusOK, map[string]string{"token": session})
}

// Me handles GET /api/v1/auth/me and returns the connected account.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	token, err := h.tokens.GetToken(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, database.ErrTokenNotFound) {
			respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "no connected account for this listener")
			return
		}
		logging.Err(err).Str("user_id", claims.UserID).Msg("Failed to load account")
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "failed to load account")
		return
	}
	respond(w, r, http.StatusOK, token)
}

// Disconnect handles DELETE /api/v1/auth. It removes the listener's stored
// credentials, which also stops background polling for them.
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	if err := h.tokens.DeleteToken(r.Context(), claims.UserID); err != nil {
		if errors.Is(err, database.ErrTokenNotFound) {
			respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "no connected account for this listener")
			return
		}
		logging.Err(err).Str("user_id", claims.UserID).Msg("Failed to disconnect account")
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "failed to disconnect account")
		return
	}

	logging.Info().Str("user_id", claims.UserID).Msg("Listener disconnected")
	respond(w, r, http.StatusOK, map[string]string{"message": "account disconnected"})
}
