// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

// Package api exposes the HTTP surface: play ingestion, listening stats and
// analytics, the Spotify OAuth flow, and a thin proxy over the Spotify
// player endpoints.
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/soundtrail/soundtrail/internal/auth"
	"github.com/soundtrail/soundtrail/internal/config"
	"github.com/soundtrail/soundtrail/internal/models"
	"github.com/soundtrail/soundtrail/internal/spotify"
	"github.com/soundtrail/soundtrail/internal/tracker"
)

// TokenStore is the slice of the database the handlers need for listener
// credentials and tracking settings.
type TokenStore interface {
	UpsertToken(ctx context.Context, t models.UserToken) error
	GetToken(ctx context.Context, userID string) (*models.UserToken, error)
	UpdateAccessToken(ctx context.Context, userID, accessToken, refreshToken string, expiresAt time.Time) error
	SetTrackingEnabled(ctx context.Context, userID string, enabled bool) error
	DeleteToken(ctx context.Context, userID string) error
}

// OAuthFlow runs the authorization code flow against the provider.
type OAuthFlow interface {
	BeginFlow() (authorizeURL, state string, err error)
	CompleteFlow(ctx context.Context, code, state string) (*auth.SpotifyToken, error)
	RefreshToken(ctx context.Context, refreshToken string) (*auth.SpotifyToken, error)
}

// SpotifyAPI is the provider surface the proxy endpoints use.
type SpotifyAPI interface {
	Me(ctx context.Context, accessToken string) (*spotify.Profile, error)
	GetCurrentlyPlaying(ctx context.Context, accessToken string) (*spotify.CurrentlyPlaying, error)
	GetRecentlyPlayed(ctx context.Context, accessToken string, limit int, after time.Time) ([]spotify.PlayHistoryItem, error)
	GetTopArtists(ctx context.Context, accessToken, timeRange string, limit int) ([]spotify.Artist, error)
	GetTopTracks(ctx context.Context, accessToken, timeRange string, limit int) ([]spotify.Track, error)
	GetTopAlbums(ctx context.Context, accessToken, timeRange string, limit int) ([]spotify.TopAlbum, error)
}

// Pinger reports storage liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler carries the dependencies shared by all HTTP handlers.
type Handler struct {
	svc     *tracker.Service
	tokens  TokenStore
	oauth   OAuthFlow
	spotify SpotifyAPI
	jwt     *auth.JWTManager
	db      Pinger
	cfg     *config.Config
}

// NewHandler builds the handler set.
func NewHandler(svc *tracker.Service, tokens TokenStore, oauth OAuthFlow, sp SpotifyAPI, jwt *auth.JWTManager, db Pinger, cfg *config.Config) *Handler {
	return &Handler{
		svc:     svc,
		tokens:  tokens,
		oauth:   oauth,
		spotify: sp,
		jwt:     jwt,
		db:      db,
		cfg:     cfg,
	}
}

// accessToken returns a usable provider access token for the listener,
// refreshing and persisting it first when the stored one has expired.
func (h *Handler) accessToken(ctx context.Context, userID string) (string, error) {
	token, err := h.tokens.GetToken(ctx, userID)
	if err != nil {
		return "", err
	}
	if !token.Expired(time.Now().UTC()) {
		return token.AccessToken, nil
	}

	fresh, err := h.oauth.RefreshToken(ctx, token.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}
	if err := h.tokens.UpdateAccessToken(ctx, userID, fresh.AccessToken, fresh.RefreshToken, fresh.ExpiresAtTime()); err != nil {
		return "", fmt.Errorf("failed to store refreshed token: %w", err)
	}
	return fresh.AccessToken, nil
}
