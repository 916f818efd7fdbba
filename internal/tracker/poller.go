// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soundtrail/soundtrail/internal/auth"
	"github.com/soundtrail/soundtrail/internal/logging"
	"github.com/soundtrail/soundtrail/internal/metrics"
	"github.com/soundtrail/soundtrail/internal/models"
	"github.com/soundtrail/soundtrail/internal/spotify"
)

// TokenStore is the slice of the database the poller needs for listener
// credentials.
type TokenStore interface {
	ListTracked(ctx context.Context) ([]models.UserToken, error)
	UpdateAccessToken(ctx context.Context, userID, accessToken, refreshToken string, expiresAt time.Time) error
	TouchLastTracked(ctx context.Context, userID string, at time.Time) error
}

// Provider samples what a listener is playing right now.
type Provider interface {
	GetCurrentlyPlaying(ctx context.Context, accessToken string) (*spotify.CurrentlyPlaying, error)
}

// TokenRefresher exchanges a refresh token for a fresh access token.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*auth.SpotifyToken, error)
}

// Poller periodically samples each tracked listener's current playback and
// feeds it through the ingestion gate. Sampling the same track across
// consecutive ticks is expected; the dedup window collapses those repeats
// into one recorded play. The poller runs under the supervision tree and
// stops when its context is cancelled.
type Poller struct {
	svc      *Service
	tokens   TokenStore
	provider Provider
	oauth    TokenRefresher
	interval time.Duration
	now      func() time.Time
}

// NewPoller builds a poller using the service's tracker configuration.
func NewPoller(svc *Service, tokens TokenStore, provider Provider, oauth TokenRefresher) *Poller {
	return &Poller{
		svc:      svc,
		tokens:   tokens,
		provider: provider,
		oauth:    oauth,
		interval: svc.cfg.PollInterval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// String identifies the poller in supervisor logs.
func (p *Poller) String() string {
	return "spotify-poller"
}

// Serve runs the poll loop until the context is cancelled. It satisfies
// suture's Service interface.
func (p *Poller) Serve(ctx context.Context) error {
	logging.Info().
		Dur("interval", p.interval).
		Msg("Starting playback poller")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// First pass immediately so a restart does not wait a full interval.
	p.pollAll(ctx)

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Stopping playback poller")
			return ctx.Err()
		case <-ticker.C:
			p.pollAll(ctx)
		}
	}
}

// pollAll runs one cycle over every tracked listener. A failure for one
// listener is logged and counted but never aborts the cycle.
func (p *Poller) pollAll(ctx context.Context) {
	start := time.Now()
	metrics.PollerRunsTotal.Inc()

	listeners, err := p.tokens.ListTracked(ctx)
	if err != nil {
		metrics.PollerErrorsTotal.WithLabelValues("store").Inc()
		logging.Err(err).Msg("Failed to list tracked listeners")
		return
	}
	metrics.PollerTrackedListeners.Set(float64(len(listeners)))

	for i := range listeners {
		if ctx.Err() != nil {
			return
		}
		if err := p.pollListener(ctx, &listeners[i]); err != nil {
			logging.Err(err).
				Str("user_id", listeners[i].UserID).
				Msg("Poll failed for listener")
		}
	}
	metrics.PollerCycleDuration.Observe(time.Since(start).Seconds())
}

// pollListener refreshes the listener's token if needed, samples their
// current playback, and records it. Silence is not an error.
func (p *Poller) pollListener(ctx context.Context, token *models.UserToken) error {
	now := p.now()

	if token.Expired(now) {
		fresh, err := p.oauth.RefreshToken(ctx, token.RefreshToken)
		if err != nil {
			metrics.PollerErrorsTotal.WithLabelValues("token_refresh").Inc()
			return fmt.Errorf("failed to refresh token: %w", err)
		}
		if err := p.tokens.UpdateAccessToken(ctx, token.UserID, fresh.AccessToken, fresh.RefreshToken, fresh.ExpiresAtTime()); err != nil {
			metrics.PollerErrorsTotal.WithLabelValues("store").Inc()
			return fmt.Errorf("failed to store refreshed token: %w", err)
		}
		token.AccessToken = fresh.AccessToken
		logging.Debug().Str("user_id", token.UserID).Msg("Refreshed access token")
	}

	playing, err := p.provider.GetCurrentlyPlaying(ctx, token.AccessToken)
	if err != nil {
		if errors.Is(err, spotify.ErrRateLimited) {
			// Back off quietly; the next cycle retries.
			logging.Warn().Str("user_id", token.UserID).Msg("Provider throttled playback sample")
			return nil
		}
		metrics.PollerErrorsTotal.WithLabelValues("provider").Inc()
		return fmt.Errorf("failed to sample playback: %w", err)
	}

	if playing != nil && playing.IsPlaying && playing.Item != nil {
		track := playing.Item
		name := track.Name
		if name == "" {
			name = "Unknown"
		}
		album := track.Album.Name
		if album == "" {
			album = "Unknown"
		}
		play := models.Play{
			UserID:     token.UserID,
			TrackID:    track.ID,
			TrackName:  name,
			ArtistName: track.JoinedArtists(),
			AlbumName:  album,
			DurationMS: track.DurationMS,
			PlayedAt:   now,
		}
		if _, err := p.svc.Record(ctx, "poller", play); err != nil {
			metrics.PollerErrorsTotal.WithLabelValues("store").Inc()
			logging.Err(err).
				Str("user_id", token.UserID).
				Str("track_id", play.TrackID).
				Msg("Failed to record sampled play")
		}
	}

	if err := p.tokens.TouchLastTracked(ctx, token.UserID, now); err != nil {
		metrics.PollerErrorsTotal.WithLabelValues("store").Inc()
		return fmt.Errorf("failed to update last tracked time: %w", err)
	}
	return nil
}
