// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

// Package main is the entry point for the Soundtrail server.
//
// Soundtrail is a self-hosted listening history platform. Listeners connect
// their Spotify account through OAuth; a background poller then records what
// they play, and the API serves aggregated stats, temporal analytics, and
// month-over-month comparisons over that history.
//
// # Startup order
//
//  1. Configuration: koanf v2 layering defaults, config.yaml, and env vars
//  2. Logging: zerolog, configured from the loaded settings
//  3. Database: DuckDB storage for plays and delegated credentials
//  4. Spotify client: rate-limited, circuit-broken provider access
//  5. Tracker: ingestion gate, analytics service, and playback poller
//  6. Supervisor tree: poller and HTTP server under suture
//
// # Configuration
//
// Everything can be set by environment variable; see the mapping in
// internal/config. The minimum for a working install:
//
//	export SPOTIFY_CLIENT_ID=...
//	export SPOTIFY_CLIENT_SECRET=...
//	export SPOTIFY_REDIRECT_URI=https://soundtrail.example.com/api/v1/auth/callback
//	export JWT_SECRET=$(openssl rand -base64 32)
//	./soundtrail
//
// The server handles SIGINT and SIGTERM with a graceful drain: the HTTP
// server stops accepting connections, in-flight requests get ten seconds,
// and the poller finishes its current cycle.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soundtrail/soundtrail/internal/api"
	"github.com/soundtrail/soundtrail/internal/auth"
	"github.com/soundtrail/soundtrail/internal/cache"
	"github.com/soundtrail/soundtrail/internal/config"
	"github.com/soundtrail/soundtrail/internal/database"
	"github.com/soundtrail/soundtrail/internal/logging"
	"github.com/soundtrail/soundtrail/internal/spotify"
	"github.com/soundtrail/soundtrail/internal/supervisor"
	"github.com/soundtrail/soundtrail/internal/supervisor/services"
	"github.com/soundtrail/soundtrail/internal/tracker"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Bool("tracker_enabled", cfg.Tracker.Enabled).
		Str("environment", cfg.Server.Environment).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}

	// One cache serves both OAuth state nonces and analytics responses;
	// keys are namespaced.
	appCache := cache.New(time.Minute)

	oauthClient := auth.NewSpotifyOAuthClient(
		cfg.Spotify.ClientID,
		cfg.Spotify.ClientSecret,
		cfg.Spotify.RedirectURI,
		appCache,
		cfg.Security.OAuthStateTTL,
	)
	spotifyClient := spotify.NewClient(&cfg.Spotify)

	svc := tracker.NewService(db, &cfg.Tracker, appCache)

	handler := api.NewHandler(svc, db, oauthClient, spotifyClient, jwtManager, db, cfg)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	if cfg.Tracker.Enabled {
		tree.AddTrackingService(tracker.NewPoller(svc, db, spotifyClient, oauthClient))
	} else {
		logging.Info().Msg("Background tracking disabled")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting Soundtrail")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutting down, waiting for services to stop")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Soundtrail stopped")
}
