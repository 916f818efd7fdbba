// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soundtrail/soundtrail/internal/config"
	"github.com/soundtrail/soundtrail/internal/models"
)

// NewRouter assembles the full route tree with the shared middleware chain.
func NewRouter(h *Handler, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.Server.Timeout))
	r.Use(PrometheusMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           86400,
	}))
	r.Use(rateLimiter(&cfg.Security))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/auth", func(r chi.Router) {
			// Login endpoints get a tighter limit than the rest of
			// the API.
			r.With(httprate.LimitByIP(10, time.Minute)).Get("/login", h.BeginLogin)
			r.With(httprate.LimitByIP(10, time.Minute)).Get("/callback", h.OAuthCallback)

			r.Group(func(r chi.Router) {
				r.Use(h.Authenticate)
				r.Post("/refresh", h.RefreshSession)
				r.Get("/me", h.Me)
				r.Delete("/", h.Disconnect)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)

			r.Post("/plays", h.RecordPlay)
			r.Get("/stats", h.GetStats)
			r.Get("/history", h.GetHistory)
			r.Get("/analytics", h.GetAdvancedAnalytics)
			r.Get("/analytics/monthly", h.GetMonthlyComparison)
			r.Get("/tracking/settings", h.GetTrackingSettings)
			r.Put("/tracking/settings", h.UpdateTrackingSettings)

			r.Route("/spotify", func(r chi.Router) {
				r.Get("/me", h.Profile)
				r.Get("/currently-playing", h.CurrentlyPlaying)
				r.Get("/recently-played", h.RecentlyPlayed)
				r.Get("/top-artists", h.TopArtists)
				r.Get("/top-tracks", h.TopTracks)
				r.Get("/top-albums", h.TopAlbums)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "no such endpoint")
	})

	return r
}

// rateLimiter builds the global per-IP limiter, or a no-op when disabled.
func rateLimiter(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	if cfg.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		cfg.RateLimitReqs,
		cfg.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, r, http.StatusTooManyRequests, models.ErrCodeRateLimited, "rate limit exceeded")
		}),
	)
}
