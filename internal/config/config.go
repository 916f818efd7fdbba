// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

// Package config loads and validates the server configuration from layered
// sources: built-in defaults, an optional YAML file, and environment
// variables, in increasing order of precedence.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Soundtrail server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Spotify  SpotifyConfig  `koanf:"spotify"`
	Tracker  TrackerConfig  `koanf:"tracker"`
	Security SecurityConfig `koanf:"security"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig controls the embedded DuckDB store.
type DatabaseConfig struct {
	Path         string `koanf:"path"`
	MaxMemory    string `koanf:"max_memory"`
	Threads      int    `koanf:"threads"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
}

// SpotifyConfig holds the OAuth application credentials and client tuning
// for the provider API.
type SpotifyConfig struct {
	ClientID     string        `koanf:"client_id"`
	ClientSecret string        `koanf:"client_secret"`
	RedirectURI  string        `koanf:"redirect_uri"`
	Timeout      time.Duration `koanf:"timeout"`
	RateLimit    float64       `koanf:"rate_limit"`
	RateBurst    int           `koanf:"rate_burst"`
}

// TrackerConfig controls background playback sampling and the ingestion
// gate.
type TrackerConfig struct {
	Enabled             bool          `koanf:"enabled"`
	PollInterval        time.Duration `koanf:"poll_interval"`
	DedupWindow         time.Duration `koanf:"dedup_window"`
	RecentlyPlayedLimit int           `koanf:"recently_played_limit"`
}

// SecurityConfig controls sessions, rate limiting, and CORS.
type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	OAuthStateTTL     time.Duration `koanf:"oauth_state_ttl"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// APIConfig controls pagination bounds.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs in production mode, which
// tightens validation of secrets.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Validate checks the configuration for values that would break the server
// at runtime. It is called after all layers are loaded.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Tracker.PollInterval < 5*time.Second {
		return fmt.Errorf("tracker.poll_interval must be at least 5s, got %s", c.Tracker.PollInterval)
	}
	if c.Tracker.DedupWindow <= 0 {
		return fmt.Errorf("tracker.dedup_window must be positive, got %s", c.Tracker.DedupWindow)
	}
	// A dedup window shorter than the poll interval would record every
	// sample of one continuous playback as a separate play.
	if c.Tracker.DedupWindow < c.Tracker.PollInterval {
		return fmt.Errorf("tracker.dedup_window (%s) must not be shorter than tracker.poll_interval (%s)",
			c.Tracker.DedupWindow, c.Tracker.PollInterval)
	}
	if c.Tracker.RecentlyPlayedLimit < 1 || c.Tracker.RecentlyPlayedLimit > 50 {
		return fmt.Errorf("tracker.recently_played_limit must be between 1 and 50, got %d", c.Tracker.RecentlyPlayedLimit)
	}
	if c.Tracker.Enabled {
		if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
			return fmt.Errorf("spotify.client_id and spotify.client_secret are required when the tracker is enabled")
		}
		if c.Spotify.RedirectURI == "" {
			return fmt.Errorf("spotify.redirect_uri is required when the tracker is enabled")
		}
	}
	if c.API.DefaultPageSize < 1 || c.API.DefaultPageSize > c.API.MaxPageSize {
		return fmt.Errorf("api.default_page_size must be between 1 and api.max_page_size (%d), got %d",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}
	if c.IsProduction() && len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters in production")
	}
	return nil
}
