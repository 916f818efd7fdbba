// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithKoanfDefaults(t *testing.T) {
	// Tracker requires provider credentials; disable it so plain defaults
	// pass validation.
	t.Setenv("TRACKER_ENABLED", "false")
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Tracker.DedupWindow != 3*time.Minute {
		t.Errorf("Tracker.DedupWindow = %s, want 3m", cfg.Tracker.DedupWindow)
	}
	if cfg.Tracker.PollInterval != 30*time.Second {
		t.Errorf("Tracker.PollInterval = %s, want 30s", cfg.Tracker.PollInterval)
	}
	if cfg.API.DefaultPageSize != 100 || cfg.API.MaxPageSize != 1000 {
		t.Errorf("API page sizes = %d/%d, want 100/1000",
			cfg.API.DefaultPageSize, cfg.API.MaxPageSize)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %s/%s, want info/json", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoadWithKoanfEnvOverrides(t *testing.T) {
	t.Setenv("TRACKER_ENABLED", "true")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SPOTIFY_CLIENT_ID", "client-id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "client-secret")
	t.Setenv("SPOTIFY_REDIRECT_URI", "http://localhost:9090/api/v1/auth/callback")
	t.Setenv("TRACKER_POLL_INTERVAL", "45s")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Spotify.ClientID != "client-id" {
		t.Errorf("Spotify.ClientID = %q, want client-id", cfg.Spotify.ClientID)
	}
	if cfg.Tracker.PollInterval != 45*time.Second {
		t.Errorf("Tracker.PollInterval = %s, want 45s", cfg.Tracker.PollInterval)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[0] != "https://a.example.com" {
		t.Errorf("CORSOrigins = %v, want two trimmed origins", cfg.Security.CORSOrigins)
	}
}

func TestLoadWithKoanfConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 7070
tracker:
  enabled: false
  poll_interval: 1m
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Tracker.PollInterval != time.Minute {
		t.Errorf("Tracker.PollInterval = %s, want 1m", cfg.Tracker.PollInterval)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}

	t.Run("env still beats the file", func(t *testing.T) {
		t.Setenv("HTTP_PORT", "6060")
		cfg, err := LoadWithKoanf()
		if err != nil {
			t.Fatalf("LoadWithKoanf: %v", err)
		}
		if cfg.Server.Port != 6060 {
			t.Errorf("Server.Port = %d, want 6060", cfg.Server.Port)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Tracker.Enabled = false
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults with tracker disabled are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
		{
			name:    "poll interval too small",
			mutate:  func(c *Config) { c.Tracker.PollInterval = time.Second },
			wantErr: "tracker.poll_interval",
		},
		{
			name:    "dedup window must be positive",
			mutate:  func(c *Config) { c.Tracker.DedupWindow = 0 },
			wantErr: "tracker.dedup_window",
		},
		{
			name:    "dedup window shorter than poll interval",
			mutate:  func(c *Config) { c.Tracker.DedupWindow = 10 * time.Second },
			wantErr: "must not be shorter than tracker.poll_interval",
		},
		{
			name:    "tracker needs provider credentials",
			mutate:  func(c *Config) { c.Tracker.Enabled = true },
			wantErr: "spotify.client_id",
		},
		{
			name: "production requires a strong jwt secret",
			mutate: func(c *Config) {
				c.Server.Environment = "production"
				c.Security.JWTSecret = "short"
			},
			wantErr: "security.jwt_secret",
		},
		{
			name:    "default page size above max",
			mutate:  func(c *Config) { c.API.DefaultPageSize = 5000 },
			wantErr: "api.default_page_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
