// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package database

import (
	"context"
	"fmt"
)

// createTables creates the schema when missing. Plays are append-only; the
// (user_id, track_id, played_at) index serves both the dedup check and the
// windowed scans.
func (db *DB) createTables() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS plays (
			id VARCHAR PRIMARY KEY,
			user_id VARCHAR NOT NULL,
			track_id VARCHAR NOT NULL,
			track_name VARCHAR NOT NULL,
			artist_name VARCHAR NOT NULL,
			album_name VARCHAR NOT NULL,
			duration_ms BIGINT NOT NULL,
			played_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_plays_user_played
			ON plays (user_id, played_at)`,
		`CREATE INDEX IF NOT EXISTS idx_plays_user_track_played
			ON plays (user_id, track_id, played_at)`,
		`CREATE TABLE IF NOT EXISTS user_tokens (
			user_id VARCHAR PRIMARY KEY,
			display_name VARCHAR NOT NULL DEFAULT '',
			email VARCHAR NOT NULL DEFAULT '',
			access_token VARCHAR NOT NULL,
			refresh_token VARCHAR NOT NULL,
			token_expires_at TIMESTAMP NOT NULL,
			tracking_enabled BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			last_tracked_at TIMESTAMP
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
