// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/soundtrail/soundtrail/internal/models"
)

// ErrTokenNotFound is returned when a listener has no stored credentials.
var ErrTokenNotFound = errors.New("user token not found")

// UpsertToken stores or replaces a listener's delegated credentials. Existing
// rows keep their created_at and tracking preference.
func (db *DB) UpsertToken(ctx context.Context, t models.UserToken) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	now := time.Now().UTC()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO user_tokens
			(user_id, display_name, email, access_token, refresh_token, token_expires_at,
			 tracking_enabled, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
			display_name = excluded.display_name,
			email = excluded.email,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_expires_at = excluded.token_expires_at,
			updated_at = excluded.updated_at`,
		t.UserID, t.DisplayName, t.Email, t.AccessToken, t.RefreshToken,
		t.TokenExpiresAt.UTC(), t.TrackingEnabled, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user token: %w", err)
	}
	return nil
}

// GetToken loads one listener's credentials.
func (db *DB) GetToken(ctx context.Context, userID string) (*models.UserToken, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		`SELECT user_id, display_name, email, access_token, refresh_token, token_expires_at,
			tracking_enabled, created_at, updated_at, last_tracked_at
		 FROM user_tokens WHERE user_id = ?`, userID)
	return scanToken(row)
}

// ListTracked returns every listener with tracking enabled, for the poller.
func (db *DB) ListTracked(ctx context.Context) ([]models.UserToken, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, display_name, email, access_token, refresh_token, token_expires_at,
			tracking_enabled, created_at, updated_at, last_tracked_at
		 FROM user_tokens WHERE tracking_enabled ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracked listeners: %w", err)
	}
	defer closeQuietly(rows)

	out := make([]models.UserToken, 0)
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// UpdateAccessToken replaces a listener's access token after a refresh. An
// empty refreshToken keeps the stored one, since providers do not always
// rotate it.
func (db *DB) UpdateAccessToken(ctx context.Context, userID, accessToken, refreshToken string, expiresAt time.Time) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	query := `UPDATE user_tokens SET access_token = ?, token_expires_at = ?, updated_at = ?`
	args := []interface{}{accessToken, expiresAt.UTC(), time.Now().UTC()}
	if refreshToken != "" {
		query += `, refresh_token = ?`
		args = append(args, refreshToken)
	}
	query += ` WHERE user_id = ?`
	args = append(args, userID)

	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update access token: %w", err)
	}
	return requireRow(res)
}

// SetTrackingEnabled flips a listener's tracking preference.
func (db *DB) SetTrackingEnabled(ctx context.Context, userID string, enabled bool) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE user_tokens SET tracking_enabled = ?, updated_at = ? WHERE user_id = ?`,
		enabled, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update tracking preference: %w", err)
	}
	return requireRow(res)
}

// TouchLastTracked records when the poller last sampled a listener.
func (db *DB) TouchLastTracked(ctx context.Context, userID string, at time.Time) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE user_tokens SET last_tracked_at = ? WHERE user_id = ?`,
		at.UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update last tracked time: %w", err)
	}
	return requireRow(res)
}

// DeleteToken removes a listener's credentials entirely.
func (db *DB) DeleteToken(ctx context.Context, userID string) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM user_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user token: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrTokenNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanToken(row rowScanner) (*models.UserToken, error) {
	var t models.UserToken
	var lastTracked sql.NullTime
	err := row.Scan(&t.UserID, &t.DisplayName, &t.Email, &t.AccessToken, &t.RefreshToken,
		&t.TokenExpiresAt, &t.TrackingEnabled, &t.CreatedAt, &t.UpdatedAt, &lastTracked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user token: %w", err)
	}
	t.TokenExpiresAt = t.TokenExpiresAt.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	if lastTracked.Valid {
		at := lastTracked.Time.UTC()
		t.LastTrackedAt = &at
	}
	return &t, nil
}
