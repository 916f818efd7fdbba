// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soundtrail/soundtrail/internal/logging"
	"github.com/soundtrail/soundtrail/internal/metrics"
	"github.com/soundtrail/soundtrail/internal/models"
)

// RecordPlay inserts a play unless the same listener and track already have
// a play at or after dedupSince. The duplicate check and the insert run in
// one transaction so concurrent submissions of the same play cannot both
// land.
func (db *DB) RecordPlay(ctx context.Context, p models.Play, dedupSince time.Time) (bool, uuid.UUID, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer metrics.ObserveDBQuery("record_play", time.Now())

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			logging.Debug().Err(err).Msg("Transaction rollback failed")
		}
	}()

	var recent int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM plays
		 WHERE user_id = ? AND track_id = ? AND played_at >= ?`,
		p.UserID, p.TrackID, dedupSince.UTC(),
	).Scan(&recent)
	if err != nil {
		return false, uuid.Nil, fmt.Errorf("failed to check for duplicate play: %w", err)
	}
	if recent > 0 {
		return false, uuid.Nil, nil
	}

	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO plays (id, user_id, track_id, track_name, artist_name, album_name, duration_ms, played_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), p.UserID, p.TrackID, p.TrackName, p.ArtistName, p.AlbumName, p.DurationMS, p.PlayedAt.UTC(),
	)
	if err != nil {
		return false, uuid.Nil, fmt.Errorf("failed to insert play: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, uuid.Nil, fmt.Errorf("failed to commit play: %w", err)
	}
	return true, id, nil
}

// ListPlays returns a listener's plays in [start, end) ordered by played_at
// ascending. A zero start means no lower bound.
func (db *DB) ListPlays(ctx context.Context, userID string, start, end time.Time) ([]models.Play, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer metrics.ObserveDBQuery("list_plays", time.Now())

	query := `SELECT id, user_id, track_id, track_name, artist_name, album_name, duration_ms, played_at
		FROM plays WHERE user_id = ? AND played_at < ?`
	args := []interface{}{userID, end.UTC()}
	if !start.IsZero() {
		query += ` AND played_at >= ?`
		args = append(args, start.UTC())
	}
	query += ` ORDER BY played_at ASC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plays: %w", err)
	}
	defer closeQuietly(rows)

	return scanPlays(rows)
}

// HistoryPage returns one timestamp-descending page of a listener's plays in
// [start, end) plus the total count for the range.
func (db *DB) HistoryPage(ctx context.Context, userID string, start, end time.Time, limit, offset int) ([]models.Play, int64, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer metrics.ObserveDBQuery("history_page", time.Now())

	where := `WHERE user_id = ? AND played_at < ?`
	args := []interface{}{userID, end.UTC()}
	if !start.IsZero() {
		where += ` AND played_at >= ?`
		args = append(args, start.UTC())
	}

	var total int64
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM plays `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count plays: %w", err)
	}

	query := `SELECT id, user_id, track_id, track_name, artist_name, album_name, duration_ms, played_at
		FROM plays ` + where + ` ORDER BY played_at DESC LIMIT ? OFFSET ?`
	rows, err := db.conn.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query play history: %w", err)
	}
	defer closeQuietly(rows)

	items, err := scanPlays(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// SumDuration totals a listener's listening time in [start, end).
func (db *DB) SumDuration(ctx context.Context, userID string, start, end time.Time) (int64, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer metrics.ObserveDBQuery("sum_duration", time.Now())

	stmt, err := db.getStmt(ctx,
		`SELECT SUM(duration_ms) FROM plays
		 WHERE user_id = ? AND played_at >= ? AND played_at < ?`)
	if err != nil {
		return 0, err
	}

	var total sql.NullInt64
	err = stmt.QueryRowContext(ctx, userID, start.UTC(), end.UTC()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum play durations: %w", err)
	}
	return total.Int64, nil
}

// ArtistsPlayedBefore returns the set of artists a listener played strictly
// before the cutoff.
func (db *DB) ArtistsPlayedBefore(ctx context.Context, userID string, before time.Time) (map[string]struct{}, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer metrics.ObserveDBQuery("artists_played_before", time.Now())

	stmt, err := db.getStmt(ctx,
		`SELECT DISTINCT artist_name FROM plays
		 WHERE user_id = ? AND played_at < ?`)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, userID, before.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query prior artists: %w", err)
	}
	defer closeQuietly(rows)

	out := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan artist: %w", err)
		}
		out[name] = struct{}{}
	}
	return out, rows.Err()
}

// TrackFirstPlays maps each of a listener's tracks to the timestamp of its
// first-ever play.
func (db *DB) TrackFirstPlays(ctx context.Context, userID string) (map[string]time.Time, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer metrics.ObserveDBQuery("track_first_plays", time.Now())

	stmt, err := db.getStmt(ctx,
		`SELECT track_id, MIN(played_at) FROM plays
		 WHERE user_id = ? GROUP BY track_id`)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query first plays: %w", err)
	}
	defer closeQuietly(rows)

	out := make(map[string]time.Time)
	for rows.Next() {
		var id string
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return nil, fmt.Errorf("failed to scan first play: %w", err)
		}
		out[id] = at.UTC()
	}
	return out, rows.Err()
}

func scanPlays(rows *sql.Rows) ([]models.Play, error) {
	out := make([]models.Play, 0)
	for rows.Next() {
		var p models.Play
		var rawID string
		if err := rows.Scan(&rawID, &p.UserID, &p.TrackID, &p.TrackName, &p.ArtistName,
			&p.AlbumName, &p.DurationMS, &p.PlayedAt); err != nil {
			return nil, fmt.Errorf("failed to scan play: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("failed to parse play id %q: %w", rawID, err)
		}
		p.ID = id
		p.PlayedAt = p.PlayedAt.UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}
