// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

// Package models defines the shared data structures for Soundtrail: play
// events, listening summaries, temporal analytics, monthly snapshots, and the
// standard API response envelope.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Play is one recorded instance of a listener playing a track.
//
// Plays are immutable facts: they are created only by the ingestion gate,
// never mutated, and never deleted by the analytics engines. The UserID is an
// opaque listener identity resolved by the authentication layer; TrackID is
// provider-scoped.
type Play struct {
	ID         uuid.UUID `json:"id"`
	UserID     string    `json:"user_id"`
	TrackID    string    `json:"track_id"`
	TrackName  string    `json:"track_name"`
	ArtistName string    `json:"artist_name"`
	AlbumName  string    `json:"album_name"`
	DurationMS int64     `json:"duration_ms"`
	PlayedAt   time.Time `json:"played_at"`
}

// RecordOutcome reports the result of an ingestion attempt.
//
// A duplicate rejection is a successful call with Recorded=false and
// Reason="duplicate" - it is distinguishable from a validation failure, which
// never reaches the ingestion gate and is reported as a VALIDATION_ERROR.
type RecordOutcome struct {
	ID       *uuid.UUID `json:"id,omitempty"`
	Recorded bool       `json:"recorded"`
	Reason   string     `json:"reason,omitempty"`
	Message  string     `json:"message"`
}

// Reason codes for RecordOutcome.
const (
	// ReasonDuplicate marks a play rejected by the 3-minute dedup window.
	ReasonDuplicate = "duplicate"
)

// History is a timestamp-descending page of plays.
type History struct {
	Items  []Play `json:"items"`
	Total  int64  `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}
