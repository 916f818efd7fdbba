// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package models

import "time"

// UserToken holds a listener's delegated provider credentials and tracking
// preferences. One row exists per listener; tokens are refreshed in place.
type UserToken struct {
	UserID          string     `json:"user_id"`
	DisplayName     string     `json:"display_name"`
	Email           string     `json:"email"`
	AccessToken     string     `json:"-"`
	RefreshToken    string     `json:"-"`
	TokenExpiresAt  time.Time  `json:"token_expires_at"`
	TrackingEnabled bool       `json:"tracking_enabled"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	LastTrackedAt   *time.Time `json:"last_tracked_at,omitempty"`
}

// Expired reports whether the access token has passed its expiry, with a
// one-minute safety margin so a token is refreshed before it actually lapses.
func (t *UserToken) Expired(now time.Time) bool {
	return !now.Before(t.TokenExpiresAt.Add(-time.Minute))
}
