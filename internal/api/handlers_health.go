// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/soundtrail/soundtrail/internal/logging"
)

// Health handles GET /health. The database check runs with a short deadline
// so a wedged storage layer cannot hang the probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	dbStatus := "up"
	code := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		logging.Err(err).Msg("Health check: database unreachable")
		status = "unhealthy"
		dbStatus = "down"
		code = http.StatusServiceUnavailable
	}

	respond(w, r, code, map[string]string{
		"status":   status,
		"database": dbStatus,
		"version":  apiVersion,
	})
}
