// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/soundtrail/soundtrail/internal/logging"
	"github.com/soundtrail/soundtrail/internal/models"
	"github.com/soundtrail/soundtrail/internal/validation"
)

// apiVersion is reported in every response envelope.
const apiVersion = "1.0.0"

// maxRequestBody caps request bodies. Play submissions are tiny; anything
// larger is abuse.
const maxRequestBody = 1 << 20

func respond(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeEnvelope(w, r, status, models.APIResponse{
		Status: "success",
		Data:   data,
	})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeEnvelope(w, r, status, models.APIResponse{
		Status: "error",
		Error:  &models.APIError{Code: code, Message: message},
	})
}

// respondValidationError maps a failed struct validation onto the envelope,
// keeping the translated per-field message.
func respondValidationError(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	writeEnvelope(w, r, http.StatusBadRequest, models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    models.ErrCodeValidation,
			Message: apiErr.Message,
		},
	})
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, resp models.APIResponse) {
	resp.Metadata = &models.Metadata{
		Timestamp: time.Now().UTC(),
		Version:   apiVersion,
		RequestID: chimiddleware.GetReqID(r.Context()),
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Err(err).Msg("Failed to encode response")
	}
}

// decodeAndValidate reads the JSON body into dst and runs struct validation.
// It writes the error response itself and reports whether the handler should
// continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := io.LimitReader(r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "invalid JSON body")
		return false
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		respondValidationError(w, r, verr)
		return false
	}
	return true
}

// queryInt parses an optional integer query parameter. A missing or empty
// parameter yields the default; a malformed one is an error.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return v, nil
}
