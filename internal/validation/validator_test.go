// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package validation

import (
	"strings"
	"testing"
)

type sampleRequest struct {
	TrackID    string `validate:"required"`
	DurationMS int64  `validate:"min=0"`
	Days       int    `validate:"min=0,max=3650"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct passes", func(t *testing.T) {
		req := sampleRequest{TrackID: "track:1", DurationMS: 200000, Days: 30}
		if err := ValidateStruct(&req); err != nil {
			t.Errorf("ValidateStruct: %v", err)
		}
	})

	t.Run("missing required field", func(t *testing.T) {
		req := sampleRequest{DurationMS: 1000}
		err := ValidateStruct(&req)
		if err == nil {
			t.Fatal("expected validation error")
		}
		apiErr := err.ToAPIError()
		if apiErr.Code != "VALIDATION_ERROR" {
			t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
		}
		if !strings.Contains(apiErr.Message, "TrackID is required") {
			t.Errorf("Message = %q, want mention of TrackID", apiErr.Message)
		}
	})

	t.Run("multiple failures list every field", func(t *testing.T) {
		req := sampleRequest{DurationMS: -1, Days: -1}
		err := ValidateStruct(&req)
		if err == nil {
			t.Fatal("expected validation error")
		}
		if len(err.Errors()) != 3 {
			t.Errorf("len(Errors) = %d, want 3", len(err.Errors()))
		}
		apiErr := err.ToAPIError()
		if _, ok := apiErr.Details["fields"]; !ok {
			t.Error("multi-field error should carry a fields detail")
		}
	})

	t.Run("min max messages carry the bound", func(t *testing.T) {
		req := sampleRequest{TrackID: "x", Days: 10000}
		err := ValidateStruct(&req)
		if err == nil {
			t.Fatal("expected validation error")
		}
		if !strings.Contains(err.Error(), "at most 3650") {
			t.Errorf("error %q should mention the max bound", err.Error())
		}
	})
}
