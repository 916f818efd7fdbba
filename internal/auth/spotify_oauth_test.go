// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/soundtrail/soundtrail/internal/cache"
)

func newTestOAuthClient(t *testing.T, tokenURL string) *SpotifyOAuthClient {
	t.Helper()
	c := NewSpotifyOAuthClient("client-id", "client-secret",
		"http://localhost:8080/api/v1/auth/callback", cache.New(time.Minute), time.Minute)
	c.SetEndpoints("", tokenURL)
	return c
}

func TestBeginFlow(t *testing.T) {
	c := newTestOAuthClient(t, "")

	authorizeURL, state, err := c.BeginFlow()
	if err != nil {
		t.Fatalf("BeginFlow: %v", err)
	}
	if state == "" {
		t.Fatal("state should not be empty")
	}

	u, err := url.Parse(authorizeURL)
	if err != nil {
		t.Fatalf("failed to parse authorize URL: %v", err)
	}
	q := u.Query()
	if q.Get("client_id") != "client-id" {
		t.Errorf("client_id = %q, want client-id", q.Get("client_id"))
	}
	if q.Get("response_type") != "code" {
		t.Errorf("response_type = %q, want code", q.Get("response_type"))
	}
	if q.Get("state") != state {
		t.Errorf("state param = %q, want %q", q.Get("state"), state)
	}
	if !strings.Contains(q.Get("scope"), "user-read-recently-played") {
		t.Errorf("scope %q missing user-read-recently-played", q.Get("scope"))
	}
}

func TestCompleteFlow(t *testing.T) {
	var gotGrant, gotCode string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		gotGrant = r.PostFormValue("grant_type")
		gotCode = r.PostFormValue("code")
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client-id" || pass != "client-secret" {
			t.Errorf("basic auth = %q/%q/%v, want client credentials", user, pass, ok)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600,"refresh_token":"rt","scope":"user-read-recently-played"}`))
	}))
	defer server.Close()

	c := newTestOAuthClient(t, server.URL)

	_, state, err := c.BeginFlow()
	if err != nil {
		t.Fatalf("BeginFlow: %v", err)
	}

	token, err := c.CompleteFlow(context.Background(), "auth-code", state)
	if err != nil {
		t.Fatalf("CompleteFlow: %v", err)
	}
	if gotGrant != "authorization_code" || gotCode != "auth-code" {
		t.Errorf("token request = %q/%q, want authorization_code/auth-code", gotGrant, gotCode)
	}
	if token.AccessToken != "at" || token.RefreshToken != "rt" {
		t.Errorf("token = %q/%q, want at/rt", token.AccessToken, token.RefreshToken)
	}
	if token.ExpiresAt <= time.Now().Unix() {
		t.Error("ExpiresAt should be in the future")
	}

	t.Run("state cannot be replayed", func(t *testing.T) {
		if _, err := c.CompleteFlow(context.Background(), "auth-code", state); err == nil {
			t.Error("second CompleteFlow with the same state should fail")
		}
	})

	t.Run("unknown state is rejected", func(t *testing.T) {
		if _, err := c.CompleteFlow(context.Background(), "auth-code", "bogus"); err == nil {
			t.Error("unknown state should fail")
		}
	})
}

func TestRefreshToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		if r.PostFormValue("grant_type") != "refresh_token" {
			t.Errorf("grant_type = %q, want refresh_token", r.PostFormValue("grant_type"))
		}
		w.Header().Set("Content-Type", "application/json")
		// Spotify often omits refresh_token on refresh.
		_, _ = w.Write([]byte(`{"access_token":"new-at","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	c := newTestOAuthClient(t, server.URL)

	token, err := c.RefreshToken(context.Background(), "old-rt")
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if token.AccessToken != "new-at" {
		t.Errorf("AccessToken = %q, want new-at", token.AccessToken)
	}
	if token.RefreshToken != "" {
		t.Errorf("RefreshToken = %q, want empty when not rotated", token.RefreshToken)
	}
}

func TestRequestTokenErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	c := newTestOAuthClient(t, server.URL)
	if _, err := c.RefreshToken(context.Background(), "bad"); err == nil {
		t.Error("non-200 token response should fail")
	}
}
