// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/soundtrail/soundtrail/internal/cache"
)

// Scopes requested from Spotify. Listening history requires the playback
// read scopes; profile scopes identify the listener after login.
var spotifyScopes = []string{
	"user-read-private",
	"user-read-email",
	"user-top-read",
	"user-read-currently-playing",
	"user-read-recently-played",
}

// SpotifyOAuthClient implements the OAuth 2.0 authorization code flow
// against the Spotify Accounts service.
//
// Flow:
//  1. BeginFlow stores a one-shot state nonce and returns the authorization URL
//  2. The listener authorizes and Spotify redirects back with code + state
//  3. CompleteFlow verifies the state and exchanges the code for tokens
//  4. RefreshToken obtains new access tokens as they expire
type SpotifyOAuthClient struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	httpClient   *http.Client

	states   *cache.Cache
	stateTTL time.Duration

	authURL  string
	tokenURL string
}

// SpotifyToken is the token response from the Spotify Accounts service.
type SpotifyToken struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
	ExpiresAt    int64  `json:"expires_at"`
}

// NewSpotifyOAuthClient creates an OAuth client with the default Spotify
// endpoints. State nonces live in the given cache for stateTTL; an unused
// nonce simply expires.
func NewSpotifyOAuthClient(clientID, clientSecret, redirectURI string, states *cache.Cache, stateTTL time.Duration) *SpotifyOAuthClient {
	return &SpotifyOAuthClient{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  redirectURI,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		states:   states,
		stateTTL: stateTTL,
		authURL:  "https://accounts.spotify.com/authorize",
		tokenURL: "https://accounts.spotify.com/api/token",
	}
}

// BeginFlow generates a CSRF state nonce, stores it, and returns the
// authorization URL to redirect the listener to.
func (c *SpotifyOAuthClient) BeginFlow() (authorizeURL, state string, err error) {
	stateBytes := make([]byte, 32)
	if _, err := rand.Read(stateBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate state: %w", err)
	}
	state = base64.RawURLEncoding.EncodeToString(stateBytes)
	c.states.SetWithTTL("oauth_state:"+state, true, c.stateTTL)

	params := url.Values{}
	params.Set("client_id", c.ClientID)
	params.Set("response_type", "code")
	params.Set("redirect_uri", c.RedirectURI)
	params.Set("state", state)
	params.Set("scope", strings.Join(spotifyScopes, " "))

	return c.authURL + "?" + params.Encode(), state, nil
}

// CompleteFlow verifies the callback state and exchanges the authorization
// code for tokens. The state is consumed on first use, so replaying a
// callback fails.
func (c *SpotifyOAuthClient) CompleteFlow(ctx context.Context, code, state string) (*SpotifyToken, error) {
	if _, ok := c.states.Take("oauth_state:" + state); !ok {
		return nil, fmt.Errorf("unknown or expired oauth state")
	}

	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", c.RedirectURI)

	return c.requestToken(ctx, data)
}

// RefreshToken obtains a new access token from a refresh token. Spotify may
// or may not rotate the refresh token; callers keep the old one when the
// response omits it.
func (c *SpotifyOAuthClient) RefreshToken(ctx context.Context, refreshToken string) (*SpotifyToken, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	return c.requestToken(ctx, data)
}

func (c *SpotifyOAuthClient) requestToken(ctx context.Context, data url.Values) (*SpotifyToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.ClientID, c.ClientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var token SpotifyToken
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	token.ExpiresAt = time.Now().Unix() + int64(token.ExpiresIn)
	return &token, nil
}

// ExpiresAtTime returns the token expiry as a time.Time.
func (t *SpotifyToken) ExpiresAtTime() time.Time {
	return time.Unix(t.ExpiresAt, 0).UTC()
}

// SetEndpoints overrides the authorization and token URLs. Used in tests
// with mock servers; an empty string keeps the current value.
func (c *SpotifyOAuthClient) SetEndpoints(authURL, tokenURL string) {
	if authURL != "" {
		c.authURL = authURL
	}
	if tokenURL != "" {
		c.tokenURL = tokenURL
	}
}
