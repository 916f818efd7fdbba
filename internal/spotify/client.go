// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

// Package spotify is the client for the Spotify Web API playback and profile
// endpoints. All calls take the listener's access token explicitly; the
// client holds no per-listener state, so one instance serves every listener.
//
// Outbound traffic is rate limited client-side and wrapped in a circuit
// breaker so a degraded provider cannot pile up goroutines or hammer the API
// during an outage.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/soundtrail/soundtrail/internal/config"
	"github.com/soundtrail/soundtrail/internal/metrics"
)

// ErrUnauthorized signals an expired or revoked access token. Callers should
// refresh the token and retry once.
var ErrUnauthorized = errors.New("spotify: access token rejected")

// ErrRateLimited signals a provider-side 429 response.
var ErrRateLimited = errors.New("spotify: rate limited by provider")

const defaultBaseURL = "https://api.spotify.com/v1"

// Client calls the Spotify Web API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *breaker
	baseURL    string
}

// NewClient builds a client from the provider configuration.
func NewClient(cfg *config.SpotifyConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		breaker:    newBreaker("spotify-api"),
		baseURL:    defaultBaseURL,
	}
}

// SetBaseURL overrides the API base URL. Used in tests with mock servers.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// Me fetches the authenticated listener's profile.
func (c *Client) Me(ctx context.Context, accessToken string) (*Profile, error) {
	var out Profile
	if err := c.getJSON(ctx, accessToken, "/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCurrentlyPlaying fetches the listener's playback state. It returns
// (nil, nil) when nothing is playing, which the provider signals with 204.
func (c *Client) GetCurrentlyPlaying(ctx context.Context, accessToken string) (*CurrentlyPlaying, error) {
	var out CurrentlyPlaying
	found, err := c.getJSONOptional(ctx, accessToken, "/me/player/currently-playing", nil, &out)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &out, nil
}

// GetRecentlyPlayed fetches up to limit recently played tracks. A non-zero
// after restricts results to plays after that instant.
func (c *Client) GetRecentlyPlayed(ctx context.Context, accessToken string, limit int, after time.Time) ([]PlayHistoryItem, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if !after.IsZero() {
		params.Set("after", strconv.FormatInt(after.UnixMilli(), 10))
	}
	var out recentlyPlayedResponse
	if err := c.getJSON(ctx, accessToken, "/me/player/recently-played", params, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// GetTopArtists fetches the listener's top artists for a provider time range
// ("short_term", "medium_term", "long_term").
func (c *Client) GetTopArtists(ctx context.Context, accessToken, timeRange string, limit int) ([]Artist, error) {
	params := url.Values{}
	params.Set("time_range", timeRange)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var out topArtistsResponse
	if err := c.getJSON(ctx, accessToken, "/me/top/artists", params, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// GetTopTracks fetches the listener's top tracks for a provider time range.
func (c *Client) GetTopTracks(ctx context.Context, accessToken, timeRange string, limit int) ([]Track, error) {
	params := url.Values{}
	params.Set("time_range", timeRange)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var out topTracksResponse
	if err := c.getJSON(ctx, accessToken, "/me/top/tracks", params, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// GetTopAlbums derives the listener's top albums from their top tracks,
// since the provider exposes no albums endpoint. Albums are ranked by how
// many of the listener's top tracks they contain, ties kept in track order.
func (c *Client) GetTopAlbums(ctx context.Context, accessToken, timeRange string, limit int) ([]TopAlbum, error) {
	// Pull the full track list for better album coverage.
	tracks, err := c.GetTopTracks(ctx, accessToken, timeRange, 50)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	byID := make(map[string]TopAlbum)
	order := make([]string, 0, len(tracks))
	for i := range tracks {
		track := &tracks[i]
		id := track.Album.ID
		if id == "" {
			continue
		}
		if _, seen := counts[id]; !seen {
			order = append(order, id)
			byID[id] = TopAlbum{
				ID:         id,
				Name:       track.Album.Name,
				ArtistName: track.JoinedArtists(),
			}
		}
		counts[id]++
	}

	sort.SliceStable(order, func(a, b int) bool {
		return counts[order[a]] > counts[order[b]]
	})

	if limit <= 0 || limit > len(order) {
		limit = len(order)
	}
	out := make([]TopAlbum, 0, limit)
	for _, id := range order[:limit] {
		album := byID[id]
		album.TrackCountInTop = counts[id]
		out = append(out, album)
	}
	return out, nil
}

// getJSON performs a GET and decodes the response, treating 204 as an error
// since the caller expects a body.
func (c *Client) getJSON(ctx context.Context, accessToken, path string, params url.Values, out interface{}) error {
	found, err := c.getJSONOptional(ctx, accessToken, path, params, out)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("unexpected empty response from %s", path)
	}
	return nil
}

// getJSONOptional performs a GET and decodes the response. It returns
// found=false on 204 without touching out.
func (c *Client) getJSONOptional(ctx context.Context, accessToken, path string, params url.Values, out interface{}) (bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("rate limiter wait aborted: %w", err)
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	start := time.Now()
	result, err := c.breaker.execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request to %s failed: %w", path, err)
		}
		defer resp.Body.Close()

		metrics.RecordSpotifyRequest(path, strconv.Itoa(resp.StatusCode), time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
			if err != nil {
				return nil, fmt.Errorf("failed to read response from %s: %w", path, err)
			}
			return body, nil
		case http.StatusNoContent:
			return nil, nil
		case http.StatusUnauthorized:
			return nil, ErrUnauthorized
		case http.StatusTooManyRequests:
			return nil, ErrRateLimited
		default:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return nil, fmt.Errorf("request to %s failed with status %d: %s", path, resp.StatusCode, string(body))
		}
	})
	if err != nil {
		return false, err
	}
	if result == nil {
		return false, nil
	}

	if err := json.Unmarshal(result.([]byte), out); err != nil {
		return false, fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return true, nil
}
