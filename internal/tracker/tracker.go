// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

// Package tracker is the service layer between the HTTP handlers, the
// background poller, and storage. It owns the ingestion gate and assembles
// the inputs for the pure analytics engines.
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soundtrail/soundtrail/internal/analytics"
	"github.com/soundtrail/soundtrail/internal/cache"
	"github.com/soundtrail/soundtrail/internal/config"
	"github.com/soundtrail/soundtrail/internal/logging"
	"github.com/soundtrail/soundtrail/internal/metrics"
	"github.com/soundtrail/soundtrail/internal/models"
)

// PlayStore is the slice of the database the tracker needs for plays.
type PlayStore interface {
	RecordPlay(ctx context.Context, p models.Play, dedupSince time.Time) (bool, uuid.UUID, error)
	ListPlays(ctx context.Context, userID string, start, end time.Time) ([]models.Play, error)
	HistoryPage(ctx context.Context, userID string, start, end time.Time, limit, offset int) ([]models.Play, int64, error)
	SumDuration(ctx context.Context, userID string, start, end time.Time) (int64, error)
	ArtistsPlayedBefore(ctx context.Context, userID string, before time.Time) (map[string]struct{}, error)
	TrackFirstPlays(ctx context.Context, userID string) (map[string]time.Time, error)
}

// maxMonths bounds the monthly comparison range.
const maxMonths = 24

// analyticsCacheTTL bounds how stale a cached stats or analytics response
// may get when the cache clear on ingest is missed.
const analyticsCacheTTL = 5 * time.Minute

// Service implements the listening history operations: the ingestion gate,
// windowed summaries, paged history, temporal analytics, and monthly
// comparison.
//
// The clock is injected so every derived quantity (windows, streaks, daily
// buckets) is reproducible in tests.
type Service struct {
	plays PlayStore
	cfg   *config.TrackerConfig
	cache *cache.Cache
	now   func() time.Time
}

// NewService builds the tracker service. The cache may be nil to disable
// response caching.
func NewService(plays PlayStore, cfg *config.TrackerConfig, c *cache.Cache) *Service {
	return &Service{
		plays: plays,
		cfg:   cfg,
		cache: c,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the service clock. Tests use this to pin "now".
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Record passes one play through the ingestion gate. A play with a zero
// timestamp is stamped with the current time. Duplicate submissions inside
// the dedup window are reported as a non-error outcome so callers can
// distinguish them from failures.
func (s *Service) Record(ctx context.Context, source string, p models.Play) (models.RecordOutcome, error) {
	now := s.now()
	if p.PlayedAt.IsZero() {
		p.PlayedAt = now
	}
	dedupSince := now.Add(-s.cfg.DedupWindow)

	recorded, id, err := s.plays.RecordPlay(ctx, p, dedupSince)
	if err != nil {
		return models.RecordOutcome{}, fmt.Errorf("failed to record play: %w", err)
	}
	metrics.RecordPlayOutcome(source, recorded)

	if !recorded {
		logging.Debug().
			Str("user_id", p.UserID).
			Str("track_id", p.TrackID).
			Msg("Play rejected as duplicate")
		return models.RecordOutcome{
			Recorded: false,
			Reason:   models.ReasonDuplicate,
			Message:  "play ignored: same track recorded within the dedup window",
		}, nil
	}

	// Results derived from this listener's plays are stale now. The cache
	// is small and short-lived, so a full clear is acceptable.
	if s.cache != nil {
		s.cache.Clear()
	}

	logging.Debug().
		Str("user_id", p.UserID).
		Str("track_id", p.TrackID).
		Str("play_id", id.String()).
		Msg("Play recorded")
	return models.RecordOutcome{
		ID:       &id,
		Recorded: true,
		Message:  "play recorded",
	}, nil
}

// Stats aggregates a listener's plays over the requested window. days == 0
// means all-time; negative days are a validation error.
func (s *Service) Stats(ctx context.Context, userID string, days int) (*models.Summary, error) {
	now := s.now()
	w, err := analytics.ResolveWindow(days, now)
	if err != nil {
		return nil, err
	}

	type key struct {
		UserID string
		Days   int
	}
	cacheKey := cache.GenerateKey("stats", key{userID, days})
	if s.cache != nil {
		if cached, ok := s.cache.Get(cacheKey); ok {
			metrics.AnalyticsCacheHits.Inc()
			return cached.(*models.Summary), nil
		}
		metrics.AnalyticsCacheMisses.Inc()
	}

	events, err := s.plays.ListPlays(ctx, userID, w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("failed to load plays: %w", err)
	}

	summary := analytics.Summarize(events, days, now)
	if s.cache != nil {
		s.cache.SetWithTTL(cacheKey, &summary, analyticsCacheTTL)
	}
	return &summary, nil
}

// History returns one timestamp-descending page of a listener's plays in
// the requested window.
func (s *Service) History(ctx context.Context, userID string, days, limit, offset int) (*models.History, error) {
	w, err := analytics.ResolveWindow(days, s.now())
	if err != nil {
		return nil, err
	}

	items, total, err := s.plays.HistoryPage(ctx, userID, w.Start, w.End, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to load play history: %w", err)
	}
	return &models.History{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

// Advanced runs the full temporal analysis over the requested window,
// assembling the auxiliary inputs (prior artists, first plays, previous
// period total) from storage.
func (s *Service) Advanced(ctx context.Context, userID string, days int) (*models.AdvancedAnalytics, error) {
	now := s.now()
	w, err := analytics.ResolveWindow(days, now)
	if err != nil {
		return nil, err
	}

	type key struct {
		UserID string
		Days   int
	}
	cacheKey := cache.GenerateKey("advanced", key{userID, days})
	if s.cache != nil {
		if cached, ok := s.cache.Get(cacheKey); ok {
			metrics.AnalyticsCacheHits.Inc()
			return cached.(*models.AdvancedAnalytics), nil
		}
		metrics.AnalyticsCacheMisses.Inc()
	}

	events, err := s.plays.ListPlays(ctx, userID, w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("failed to load plays: %w", err)
	}

	in := analytics.Input{Events: events}
	if w.Bounded() {
		// Discovery needs everything the listener played before the
		// window; the trend needs the preceding period's total.
		in.PriorArtists, err = s.plays.ArtistsPlayedBefore(ctx, userID, w.Start)
		if err != nil {
			return nil, fmt.Errorf("failed to load prior artists: %w", err)
		}
		prevStart := w.Start.Add(-time.Duration(days) * 24 * time.Hour)
		in.PrevPeriodDurationMS, err = s.plays.SumDuration(ctx, userID, prevStart, w.Start)
		if err != nil {
			return nil, fmt.Errorf("failed to load previous period total: %w", err)
		}
		in.TrackFirstPlays, err = s.plays.TrackFirstPlays(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load first plays: %w", err)
		}
	}

	result := analytics.Analyze(in, days, now)
	if s.cache != nil {
		s.cache.SetWithTTL(cacheKey, &result, analyticsCacheTTL)
	}
	return &result, nil
}

// Monthly compares the last months calendar months, newest first. months is
// clamped to [1, 24].
func (s *Service) Monthly(ctx context.Context, userID string, months int) ([]models.MonthlySnapshot, error) {
	if months < 1 {
		months = 1
	}
	if months > maxMonths {
		months = maxMonths
	}
	now := s.now()

	// One scan covers every month in the range.
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	events, err := s.plays.ListPlays(ctx, userID, first, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load plays: %w", err)
	}
	return analytics.CompareMonths(events, months, now), nil
}
