// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/soundtrail/soundtrail/internal/cache"
	"github.com/soundtrail/soundtrail/internal/config"
	"github.com/soundtrail/soundtrail/internal/models"
)

// fakePlayStore is an in-memory PlayStore that mimics the dedup semantics of
// the real database and records which queries were made.
type fakePlayStore struct {
	plays []models.Play

	listCalls    int
	lastStart    time.Time
	lastEnd      time.Time
	priorBefore  time.Time
	sumStart     time.Time
	sumEnd       time.Time
	sumResult    int64
	priorArtists map[string]struct{}
	firstPlays   map[string]time.Time
}

func (f *fakePlayStore) RecordPlay(_ context.Context, p models.Play, dedupSince time.Time) (bool, uuid.UUID, error) {
	for _, existing := range f.plays {
		if existing.UserID == p.UserID && existing.TrackID == p.TrackID && !existing.PlayedAt.Before(dedupSince) {
			return false, uuid.Nil, nil
		}
	}
	p.ID = uuid.New()
	f.plays = append(f.plays, p)
	return true, p.ID, nil
}

func (f *fakePlayStore) ListPlays(_ context.Context, userID string, start, end time.Time) ([]models.Play, error) {
	f.listCalls++
	f.lastStart = start
	f.lastEnd = end
	var out []models.Play
	for _, p := range f.plays {
		if p.UserID != userID {
			continue
		}
		if !start.IsZero() && p.PlayedAt.Before(start) {
			continue
		}
		if !p.PlayedAt.Before(end) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePlayStore) HistoryPage(ctx context.Context, userID string, start, end time.Time, limit, offset int) ([]models.Play, int64, error) {
	all, err := f.ListPlays(ctx, userID, start, end)
	if err != nil {
		return nil, 0, err
	}
	total := int64(len(all))
	if offset >= len(all) {
		return []models.Play{}, total, nil
	}
	page := all[offset:]
	if len(page) > limit {
		page = page[:limit]
	}
	return page, total, nil
}

func (f *fakePlayStore) SumDuration(_ context.Context, _ string, start, end time.Time) (int64, error) {
	f.sumStart = start
	f.sumEnd = end
	return f.sumResult, nil
}

func (f *fakePlayStore) ArtistsPlayedBefore(_ context.Context, _ string, before time.Time) (map[string]struct{}, error) {
	f.priorBefore = before
	if f.priorArtists == nil {
		return map[string]struct{}{}, nil
	}
	return f.priorArtists, nil
}

func (f *fakePlayStore) TrackFirstPlays(_ context.Context, _ string) (map[string]time.Time, error) {
	if f.firstPlays == nil {
		return map[string]time.Time{}, nil
	}
	return f.firstPlays, nil
}

func testConfig() *config.TrackerConfig {
	return &config.TrackerConfig{
		Enabled:             true,
		PollInterval:        30 * time.Second,
		DedupWindow:         3 * time.Minute,
		RecentlyPlayedLimit: 20,
	}
}

func newTestService(store *fakePlayStore, now time.Time) *Service {
	svc := NewService(store, testConfig(), nil)
	svc.SetClock(func() time.Time { return now })
	return svc
}

func TestRecordStampsMissingTimestamp(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	store := &fakePlayStore{}
	svc := newTestService(store, now)

	outcome, err := svc.Record(context.Background(), "api", models.Play{
		UserID:     "alice",
		TrackID:    "track:1",
		TrackName:  "One",
		ArtistName: "Artist",
		DurationMS: 200000,
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if !outcome.Recorded {
		t.Fatalf("Record() recorded = false, want true")
	}
	if outcome.ID == nil {
		t.Fatal("Record() outcome.ID = nil, want assigned id")
	}
	if got := store.plays[0].PlayedAt; !got.Equal(now) {
		t.Errorf("stored PlayedAt = %v, want %v", got, now)
	}
}

func TestRecordDuplicateWithinWindow(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	store := &fakePlayStore{}
	svc := newTestService(store, now)

	base := models.Play{
		UserID:     "alice",
		TrackID:    "track:1",
		TrackName:  "One",
		ArtistName: "Artist",
		DurationMS: 200000,
		PlayedAt:   now.Add(-90 * time.Second),
	}
	if _, err := svc.Record(context.Background(), "api", base); err != nil {
		t.Fatalf("Record() first error = %v", err)
	}

	dup := base
	dup.PlayedAt = now
	outcome, err := svc.Record(context.Background(), "api", dup)
	if err != nil {
		t.Fatalf("Record() duplicate error = %v", err)
	}
	if outcome.Recorded {
		t.Error("duplicate within window was recorded")
	}
	if outcome.Reason != models.ReasonDuplicate {
		t.Errorf("Reason = %q, want %q", outcome.Reason, models.ReasonDuplicate)
	}
	if len(store.plays) != 1 {
		t.Errorf("stored plays = %d, want 1", len(store.plays))
	}
}

func TestStatsWindowAndCaching(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	store := &fakePlayStore{}
	store.plays = []models.Play{
		{UserID: "alice", TrackID: "track:1", TrackName: "One", ArtistName: "Artist", AlbumName: "Album", DurationMS: 180000, PlayedAt: now.Add(-2 * time.Hour)},
		{UserID: "alice", TrackID: "track:2", TrackName: "Two", ArtistName: "Artist", AlbumName: "Album", DurationMS: 240000, PlayedAt: now.Add(-26 * time.Hour)},
	}
	svc := NewService(store, testConfig(), cache.New(time.Minute))
	svc.SetClock(func() time.Time { return now })

	summary, err := svc.Stats(context.Background(), "alice", 1)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if summary.TotalPlays != 1 {
		t.Errorf("TotalPlays = %d, want 1 (play outside window excluded)", summary.TotalPlays)
	}
	wantStart := now.Add(-24 * time.Hour)
	if !store.lastStart.Equal(wantStart) {
		t.Errorf("window start = %v, want %v", store.lastStart, wantStart)
	}

	if _, err := svc.Stats(context.Background(), "alice", 1); err != nil {
		t.Fatalf("Stats() cached call error = %v", err)
	}
	if store.listCalls != 1 {
		t.Errorf("store queried %d times, want 1 (second call served from cache)", store.listCalls)
	}
}

func TestStatsNegativeDays(t *testing.T) {
	svc := newTestService(&fakePlayStore{}, time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC))
	if _, err := svc.Stats(context.Background(), "alice", -7); err == nil {
		t.Error("Stats(-7) error = nil, want validation error")
	}
}

func TestHistoryPaging(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	store := &fakePlayStore{}
	for i := 0; i < 5; i++ {
		store.plays = append(store.plays, models.Play{
			UserID:   "alice",
			TrackID:  "track:1",
			PlayedAt: now.Add(-time.Duration(i+1) * time.Hour),
		})
	}
	svc := newTestService(store, now)

	history, err := svc.History(context.Background(), "alice", 0, 2, 1)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if history.Total != 5 {
		t.Errorf("Total = %d, want 5", history.Total)
	}
	if len(history.Items) != 2 {
		t.Errorf("len(Items) = %d, want 2", len(history.Items))
	}
	if history.Limit != 2 || history.Offset != 1 {
		t.Errorf("Limit/Offset = %d/%d, want 2/1", history.Limit, history.Offset)
	}
}

func TestAdvancedBoundedAssemblesInputs(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	store := &fakePlayStore{
		sumResult: 600000,
		priorArtists: map[string]struct{}{
			"Old Favorite": {},
		},
	}
	store.plays = []models.Play{
		{UserID: "alice", TrackID: "track:1", TrackName: "One", ArtistName: "New Artist", DurationMS: 300000, PlayedAt: now.Add(-3 * time.Hour)},
		{UserID: "alice", TrackID: "track:2", TrackName: "Two", ArtistName: "Old Favorite", DurationMS: 300000, PlayedAt: now.Add(-2 * time.Hour)},
	}
	svc := newTestService(store, now)

	result, err := svc.Advanced(context.Background(), "alice", 7)
	if err != nil {
		t.Fatalf("Advanced() error = %v", err)
	}

	windowStart := now.Add(-7 * 24 * time.Hour)
	if !store.priorBefore.Equal(windowStart) {
		t.Errorf("prior artists cutoff = %v, want window start %v", store.priorBefore, windowStart)
	}
	wantPrevStart := windowStart.Add(-7 * 24 * time.Hour)
	if !store.sumStart.Equal(wantPrevStart) || !store.sumEnd.Equal(windowStart) {
		t.Errorf("previous period = [%v, %v), want [%v, %v)", store.sumStart, store.sumEnd, wantPrevStart, windowStart)
	}

	if len(result.NewArtists) != 1 || result.NewArtists[0].ArtistName != "New Artist" {
		t.Errorf("NewArtists = %+v, want only New Artist", result.NewArtists)
	}
	if result.Trend.PreviousMS != 600000 {
		t.Errorf("Trend.PreviousMS = %d, want 600000", result.Trend.PreviousMS)
	}
}

func TestAdvancedAllTimeSkipsAuxQueries(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	store := &fakePlayStore{sumResult: 999}
	store.plays = []models.Play{
		{UserID: "alice", TrackID: "track:1", TrackName: "One", ArtistName: "Artist", DurationMS: 300000, PlayedAt: now.Add(-time.Hour)},
	}
	svc := newTestService(store, now)

	result, err := svc.Advanced(context.Background(), "alice", 0)
	if err != nil {
		t.Fatalf("Advanced() error = %v", err)
	}
	if !store.sumStart.IsZero() {
		t.Error("SumDuration queried for an all-time window")
	}
	if result.Trend.PreviousMS != 0 {
		t.Errorf("Trend.PreviousMS = %d, want 0", result.Trend.PreviousMS)
	}
	if result.NewTracksCount != 1 {
		t.Errorf("NewTracksCount = %d, want 1 (all-time counts every distinct track)", result.NewTracksCount)
	}
}

func TestMonthlyClampsRange(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	store := &fakePlayStore{}
	svc := newTestService(store, now)

	for _, tc := range []struct {
		name   string
		months int
		want   int
	}{
		{"below minimum", 0, 1},
		{"normal", 6, 6},
		{"above maximum", 48, maxMonths},
	} {
		t.Run(tc.name, func(t *testing.T) {
			snapshots, err := svc.Monthly(context.Background(), "alice", tc.months)
			if err != nil {
				t.Fatalf("Monthly() error = %v", err)
			}
			if len(snapshots) != tc.want {
				t.Errorf("len(snapshots) = %d, want %d", len(snapshots), tc.want)
			}
		})
	}
}

func TestMonthlyScanCoversRange(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	store := &fakePlayStore{}
	svc := newTestService(store, now)

	if _, err := svc.Monthly(context.Background(), "alice", 3); err != nil {
		t.Fatalf("Monthly() error = %v", err)
	}
	wantStart := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	if !store.lastStart.Equal(wantStart) {
		t.Errorf("scan start = %v, want %v", store.lastStart, wantStart)
	}
}
