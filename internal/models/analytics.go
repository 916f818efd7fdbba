// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package models

import "time"

// DailyListening is one calendar day's listening totals. Date is formatted
// as YYYY-MM-DD in UTC. Days without plays are present with zero counts.
type DailyListening struct {
	Date        string `json:"date"`
	PlayCount   int    `json:"play_count"`
	TotalTimeMS int64  `json:"total_time_ms"`
}

// HourlyBucket is the listening total for one hour of the day (0-23).
// Percentage is the bucket's share of the window's plays, rounded to one
// decimal place.
type HourlyBucket struct {
	Hour        int     `json:"hour"`
	PlayCount   int     `json:"play_count"`
	TotalTimeMS int64   `json:"total_time_ms"`
	Percentage  float64 `json:"percentage"`
}

// WeekdayBucket is the listening total for one day of the week. Weekday uses
// ISO numbering with Monday=0 through Sunday=6.
type WeekdayBucket struct {
	Weekday     int     `json:"weekday"`
	Name        string  `json:"name"`
	PlayCount   int     `json:"play_count"`
	TotalTimeMS int64   `json:"total_time_ms"`
	Percentage  float64 `json:"percentage"`
}

// StreakInfo reports consecutive-day listening runs. CurrentStreak is zero
// unless the listener has at least one play today.
type StreakInfo struct {
	CurrentStreak int `json:"current_streak"`
	LongestStreak int `json:"longest_streak"`
}

// ListeningTrend compares the window's total listening time against the
// immediately preceding period of equal length. Direction is "up", "down",
// or "stable".
type ListeningTrend struct {
	CurrentMS        int64   `json:"current_ms"`
	PreviousMS       int64   `json:"previous_ms"`
	ChangePercentage float64 `json:"change_percentage"`
	Direction        string  `json:"direction"`
}

// Trend direction values.
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

// ArtistDiscovery is an artist first encountered inside the window, with the
// listener having no plays of that artist before the window started.
type ArtistDiscovery struct {
	ArtistName  string    `json:"artist_name"`
	FirstListen time.Time `json:"first_listen"`
	PlayCount   int       `json:"play_count"`
	TotalTimeMS int64     `json:"total_time_ms"`
}

// FunStats carries the novelty aggregates: peak hour and weekday, average
// track length, and a 0-100 variety score derived from the artist-to-play
// ratio.
type FunStats struct {
	MostActiveHour        int     `json:"most_active_hour"`
	MostActiveWeekday     int     `json:"most_active_weekday"`
	MostActiveWeekdayName string  `json:"most_active_weekday_name"`
	AverageTrackLengthMS  int64   `json:"average_track_length_ms"`
	VarietyScore          float64 `json:"variety_score"`
}

// AdvancedAnalytics is the full temporal analysis of a listener's window.
// Every section is always present; an empty window yields gap-filled daily
// entries, all-zero hourly and weekday buckets, zero streaks, a neutral
// trend, and empty discovery lists.
type AdvancedAnalytics struct {
	PeriodDays          int              `json:"period_days"`
	DailyListening      []DailyListening `json:"daily_listening"`
	HourlyDistribution  []HourlyBucket   `json:"hourly_distribution"`
	WeekdayDistribution []WeekdayBucket  `json:"weekday_distribution"`
	Streak              StreakInfo       `json:"streak"`
	Trend               ListeningTrend   `json:"trend"`
	NewArtists          []ArtistDiscovery `json:"new_artists"`
	NewTracksCount      int               `json:"new_tracks_count"`
	FunStats            FunStats          `json:"fun_stats"`
}

// MonthlySnapshot summarizes one calendar month. Month is formatted as
// YYYY-MM. TopArtist and TopTrack are nil when the month has no plays.
type MonthlySnapshot struct {
	Month         string           `json:"month"`
	TotalPlays    int              `json:"total_plays"`
	TotalTimeMS   int64            `json:"total_time_ms"`
	UniqueTracks  int              `json:"unique_tracks"`
	UniqueArtists int              `json:"unique_artists"`
	TopArtist     *ArtistPlayCount `json:"top_artist"`
	TopTrack      *TrackPlayCount  `json:"top_track"`
}
