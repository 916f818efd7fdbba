// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/soundtrail/soundtrail/internal/models"
)

// weekdayNames indexes ISO weekdays, Monday first.
var weekdayNames = [7]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// trendThreshold is the change percentage beyond which a trend stops being
// reported as stable.
const trendThreshold = 5.0

// Input carries everything Analyze needs beyond the window itself. The
// caller (the tracker service) assembles it from storage:
//
//   - Events: the window's plays, played-at ascending.
//   - PriorArtists: artists the listener played strictly before the window
//     started. Empty for all-time windows, where nothing precedes the window.
//   - TrackFirstPlays: for each track in Events, the timestamp of the
//     listener's first-ever play of that track.
//   - PrevPeriodDurationMS: total listening time in the equal-length period
//     immediately before the window. Ignored for all-time windows.
type Input struct {
	Events               []models.Play
	PriorArtists         map[string]struct{}
	TrackFirstPlays      map[string]time.Time
	PrevPeriodDurationMS int64
}

// Analyze computes the full temporal breakdown of a listener's window:
// gap-filled daily totals, hourly and weekday distributions, streaks, the
// period-over-period trend, artist and track discovery, and the novelty
// aggregates. All bucketing uses UTC calendar days.
func Analyze(in Input, days int, now time.Time) models.AdvancedAnalytics {
	now = now.UTC()
	a := models.AdvancedAnalytics{
		PeriodDays: days,
		NewArtists: []models.ArtistDiscovery{},
	}

	a.DailyListening = dailyBuckets(in.Events, days, now)
	a.HourlyDistribution = hourlyBuckets(in.Events)
	a.WeekdayDistribution = weekdayBuckets(in.Events)
	a.Streak = streaks(in.Events, now)
	a.Trend = trend(in.Events, in.PrevPeriodDurationMS, days)
	a.NewArtists = discoveries(in.Events, in.PriorArtists)
	a.NewTracksCount = newTracks(in.Events, in.TrackFirstPlays, days, now)
	a.FunStats = funStats(in.Events, a.HourlyDistribution, a.WeekdayDistribution)
	return a
}

// dayKey truncates t to its UTC calendar day.
func dayKey(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// dailyBuckets produces one entry per calendar day from the window's start
// day through today, inclusive, with zero-valued entries for silent days.
// For all-time windows the range starts at the earliest play's day; with no
// plays at all it collapses to a single entry for today.
func dailyBuckets(events []models.Play, days int, now time.Time) []models.DailyListening {
	today := dayKey(now)
	start := today
	if days > 0 {
		start = dayKey(now.Add(-time.Duration(days) * 24 * time.Hour))
	} else if len(events) > 0 {
		start = dayKey(events[0].PlayedAt)
	}

	byDay := make(map[time.Time]*models.DailyListening)
	n := int(today.Sub(start).Hours()/24) + 1
	out := make([]models.DailyListening, 0, n)
	for d := start; !d.After(today); d = d.AddDate(0, 0, 1) {
		out = append(out, models.DailyListening{Date: d.Format("2006-01-02")})
		byDay[d] = &out[len(out)-1]
	}
	for _, e := range events {
		if b, ok := byDay[dayKey(e.PlayedAt)]; ok {
			b.PlayCount++
			b.TotalTimeMS += e.DurationMS
		}
	}
	return out
}

func hourlyBuckets(events []models.Play) []models.HourlyBucket {
	out := make([]models.HourlyBucket, 24)
	for h := range out {
		out[h].Hour = h
	}
	for _, e := range events {
		h := e.PlayedAt.UTC().Hour()
		out[h].PlayCount++
		out[h].TotalTimeMS += e.DurationMS
	}
	total := len(events)
	for h := range out {
		out[h].Percentage = share(out[h].PlayCount, total)
	}
	return out
}

func weekdayBuckets(events []models.Play) []models.WeekdayBucket {
	out := make([]models.WeekdayBucket, 7)
	for d := range out {
		out[d].Weekday = d
		out[d].Name = weekdayNames[d]
	}
	for _, e := range events {
		d := isoWeekday(e.PlayedAt)
		out[d].PlayCount++
		out[d].TotalTimeMS += e.DurationMS
	}
	total := len(events)
	for d := range out {
		out[d].Percentage = share(out[d].PlayCount, total)
	}
	return out
}

// isoWeekday maps to Monday=0 through Sunday=6.
func isoWeekday(t time.Time) int {
	return (int(t.UTC().Weekday()) + 6) % 7
}

// share is count's percentage of total, rounded to one decimal place.
func share(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(count) / float64(total) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// streaks derives the current and longest consecutive-day runs from the
// distinct days with at least one play. The current streak counts backward
// from today and is zero when today is silent.
func streaks(events []models.Play, now time.Time) models.StreakInfo {
	seen := make(map[time.Time]struct{}, len(events))
	for _, e := range events {
		seen[dayKey(e.PlayedAt)] = struct{}{}
	}
	var s models.StreakInfo
	if len(seen) == 0 {
		return s
	}

	for d := dayKey(now); ; d = d.AddDate(0, 0, -1) {
		if _, ok := seen[d]; !ok {
			break
		}
		s.CurrentStreak++
	}

	ordered := make([]time.Time, 0, len(seen))
	for d := range seen {
		ordered = append(ordered, d)
	}
	sort.Slice(ordered, func(a, b int) bool { return ordered[a].Before(ordered[b]) })
	run := 1
	s.LongestStreak = 1
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Sub(ordered[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > s.LongestStreak {
			s.LongestStreak = run
		}
	}
	return s
}

// trend compares the window's listening time to the preceding equal-length
// period. All-time windows have no preceding period and report a neutral
// zero trend.
func trend(events []models.Play, prevMS int64, days int) models.ListeningTrend {
	t := models.ListeningTrend{Direction: models.TrendStable}
	if days <= 0 {
		return t
	}
	for _, e := range events {
		t.CurrentMS += e.DurationMS
	}
	t.PreviousMS = prevMS
	switch {
	case prevMS > 0:
		t.ChangePercentage = round1(float64(t.CurrentMS-prevMS) / float64(prevMS) * 100)
	case t.CurrentMS > 0:
		t.ChangePercentage = 100
	}
	switch {
	case t.ChangePercentage > trendThreshold:
		t.Direction = models.TrendUp
	case t.ChangePercentage < -trendThreshold:
		t.Direction = models.TrendDown
	}
	return t
}

// discoveries lists the window's artists that the listener had never played
// before the window started, ranked by play count with first-encountered
// tie order, capped at the top ten.
func discoveries(events []models.Play, prior map[string]struct{}) []models.ArtistDiscovery {
	index := make(map[string]int)
	out := make([]models.ArtistDiscovery, 0)
	for _, e := range events {
		if _, known := prior[e.ArtistName]; known {
			continue
		}
		i, ok := index[e.ArtistName]
		if !ok {
			i = len(out)
			index[e.ArtistName] = i
			out = append(out, models.ArtistDiscovery{
				ArtistName:  e.ArtistName,
				FirstListen: e.PlayedAt,
			})
		}
		out[i].PlayCount++
		out[i].TotalTimeMS += e.DurationMS
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].PlayCount > out[b].PlayCount
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// newTracks counts the window's distinct tracks whose first-ever play falls
// inside the window. For all-time windows every track qualifies.
func newTracks(events []models.Play, firstPlays map[string]time.Time, days int, now time.Time) int {
	distinct := make(map[string]struct{}, len(events))
	for _, e := range events {
		distinct[e.TrackID] = struct{}{}
	}
	if days <= 0 {
		return len(distinct)
	}
	start := now.Add(-time.Duration(days) * 24 * time.Hour)
	count := 0
	for id := range distinct {
		first, ok := firstPlays[id]
		if !ok || !first.Before(start) {
			count++
		}
	}
	return count
}

func funStats(events []models.Play, hourly []models.HourlyBucket, weekdays []models.WeekdayBucket) models.FunStats {
	f := models.FunStats{MostActiveWeekdayName: weekdayNames[0]}
	for h := range hourly {
		if hourly[h].PlayCount > hourly[f.MostActiveHour].PlayCount {
			f.MostActiveHour = h
		}
	}
	for d := range weekdays {
		if weekdays[d].PlayCount > weekdays[f.MostActiveWeekday].PlayCount {
			f.MostActiveWeekday = d
		}
	}
	f.MostActiveWeekdayName = weekdayNames[f.MostActiveWeekday]

	if len(events) == 0 {
		return f
	}
	var totalMS int64
	artists := make(map[string]struct{})
	for _, e := range events {
		totalMS += e.DurationMS
		artists[e.ArtistName] = struct{}{}
	}
	f.AverageTrackLengthMS = totalMS / int64(len(events))
	f.VarietyScore = math.Min(100, round1(float64(len(artists))/float64(len(events))*500))
	return f
}
