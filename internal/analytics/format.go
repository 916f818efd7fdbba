// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package analytics

import "fmt"

// FormatDuration renders a millisecond total as "{h}h {m}m", truncating to
// whole minutes. Totals under an hour drop the hour part and render as
// "{m}m"; sub-minute totals render as "0m".
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 60000
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
