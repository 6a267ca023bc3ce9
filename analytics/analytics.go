// Package analytics computes aggregate statistics over registered visitors
// for the admin dashboard.
package analytics

import (
	"time"

	"github.com/eringen/portfoliogate/store"
)

// PageSize caps the number of visitors returned by a search.
const PageSize = 500

// Daily series window, in days.
const (
	DefaultDays = 30
	MaxDays     = 180
)

// Summary holds visitor totals for the dashboard header.
type Summary struct {
	Total  int `json:"total"`
	Last7  int `json:"last7"`
	Last30 int `json:"last30"`
}

// ClampDays bounds a requested daily window to [1, MaxDays].
func ClampDays(days int) int {
	switch {
	case days < 1:
		return 1
	case days > MaxDays:
		return MaxDays
	}
	return days
}

// dailyWindowStart returns UTC midnight days days before now.
func dailyWindowStart(now time.Time, days int) time.Time {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.AddDate(0, 0, -days)
}

// fillDaily returns one entry per day from from through to, taking counts
// from sparse and zero elsewhere.
func fillDaily(sparse []store.DailyCount, from, to time.Time) []store.DailyCount {
	counts := make(map[string]int, len(sparse))
	for _, d := range sparse {
		counts[d.Date] = d.Count
	}

	var result []store.DailyCount
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		result = append(result, store.DailyCount{Date: key, Count: counts[key]})
	}
	return result
}
