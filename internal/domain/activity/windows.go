package activity

import (
	"time"

	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/platform"
)

// WindowCounts holds distinct-problem counts for three calendar-day windows
// anchored at a reference time. Each window is computed over its own distinct
// set: a problem solved today counts once in every window, a problem solved
// both 2 and 5 days ago counts once in last7 and once in last30.
type WindowCounts struct {
	Today  int `json:"today"`
	Last7  int `json:"last7"`
	Last30 int `json:"last30"`
}

const oneDay = 24 * time.Hour

// Recent counts distinct problems solved within the last calendar day, 7
// days and 30 days, measured in whole UTC days relative to now. Entries
// without a usable timestamp or problem identity are skipped.
func Recent(p platform.Payload, now time.Time) WindowCounts {
	nowDay := startOfDayUTC(now)

	var counts WindowCounts
	seenToday := map[string]struct{}{}
	seen7 := map[string]struct{}{}
	seen30 := map[string]struct{}{}

	record := func(key string, solvedAt time.Time) {
		offset := dayOffset(nowDay, solvedAt)
		if offset < 0 {
			// Future-dated entry, most likely clock skew upstream.
			return
		}
		if offset == 0 {
			if _, ok := seenToday[key]; !ok {
				seenToday[key] = struct{}{}
				counts.Today++
			}
		}
		if offset < 7 {
			if _, ok := seen7[key]; !ok {
				seen7[key] = struct{}{}
				counts.Last7++
			}
		}
		if offset < 30 {
			if _, ok := seen30[key]; !ok {
				seen30[key] = struct{}{}
				counts.Last30++
			}
		}
	}

	switch p.Platform {
	case platform.LeetCode:
		if p.LeetCode == nil {
			return counts
		}
		for _, sub := range p.LeetCode.RecentAcSubmission {
			if sub.TitleSlug == "" {
				continue
			}
			solvedAt, ok := sub.SolveTime()
			if !ok {
				continue
			}
			record(sub.TitleSlug, solvedAt)
		}
	case platform.Codeforces:
		if p.Codeforces == nil {
			return counts
		}
		for _, sub := range p.Codeforces.Submissions {
			if !sub.Accepted() {
				continue
			}
			key, ok := sub.SolvedKey()
			if !ok {
				continue
			}
			record(key, sub.SolveTime())
		}
	}

	return counts
}

// Aggregate sums window counts across profiles.
func Aggregate(items []WindowCounts) WindowCounts {
	var total WindowCounts
	for _, item := range items {
		total.Today += item.Today
		total.Last7 += item.Last7
		total.Last30 += item.Last30
	}
	return total
}

// ActiveCounts counts how many entries had any activity in each window.
func ActiveCounts(items []WindowCounts) WindowCounts {
	var active WindowCounts
	for _, item := range items {
		if item.Today > 0 {
			active.Today++
		}
		if item.Last7 > 0 {
			active.Last7++
		}
		if item.Last30 > 0 {
			active.Last30++
		}
	}
	return active
}

func startOfDayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func dayOffset(nowDay time.Time, solvedAt time.Time) int {
	return int(nowDay.Sub(startOfDayUTC(solvedAt)) / oneDay)
}
