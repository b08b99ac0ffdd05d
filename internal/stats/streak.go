package stats

import (
	"sort"
	"time"

	"github.com/sadopc/studytrack/internal/store"
)

// DailyTotals maps a YYYY-MM-DD date to the minutes studied that day.
type DailyTotals map[string]int

// BuildDailyTotals folds sessions into per-day sums.
func BuildDailyTotals(sessions []store.StudySession) DailyTotals {
	totals := make(DailyTotals)
	for _, s := range sessions {
		totals[dayKey(s.Date)] += s.Duration
	}
	return totals
}

// Minutes returns the total for the calendar date of d; absent days are 0.
func (t DailyTotals) Minutes(d time.Time) int {
	return t[dayKey(d)]
}

// Days returns the recorded dates in ascending order.
func (t DailyTotals) Days() []string {
	days := make([]string, 0, len(t))
	for k := range t {
		days = append(days, k)
	}
	sort.Strings(days)
	return days
}

// CurrentStreak counts consecutive qualifying days ending today. A day with
// no record counts as zero minutes, so a gap or a short today ends it.
func CurrentStreak(totals DailyTotals, today time.Time, threshold int) int {
	if threshold < 1 {
		threshold = 1
	}
	n := 0
	for d := civil(today); totals.Minutes(d) >= threshold; d = d.AddDate(0, 0, -1) {
		n++
	}
	return n
}

// LongestStreak scans recorded dates in order. A day under the threshold
// resets the run to zero; a qualifying day that does not directly follow the
// previous qualifying day restarts the run at one.
func LongestStreak(totals DailyTotals, threshold int) int {
	if threshold < 1 {
		threshold = 1
	}
	var best, run int
	var prev time.Time
	havePrev := false
	for _, k := range totals.Days() {
		if totals[k] < threshold {
			run = 0
			continue
		}
		d, err := time.Parse(DateLayout, k)
		if err != nil {
			continue
		}
		if havePrev && d.Equal(prev.AddDate(0, 0, 1)) {
			run++
		} else {
			run = 1
		}
		prev, havePrev = d, true
		if run > best {
			best = run
		}
	}
	return best
}
