package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sadopc/studytrack/internal/store"
)

// Range is an inclusive span of calendar dates. A nil bound is open: an open
// start begins at the first study date, an open end stops at today.
type Range struct {
	Start *time.Time
	End   *time.Time
}

// AllTime is the unbounded range.
func AllTime() Range { return Range{} }

// Between returns the inclusive range [start, end].
func Between(start, end time.Time) Range {
	s, e := civil(start), civil(end)
	return Range{Start: &s, End: &e}
}

// LastDays returns the rolling window of n days ending today.
func LastDays(today time.Time, n int) Range {
	t := civil(today)
	return Between(t.AddDate(0, 0, -(n - 1)), t)
}

type SessionRef struct {
	ID      int64  `json:"id"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
	Minutes int    `json:"minutes"`
}

// Summary aggregates the sessions that fall inside a Range.
type Summary struct {
	From              *string     `json:"from"`
	To                *string     `json:"to"`
	TotalMinutes      int         `json:"total_minutes"`
	SessionCount      int         `json:"session_count"`
	ActiveDays        int         `json:"active_days"`
	CalendarDays      int         `json:"calendar_days"`
	AvgPerActiveDay   int         `json:"avg_minutes_per_active_day"`
	AvgPerCalendarDay int         `json:"avg_minutes_per_calendar_day"`
	LongestSession    *SessionRef `json:"longest_session"`
	FirstStudyDate    *string     `json:"first_study_date"`
	LastStudyDate     *string     `json:"last_study_date"`
}

// Summarize computes totals and averages over r. The per-active-day average
// divides by days with at least one session; the per-calendar-day average
// divides by every day in the range. Both are 0 when their denominator is.
func Summarize(sessions []store.StudySession, r Range, today time.Time) Summary {
	var sum Summary
	active := make(map[string]bool)

	var startKey, endKey string
	if r.Start != nil {
		startKey = dayKey(*r.Start)
	}
	if r.End != nil {
		endKey = dayKey(*r.End)
	}

	for _, s := range sessions {
		k := dayKey(s.Date)
		if startKey != "" && k < startKey {
			continue
		}
		if endKey != "" && k > endKey {
			continue
		}
		sum.TotalMinutes += s.Duration
		sum.SessionCount++
		active[k] = true

		if sum.FirstStudyDate == nil || k < *sum.FirstStudyDate {
			sum.FirstStudyDate = strPtr(k)
		}
		if sum.LastStudyDate == nil || k > *sum.LastStudyDate {
			sum.LastStudyDate = strPtr(k)
		}
		if longer(s, sum.LongestSession) {
			sum.LongestSession = &SessionRef{ID: s.ID, Subject: s.Subject, Date: k, Minutes: s.Duration}
		}
	}
	sum.ActiveDays = len(active)

	from, to := startKey, endKey
	if from == "" && sum.FirstStudyDate != nil {
		from = *sum.FirstStudyDate
	}
	if to == "" {
		to = dayKey(civil(today))
		if sum.LastStudyDate != nil && *sum.LastStudyDate > to {
			to = *sum.LastStudyDate
		}
	}
	if from != "" {
		sum.From = strPtr(from)
		sum.To = strPtr(to)
		sum.CalendarDays = daysInclusive(from, to)
	}

	if sum.ActiveDays > 0 {
		sum.AvgPerActiveDay = sum.TotalMinutes / sum.ActiveDays
	}
	if sum.CalendarDays > 0 {
		sum.AvgPerCalendarDay = sum.TotalMinutes / sum.CalendarDays
	}
	return sum
}

// longer reports whether s beats the current longest session. Ties go to the
// earlier date, then the lower id, so the result does not depend on order.
func longer(s store.StudySession, cur *SessionRef) bool {
	if cur == nil {
		return true
	}
	if s.Duration != cur.Minutes {
		return s.Duration > cur.Minutes
	}
	k := dayKey(s.Date)
	if k != cur.Date {
		return k < cur.Date
	}
	return s.ID < cur.ID
}

func daysInclusive(from, to string) int {
	f, err1 := time.Parse(DateLayout, from)
	t, err2 := time.Parse(DateLayout, to)
	if err1 != nil || err2 != nil || t.Before(f) {
		return 0
	}
	return int(t.Sub(f).Hours()/24) + 1
}

// WindowMinutes sums the n days ending today, today included.
func WindowMinutes(totals DailyTotals, today time.Time, n int) int {
	total := 0
	d := civil(today)
	for i := 0; i < n; i++ {
		total += totals.Minutes(d)
		d = d.AddDate(0, 0, -1)
	}
	return total
}

// DayBar is one day of a per-day breakdown.
type DayBar struct {
	Date    string  `json:"date"`
	Weekday string  `json:"weekday"`
	Minutes int     `json:"minutes"`
	Percent float64 `json:"percent"`
}

// DailyBreakdown returns the n days ending today, oldest first, each with its
// share of the busiest day in the window.
func DailyBreakdown(totals DailyTotals, today time.Time, n int) []DayBar {
	bars := make([]DayBar, 0, n)
	start := civil(today).AddDate(0, 0, -(n - 1))
	peak := 0
	for i := 0; i < n; i++ {
		d := start.AddDate(0, 0, i)
		m := totals.Minutes(d)
		if m > peak {
			peak = m
		}
		bars = append(bars, DayBar{Date: dayKey(d), Weekday: d.Weekday().String()[:3], Minutes: m})
	}
	for i := range bars {
		bars[i].Percent = percentOf(bars[i].Minutes, peak)
	}
	return bars
}

// HourBucket is a fixed slice of the day with the minutes created inside it.
type HourBucket struct {
	Label     string  `json:"label"`
	StartHour int     `json:"start_hour"`
	EndHour   int     `json:"end_hour"`
	Minutes   int     `json:"minutes"`
	Percent   float64 `json:"percent"`
}

// HourDistribution buckets session minutes by the local hour of CreatedAt.
// Sessions carry no time-of-day of their own, so the insert time stands in;
// editing a session's date does not move it between buckets.
func HourDistribution(sessions []store.StudySession, bucketHours int, loc *time.Location) []HourBucket {
	if bucketHours <= 0 || 24%bucketHours != 0 {
		bucketHours = 4
	}
	if loc == nil {
		loc = time.Local
	}
	buckets := make([]HourBucket, 24/bucketHours)
	for i := range buckets {
		start := i * bucketHours
		end := start + bucketHours - 1
		buckets[i] = HourBucket{Label: fmt.Sprintf("%02d-%02d", start, end), StartHour: start, EndHour: end}
	}
	for _, s := range sessions {
		h := s.CreatedAt.In(loc).Hour()
		buckets[h/bucketHours].Minutes += s.Duration
	}
	peak := 0
	for _, b := range buckets {
		if b.Minutes > peak {
			peak = b.Minutes
		}
	}
	for i := range buckets {
		buckets[i].Percent = percentOf(buckets[i].Minutes, peak)
	}
	return buckets
}

type GoalProgress struct {
	Name        string `json:"name"`
	GoalMinutes int    `json:"goal_minutes"`
	Minutes     int    `json:"minutes"`
	Percent     int    `json:"percent"`
}

// Progress is floor(minutes*100/goal) capped at 100, and 0 when either side is 0.
func Progress(minutes, goal int) int {
	if minutes <= 0 || goal <= 0 {
		return 0
	}
	p := minutes * 100 / goal
	if p > 100 {
		p = 100
	}
	return p
}

type SubjectTotal struct {
	Subject  string `json:"subject"`
	Minutes  int    `json:"minutes"`
	Sessions int    `json:"sessions"`
}

// SubjectTotals sums minutes per subject, largest first.
func SubjectTotals(sessions []store.StudySession) []SubjectTotal {
	idx := make(map[string]int)
	var out []SubjectTotal
	for _, s := range sessions {
		i, ok := idx[s.Subject]
		if !ok {
			i = len(out)
			idx[s.Subject] = i
			out = append(out, SubjectTotal{Subject: s.Subject})
		}
		out[i].Minutes += s.Duration
		out[i].Sessions++
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Minutes != out[j].Minutes {
			return out[i].Minutes > out[j].Minutes
		}
		return out[i].Subject < out[j].Subject
	})
	return out
}

// percentOf returns v as a percentage of peak, rounded to one decimal.
func percentOf(v, peak int) float64 {
	if peak <= 0 {
		return 0
	}
	return math.Round(float64(v)*1000/float64(peak)) / 10
}

func strPtr(s string) *string { return &s }
