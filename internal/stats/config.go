// Package stats derives study statistics (daily totals, streaks, rolling
// windows, hour-of-day distribution, goal progress and achievements) from a
// user's raw sessions and todos. Everything here is a pure function of its
// inputs; nothing is cached or persisted.
package stats

import "time"

// DateLayout is the key format of daily totals and report dates.
const DateLayout = "2006-01-02"

// Config holds the thresholds the engine works with.
type Config struct {
	// StreakMinMinutes is the daily total a day needs to count toward a streak.
	StreakMinMinutes int

	DailyGoalMinutes   int
	WeeklyGoalMinutes  int
	MonthlyGoalMinutes int

	// ShortWindowDays and LongWindowDays size the rolling windows ending today.
	ShortWindowDays int
	LongWindowDays  int

	// BucketHours is the width of each hour-of-day bucket; it must divide 24.
	BucketHours int

	// Location decides "today" and the local hour of creation timestamps.
	Location *time.Location

	Achievements []AchievementRule
}

func DefaultConfig() Config {
	return Config{
		StreakMinMinutes:   60,
		DailyGoalMinutes:   60,
		WeeklyGoalMinutes:  420,
		MonthlyGoalMinutes: 1800,
		ShortWindowDays:    7,
		LongWindowDays:     30,
		BucketHours:        4,
		Location:           time.Local,
		Achievements:       DefaultAchievements(),
	}
}

// withDefaults fills unset or unusable fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.StreakMinMinutes <= 0 {
		c.StreakMinMinutes = d.StreakMinMinutes
	}
	if c.DailyGoalMinutes <= 0 {
		c.DailyGoalMinutes = d.DailyGoalMinutes
	}
	if c.WeeklyGoalMinutes <= 0 {
		c.WeeklyGoalMinutes = d.WeeklyGoalMinutes
	}
	if c.MonthlyGoalMinutes <= 0 {
		c.MonthlyGoalMinutes = d.MonthlyGoalMinutes
	}
	if c.ShortWindowDays <= 0 {
		c.ShortWindowDays = d.ShortWindowDays
	}
	if c.LongWindowDays <= 0 {
		c.LongWindowDays = d.LongWindowDays
	}
	if c.BucketHours <= 0 || c.BucketHours > 24 || 24%c.BucketHours != 0 {
		c.BucketHours = d.BucketHours
	}
	if c.Location == nil {
		c.Location = d.Location
	}
	if c.Achievements == nil {
		c.Achievements = d.Achievements
	}
	return c
}

// civil truncates t to its calendar date, expressed as midnight UTC so that
// day arithmetic never crosses a DST boundary.
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayKey(t time.Time) string {
	return t.Format(DateLayout)
}
