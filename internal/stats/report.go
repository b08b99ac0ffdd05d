package stats

import (
	"sort"
	"time"

	"github.com/sadopc/studytrack/internal/store"
)

type TodoCounts struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	Pending        int `json:"pending"`
	Important      int `json:"important"`
	CreatedToday   int `json:"created_today"`
	CompletedToday int `json:"completed_today"`
}

// CountTodos tallies the todo list. Todos carry no completion timestamp, so a
// completed todo last updated today counts as completed today.
func CountTodos(todos []store.TodoItem, today time.Time, loc *time.Location) TodoCounts {
	if loc == nil {
		loc = time.Local
	}
	key := dayKey(civil(today))
	var c TodoCounts
	for _, t := range todos {
		c.Total++
		if t.Completed {
			c.Completed++
			if dayKey(t.UpdatedAt.In(loc)) == key {
				c.CompletedToday++
			}
		} else {
			c.Pending++
		}
		if t.IsImportant {
			c.Important++
		}
		if dayKey(t.CreatedAt.In(loc)) == key {
			c.CreatedToday++
		}
	}
	return c
}

// Report is everything the statistics screens show for one user on one day.
type Report struct {
	Date             string         `json:"date"`
	TodayMinutes     int            `json:"today_minutes"`
	TodaySessions    int            `json:"today_sessions"`
	CurrentStreak    int            `json:"current_streak"`
	LongestStreak    int            `json:"longest_streak"`
	StreakMinMinutes int            `json:"streak_min_minutes"`
	AllTime          Summary        `json:"all_time"`
	Recent           Summary        `json:"recent"`
	ShortWindowDays  int            `json:"short_window_days"`
	LongWindowDays   int            `json:"long_window_days"`
	ShortWindow      int            `json:"short_window_minutes"`
	LongWindow       int            `json:"long_window_minutes"`
	Days             []DayBar       `json:"days"`
	HourBuckets      []HourBucket   `json:"hour_buckets"`
	Goals            []GoalProgress `json:"goals"`
	Subjects         []SubjectTotal `json:"subjects"`
	Achievements     []Achievement  `json:"achievements"`
	Todos            TodoCounts     `json:"todos"`
}

// Goal returns the named goal, or false if the report has none by that name.
func (r Report) Goal(name string) (GoalProgress, bool) {
	for _, g := range r.Goals {
		if g.Name == name {
			return g, true
		}
	}
	return GoalProgress{}, false
}

// Build derives a full report. today is read as a calendar date in its own
// location; Service.Today supplies it already resolved against cfg.Location.
// The daily totals and the ordered session list are computed once and shared
// by every metric. The input slices are not modified.
func Build(sessions []store.StudySession, todos []store.TodoItem, today time.Time, cfg Config) Report {
	cfg = cfg.withDefaults()
	today = civil(today)

	ordered := make([]store.StudySession, len(sessions))
	copy(ordered, sessions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.Before(ordered[j].Date)
		}
		return ordered[i].ID < ordered[j].ID
	})

	totals := BuildDailyTotals(ordered)
	longest := LongestStreak(totals, cfg.StreakMinMinutes)
	all := Summarize(ordered, AllTime(), today)

	todayKey := dayKey(today)
	todaySessions := 0
	for _, s := range ordered {
		if dayKey(s.Date) == todayKey {
			todaySessions++
		}
	}

	r := Report{
		Date:             todayKey,
		TodayMinutes:     totals.Minutes(today),
		TodaySessions:    todaySessions,
		CurrentStreak:    CurrentStreak(totals, today, cfg.StreakMinMinutes),
		LongestStreak:    longest,
		StreakMinMinutes: cfg.StreakMinMinutes,
		AllTime:          all,
		Recent:           Summarize(ordered, LastDays(today, cfg.LongWindowDays), today),
		ShortWindowDays:  cfg.ShortWindowDays,
		LongWindowDays:   cfg.LongWindowDays,
		ShortWindow:      WindowMinutes(totals, today, cfg.ShortWindowDays),
		LongWindow:       WindowMinutes(totals, today, cfg.LongWindowDays),
		Days:             []DayBar{},
		HourBuckets:      HourDistribution(ordered, cfg.BucketHours, cfg.Location),
		Subjects:         SubjectTotals(ordered),
		Todos:            CountTodos(todos, today, cfg.Location),
	}
	if len(ordered) > 0 {
		r.Days = DailyBreakdown(totals, today, cfg.ShortWindowDays)
	}
	if r.Subjects == nil {
		r.Subjects = []SubjectTotal{}
	}

	weekly := WindowMinutes(totals, today, 7)
	monthly := WindowMinutes(totals, today, 30)
	r.Goals = []GoalProgress{
		{Name: "daily", GoalMinutes: cfg.DailyGoalMinutes, Minutes: r.TodayMinutes, Percent: Progress(r.TodayMinutes, cfg.DailyGoalMinutes)},
		{Name: "weekly", GoalMinutes: cfg.WeeklyGoalMinutes, Minutes: weekly, Percent: Progress(weekly, cfg.WeeklyGoalMinutes)},
		{Name: "monthly", GoalMinutes: cfg.MonthlyGoalMinutes, Minutes: monthly, Percent: Progress(monthly, cfg.MonthlyGoalMinutes)},
	}

	r.Achievements = Evaluate(cfg.Achievements, Facts{
		TotalSessions:     all.SessionCount,
		TotalStudyMinutes: all.TotalMinutes,
		LongestStreak:     longest,
	})
	return r
}
