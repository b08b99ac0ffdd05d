package stats

// Facts are the aggregate numbers achievement rules are judged on.
type Facts struct {
	TotalSessions     int
	TotalStudyMinutes int
	LongestStreak     int
}

type AchievementRule struct {
	Code        string
	Title       string
	Description string
	Earned      func(Facts) bool
}

type Achievement struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Earned      bool   `json:"earned"`
}

// DefaultAchievements returns a fresh copy of the built-in rule table.
func DefaultAchievements() []AchievementRule {
	return []AchievementRule{
		{
			Code:        "first_session",
			Title:       "First Step",
			Description: "Log your first study session",
			Earned:      func(f Facts) bool { return f.TotalSessions >= 1 },
		},
		{
			Code:        "ten_hours",
			Title:       "Ten Hours",
			Description: "Study for 10 hours in total",
			Earned:      func(f Facts) bool { return f.TotalStudyMinutes >= 600 },
		},
		{
			Code:        "fifty_hours",
			Title:       "Fifty Hours",
			Description: "Study for 50 hours in total",
			Earned:      func(f Facts) bool { return f.TotalStudyMinutes >= 3000 },
		},
		{
			Code:        "week_streak",
			Title:       "Week Streak",
			Description: "Reach a 7 day study streak",
			Earned:      func(f Facts) bool { return f.LongestStreak >= 7 },
		},
		{
			Code:        "hundred_sessions",
			Title:       "Centurion",
			Description: "Log 100 study sessions",
			Earned:      func(f Facts) bool { return f.TotalSessions >= 100 },
		},
	}
}

// Evaluate judges every rule against f, preserving rule order.
func Evaluate(rules []AchievementRule, f Facts) []Achievement {
	out := make([]Achievement, 0, len(rules))
	for _, r := range rules {
		out = append(out, Achievement{
			Code:        r.Code,
			Title:       r.Title,
			Description: r.Description,
			Earned:      r.Earned != nil && r.Earned(f),
		})
	}
	return out
}
