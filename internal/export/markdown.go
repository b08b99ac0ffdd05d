package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/sadopc/studytrack/internal/stats"
)

// ToMarkdown writes the report as a Markdown document at path.
func ToMarkdown(user string, report stats.Report, path string) error {
	return toFile(path, "markdown", func(w io.Writer) error {
		_, err := io.WriteString(w, Markdown(user, report))
		return err
	})
}

// Markdown renders a report as a Markdown document.
func Markdown(user string, r stats.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Study report for %s\n\n", user)
	fmt.Fprintf(&b, "_%s_\n\n", r.Date)

	b.WriteString("## Today\n\n")
	fmt.Fprintf(&b, "- Studied: **%s** in %d session(s)\n", stats.FormatMinutes(r.TodayMinutes), r.TodaySessions)
	fmt.Fprintf(&b, "- Current streak: **%d** day(s)\n", r.CurrentStreak)
	fmt.Fprintf(&b, "- Longest streak: **%d** day(s)\n", r.LongestStreak)
	fmt.Fprintf(&b, "- A day counts toward a streak at %s\n\n", stats.FormatMinutes(r.StreakMinMinutes))

	b.WriteString("## Goals\n\n")
	b.WriteString("| Goal | Studied | Target | Progress |\n|---|---|---|---|\n")
	for _, g := range r.Goals {
		fmt.Fprintf(&b, "| %s | %s | %s | %d%% |\n", g.Name, stats.FormatMinutes(g.Minutes), stats.FormatMinutes(g.GoalMinutes), g.Percent)
	}
	b.WriteString("\n")

	b.WriteString("## Totals\n\n")
	b.WriteString("| Range | Total | Sessions | Active days | Avg / active day | Avg / day |\n|---|---|---|---|---|---|\n")
	writeSummaryRow(&b, "All time", r.AllTime)
	writeSummaryRow(&b, fmt.Sprintf("Last %d days", r.LongWindowDays), r.Recent)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Last %d days: %s. Last %d days: %s.\n\n",
		r.ShortWindowDays, stats.FormatMinutes(r.ShortWindow),
		r.LongWindowDays, stats.FormatMinutes(r.LongWindow))
	if ls := r.AllTime.LongestSession; ls != nil {
		fmt.Fprintf(&b, "Longest session: %s of %s on %s.\n\n", stats.FormatMinutes(ls.Minutes), ls.Subject, ls.Date)
	}

	if len(r.Days) > 0 {
		b.WriteString("## Recent days\n\n| Day | Studied | % of best |\n|---|---|---|\n")
		for _, d := range r.Days {
			fmt.Fprintf(&b, "| %s %s | %s | %.1f |\n", d.Weekday, d.Date, stats.FormatMinutes(d.Minutes), d.Percent)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Time of day\n\n| Hours | Studied | % of best |\n|---|---|---|\n")
	for _, h := range r.HourBuckets {
		fmt.Fprintf(&b, "| %s | %s | %.1f |\n", h.Label, stats.FormatMinutes(h.Minutes), h.Percent)
	}
	b.WriteString("\n")

	if len(r.Subjects) > 0 {
		b.WriteString("## Subjects\n\n| Subject | Studied | Sessions |\n|---|---|---|\n")
		for _, s := range r.Subjects {
			fmt.Fprintf(&b, "| %s | %s | %d |\n", escapeCell(s.Subject), stats.FormatMinutes(s.Minutes), s.Sessions)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Achievements\n\n")
	for _, a := range r.Achievements {
		mark := " "
		if a.Earned {
			mark = "x"
		}
		fmt.Fprintf(&b, "- [%s] **%s**: %s\n", mark, a.Title, a.Description)
	}
	b.WriteString("\n")

	t := r.Todos
	b.WriteString("## Todos\n\n")
	fmt.Fprintf(&b, "%d total, %d pending, %d completed, %d important. Today: %d created, %d completed.\n",
		t.Total, t.Pending, t.Completed, t.Important, t.CreatedToday, t.CompletedToday)
	return b.String()
}

func writeSummaryRow(b *strings.Builder, label string, s stats.Summary) {
	fmt.Fprintf(b, "| %s | %s | %d | %d | %s | %s |\n",
		label, stats.FormatMinutes(s.TotalMinutes), s.SessionCount, s.ActiveDays,
		stats.FormatMinutes(s.AvgPerActiveDay), stats.FormatMinutes(s.AvgPerCalendarDay))
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
