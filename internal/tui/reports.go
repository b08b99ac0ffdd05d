package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studytrack/internal/stats"
)

type reportMode int

const (
	reportDays reportMode = iota
	reportHours
)

// reportsModel is the statistics screen.
type reportsModel struct {
	deps   *deps
	width  int
	height int

	mode   reportMode
	report *stats.Report

	chart barchart.Model
}

func newReportsModel(d *deps) reportsModel {
	return reportsModel{
		deps:  d,
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
	if r.report != nil {
		r.buildChart()
	}
}

type reportsDataMsg struct {
	report stats.Report
}

func (r reportsModel) refresh() tea.Cmd {
	svc, userID := r.deps.svc, r.deps.user.ID
	return func() tea.Msg {
		report, err := svc.Report(context.Background(), userID)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load stats: %v", err), isError: true}
		}
		return reportsDataMsg{report: report}
	}
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.report = &msg.report
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Tab), key.Matches(msg, keys.Left), key.Matches(msg, keys.Right):
			if r.mode == reportDays {
				r.mode = reportHours
			} else {
				r.mode = reportDays
			}
			r.buildChart()
			return r, nil
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := max(20, r.width-8)
	chartHeight := 10
	if r.height > 36 {
		chartHeight = 14
	}

	r.chart = barchart.New(chartWidth, chartHeight)
	if r.report == nil {
		return
	}

	var bars []barchart.BarData
	switch r.mode {
	case reportHours:
		style := lipgloss.NewStyle().Foreground(colorSecondary)
		for _, b := range r.report.HourBuckets {
			bars = append(bars, barchart.BarData{
				Label:  b.Label,
				Values: []barchart.BarValue{{Name: b.Label, Value: float64(b.Minutes), Style: style}},
			})
		}
	default:
		style := lipgloss.NewStyle().Foreground(colorPrimary)
		for _, d := range r.report.Days {
			bars = append(bars, barchart.BarData{
				Label:  d.Weekday + " " + d.Date[8:],
				Values: []barchart.BarValue{{Name: d.Date, Value: float64(d.Minutes), Style: style}},
			})
		}
	}
	if len(bars) == 0 {
		return
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	daysTab := inactiveTabStyle.Render("Days")
	hoursTab := inactiveTabStyle.Render("Time of day")
	if r.mode == reportDays {
		daysTab = activeTabStyle.Render("Days")
	} else {
		hoursTab = activeTabStyle.Render("Time of day")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, daysTab, hoursTab)

	if r.report == nil {
		return panelStyle.Width(w).Render(mutedStyle.Render("Loading..."))
	}
	rep := r.report

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Stats"), "  ", modeTabs, "  ", mutedStyle.Render(rep.Date),
	)

	chartView := r.chart.View()
	if len(rep.Days) == 0 {
		chartView = mutedStyle.Render("  No sessions yet")
	}

	nav := mutedStyle.Render("  tab: switch chart")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", chartView, "",
			r.renderTotals(), "",
			r.renderSubjects(w), "",
			r.renderAchievements(), "",
			r.renderTodos(), "", nav,
		),
	)
}

func (r reportsModel) renderTotals() string {
	rep := r.report
	all, recent := rep.AllTime, rep.Recent

	longest := "-"
	if all.LongestSession != nil {
		ls := all.LongestSession
		longest = fmt.Sprintf("%s (%s, %s)", stats.FormatMinutes(ls.Minutes), ls.Subject, ls.Date)
	}

	rows := []string{
		fmt.Sprintf("  %-22s %s", "Streak", highlightStyle.Render(fmt.Sprintf("%d days (best %d, min %s/day)",
			rep.CurrentStreak, rep.LongestStreak, stats.FormatMinutes(rep.StreakMinMinutes)))),
		fmt.Sprintf("  %-22s %s", fmt.Sprintf("Last %d days", rep.ShortWindowDays), stats.FormatMinutes(rep.ShortWindow)),
		fmt.Sprintf("  %-22s %s  avg %s/active day", fmt.Sprintf("Last %d days", rep.LongWindowDays),
			stats.FormatMinutes(rep.LongWindow), stats.FormatMinutes(recent.AvgPerActiveDay)),
		fmt.Sprintf("  %-22s %s in %d sessions over %d days", "All time",
			stats.FormatMinutes(all.TotalMinutes), all.SessionCount, all.ActiveDays),
		fmt.Sprintf("  %-22s %s/active day  %s/calendar day", "Average",
			stats.FormatMinutes(all.AvgPerActiveDay), stats.FormatMinutes(all.AvgPerCalendarDay)),
		fmt.Sprintf("  %-22s %s", "Longest session", longest),
	}
	return strings.Join(rows, "\n")
}

func (r reportsModel) renderSubjects(w int) string {
	subjects := r.report.Subjects
	if len(subjects) == 0 {
		return mutedStyle.Render("  No subjects yet")
	}

	peak := subjects[0].Minutes
	barWidth := clamp(w-50, 10, 30)
	rows := []string{titleStyle.Render("  Subjects")}
	for _, s := range subjects[:min(5, len(subjects))] {
		dot := lipgloss.NewStyle().Foreground(subjectColor(s.Subject)).Render("●")
		pct := 0.0
		if peak > 0 {
			pct = float64(s.Minutes) * 100 / float64(peak)
		}
		rows = append(rows, fmt.Sprintf("  %s %-20s %s %8s",
			dot, truncate(s.Subject, 20), progressBar(pct, barWidth), stats.FormatMinutes(s.Minutes)))
	}
	return strings.Join(rows, "\n")
}

func (r reportsModel) renderAchievements() string {
	var items []string
	for _, a := range r.report.Achievements {
		if a.Earned {
			items = append(items, successStyle.Render("✓ "+a.Title))
		} else {
			items = append(items, mutedStyle.Render("· "+a.Title))
		}
	}
	return "  " + strings.Join(items, "  ")
}

func (r reportsModel) renderTodos() string {
	t := r.report.Todos
	return mutedStyle.Render(fmt.Sprintf("  Todos: %d pending  %d done  %d important  %d done today",
		t.Pending, t.Completed, t.Important, t.CompletedToday))
}
