package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/sadopc/studytrack/internal/notify"
	"github.com/sadopc/studytrack/internal/stats"
	"github.com/sadopc/studytrack/internal/store"
)

type dashboardModel struct {
	deps   *deps
	timer  timerModel
	width  int
	height int

	report stats.Report
	recent []store.StudySession

	formActive bool
	form       *huh.Form

	// Form field pointers (survive value copies)
	formSubject *string
	formMode    *string
	formMinutes *string
}

func newDashboardModel(d *deps) dashboardModel {
	subject, mode, minutes := "", "stopwatch", "25"
	return dashboardModel{
		deps:        d,
		timer:       newTimerModel(d.clock),
		formSubject: &subject,
		formMode:    &mode,
		formMinutes: &minutes,
	}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d dashboardModel) isRunning() bool { return d.timer.running() }
func (d dashboardModel) isPaused() bool  { return d.timer.paused() }

type dashboardDataMsg struct {
	report stats.Report
	recent []store.StudySession
}

func (d dashboardModel) loadData() tea.Cmd {
	svc, st, userID := d.deps.svc, d.deps.store, d.deps.user.ID
	return func() tea.Msg {
		report, err := svc.Report(context.Background(), userID)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load stats: %v", err), isError: true}
		}
		recent, _ := st.FilterSessions(userID, store.SessionFilter{Limit: 5})
		return dashboardDataMsg{report: report, recent: recent}
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if d.formActive && d.form != nil {
		if _, ok := msg.(tickMsg); !ok {
			return d.updateForm(msg)
		}
	}

	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.report = msg.report
		d.recent = msg.recent
		return d, nil

	case tickMsg:
		if d.timer.tick() {
			return d.stopTimer()
		}
		return d, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Start):
			if d.timer.running() {
				return d, infoStatus("A study timer is already running")
			}
			return d.showStartForm()

		case key.Matches(msg, keys.Stop):
			return d.stopTimer()

		case key.Matches(msg, keys.Pause):
			d.timer.toggle()
			return d, nil
		}
	}
	return d, nil
}

func (d dashboardModel) showStartForm() (dashboardModel, tea.Cmd) {
	*d.formMode = "stopwatch"
	if *d.formMinutes == "" {
		*d.formMinutes = "25"
	}

	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Subject").Value(d.formSubject).Validate(validateSubject),
			huh.NewSelect[string]().Title("Mode").
				Options(
					huh.NewOption("Stopwatch", "stopwatch"),
					huh.NewOption("Countdown", "countdown"),
				).Value(d.formMode),
			huh.NewInput().Title("Countdown length (min)").Value(d.formMinutes).Validate(validateMinutes),
		),
	).WithShowHelp(true).WithShowErrors(true)

	d.formActive = true
	return d, d.form.Init()
}

func (d dashboardModel) updateForm(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			d.formActive = false
			d.form = nil
			return d, nil
		}
	}

	form, cmd := d.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form = f
	}

	if d.form.State == huh.StateCompleted {
		d.formActive = false
		d.form = nil
		mode := modeStopwatch
		if *d.formMode == "countdown" {
			mode = modeCountdown
		}
		mins, _ := strconv.Atoi(strings.TrimSpace(*d.formMinutes))
		return d.startTimer(*d.formSubject, mode, mins)
	}
	return d, cmd
}

func (d dashboardModel) startTimer(subject string, mode timerMode, minutes int) (dashboardModel, tea.Cmd) {
	if err := d.timer.start(subject, mode, minutesDuration(minutes)); err != nil {
		return d, errStatus("Error: %v", err)
	}
	return d, func() tea.Msg { return timerStartedMsg{} }
}

func (d dashboardModel) stopTimer() (dashboardModel, tea.Cmd) {
	if !d.timer.running() {
		return d, nil
	}
	subject, minutes := d.timer.stop()
	if minutes < 1 {
		return d, infoStatus("Studied less than a minute, nothing logged")
	}
	return d, tea.Sequence(logSession(d.deps, subject, minutes), d.loadData())
}

// logSession records a finished study block for today and sends a
// notification when it completes the daily goal.
func logSession(dp *deps, subject string, minutes int) tea.Cmd {
	svc, st, user, notifier, log := dp.svc, dp.store, dp.user, dp.notifier, dp.log
	return func() tea.Msg {
		today := svc.Today()
		before, err := st.DayTotal(user.ID, today)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		sess, err := st.CreateSession(user.ID, subject, minutes, today, "")
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		log.Info("session logged",
			zap.String("user", user.Name), zap.String("subject", subject), zap.Int("minutes", minutes))

		notified := false
		if text, ok := notify.GoalReached(before, minutes, svc.Config().DailyGoalMinutes); ok {
			if err := notifier.Notify("Daily goal reached", text); err != nil {
				log.Warn("notify", zap.Error(err))
			} else {
				notified = true
			}
		}
		return sessionLoggedMsg{session: sess, notified: notified}
	}
}

func validateSubject(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("subject is required")
	}
	if len([]rune(s)) > 125 {
		return errors.New("subject is too long")
	}
	return nil
}

func validateMinutes(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return errors.New("enter a positive number of minutes")
	}
	return nil
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	if d.formActive && d.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Start Studying"), "", d.form.View())
		return panelStyle.Width(contentWidth).Render(content)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		d.renderTimerPanel(contentWidth),
		d.renderTodayPanel(contentWidth),
		d.renderRecentPanel(contentWidth),
	)
}

func (d dashboardModel) renderTimerPanel(w int) string {
	if d.timer.running() {
		timeStr := formatDuration(d.timer.display())

		var timeDisplay, indicator string
		if d.timer.paused() {
			timeDisplay = timerPausedStyle.Width(w - 6).Render(timeStr)
			indicator = warningStyle.Render("⏸  PAUSED")
		} else {
			timeDisplay = timerRunningStyle.Width(w - 6).Render(timeStr)
			indicator = successStyle.Render("●  STUDYING")
		}

		subjectLine := highlightStyle.Render(d.timer.subject)
		if d.timer.mode == modeCountdown {
			subjectLine += mutedStyle.Render(fmt.Sprintf(" / %s countdown", stats.FormatMinutes(int(d.timer.target.Minutes()))))
		}

		content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, subjectLine)
		return activePanelStyle.Width(w).Render(content)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		timerStyle.Width(w-6).Render("00:00:00"),
		mutedStyle.Render("■  STOPPED"),
		mutedStyle.Render("Press s to start studying"),
	)
	return panelStyle.Width(w).Render(content)
}

func (d dashboardModel) renderTodayPanel(w int) string {
	r := d.report
	header := fmt.Sprintf("%s  %s  %s",
		titleStyle.Render("Today"),
		highlightStyle.Render(stats.FormatMinutes(r.TodayMinutes)),
		mutedStyle.Render(fmt.Sprintf("%d session(s)", r.TodaySessions)),
	)
	streak := fmt.Sprintf("  Streak %s  Best %s  %s",
		accentStyle.Render(fmt.Sprintf("%d day(s)", r.CurrentStreak)),
		highlightStyle.Render(fmt.Sprintf("%d day(s)", r.LongestStreak)),
		mutedStyle.Render(fmt.Sprintf("(%s a day keeps it going)", stats.FormatMinutes(r.StreakMinMinutes))),
	)

	rows := []string{header, streak, ""}
	barWidth := clamp(w-40, 10, 40)
	for _, g := range r.Goals {
		rows = append(rows, fmt.Sprintf("  %-8s %s %3d%%  %s / %s",
			g.Name, progressBar(float64(g.Percent), barWidth), g.Percent,
			stats.FormatMinutes(g.Minutes), stats.FormatMinutes(g.GoalMinutes)))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Sessions")
	if len(d.recent) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No sessions yet"),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{title}
	for _, s := range d.recent {
		dot := lipgloss.NewStyle().Foreground(subjectColor(s.Subject)).Render("●")
		rows = append(rows, fmt.Sprintf("  %s %s  %-24s %s",
			dot, s.Date.Format("Jan 02"), truncate(s.Subject, 24), stats.FormatMinutes(s.Duration)))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
