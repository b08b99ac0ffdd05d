package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studytrack/internal/stats"
	"github.com/sadopc/studytrack/internal/store"
)

// sessionsModel browses the sessions and calendar events of one day at a time.
type sessionsModel struct {
	deps   *deps
	width  int
	height int

	day      time.Time
	sessions []store.StudySession
	events   []store.CalendarEvent
	cursor   int

	formActive bool
	form       *huh.Form
	formType   string // "new", "edit", "event"

	// Form field pointers (survive value copies)
	formSubject *string
	formMinutes *string
	formNote    *string
	formTitle   *string
	formColor   *string

	editingID int64
}

func newSessionsModel(d *deps) sessionsModel {
	subject, minutes, note, title, color := "", "", "", "", store.EventColors[0]
	return sessionsModel{
		deps:        d,
		formSubject: &subject,
		formMinutes: &minutes,
		formNote:    &note,
		formTitle:   &title,
		formColor:   &color,
	}
}

func (s *sessionsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type sessionsDataMsg struct {
	day      time.Time
	sessions []store.StudySession
	events   []store.CalendarEvent
}

func (s sessionsModel) refresh() tea.Cmd {
	day := s.day
	if day.IsZero() {
		day = s.deps.today()
	}
	st, userID := s.deps.store, s.deps.user.ID
	return func() tea.Msg {
		sessions, _ := st.FilterSessions(userID, store.SessionFilter{Date: &day})
		monthEvents, _ := st.ListEvents(userID, day)
		var events []store.CalendarEvent
		for _, e := range monthEvents {
			if e.Date.Equal(day) {
				events = append(events, e)
			}
		}
		return sessionsDataMsg{day: day, sessions: sessions, events: events}
	}
}

func (s sessionsModel) dayTotal() int {
	total := 0
	for _, sess := range s.sessions {
		total += sess.Duration
	}
	return total
}

func (s sessionsModel) update(msg tea.Msg) (sessionsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case sessionsDataMsg:
		s.day = msg.day
		s.sessions = msg.sessions
		s.events = msg.events
		if s.cursor >= len(s.sessions) {
			s.cursor = max(0, len(s.sessions)-1)
		}
		return s, nil

	case tea.KeyMsg:
		return s.updateList(msg)
	}
	return s, nil
}

func (s sessionsModel) updateList(msg tea.KeyMsg) (sessionsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if s.cursor > 0 {
			s.cursor--
		}
	case key.Matches(msg, keys.Down):
		if s.cursor < len(s.sessions)-1 {
			s.cursor++
		}
	case key.Matches(msg, keys.Left):
		s.day = s.currentDay().AddDate(0, 0, -1)
		s.cursor = 0
		return s, s.refresh()
	case key.Matches(msg, keys.Right):
		next := s.currentDay().AddDate(0, 0, 1)
		if next.After(s.deps.today()) {
			return s, nil
		}
		s.day = next
		s.cursor = 0
		return s, s.refresh()
	case key.Matches(msg, keys.Today):
		s.day = s.deps.today()
		s.cursor = 0
		return s, s.refresh()
	case key.Matches(msg, keys.New):
		return s.showSessionForm(nil)
	case key.Matches(msg, keys.Edit):
		if len(s.sessions) > 0 {
			sess := s.sessions[s.cursor]
			return s.showSessionForm(&sess)
		}
	case key.Matches(msg, keys.Event):
		return s.showEventForm()
	case key.Matches(msg, keys.Delete):
		if len(s.sessions) > 0 {
			sess := s.sessions[s.cursor]
			if err := s.deps.store.DeleteSession(s.deps.user.ID, sess.ID); err != nil {
				return s, errStatus("Delete failed: %v", err)
			}
			return s, tea.Batch(s.refresh(), infoStatus("Session deleted"))
		}
	}
	return s, nil
}

func (s sessionsModel) currentDay() time.Time {
	if s.day.IsZero() {
		return s.deps.today()
	}
	return s.day
}

func (s sessionsModel) showSessionForm(existing *store.StudySession) (sessionsModel, tea.Cmd) {
	s.formType = "new"
	*s.formSubject, *s.formMinutes, *s.formNote = "", "", ""
	if existing != nil {
		s.formType = "edit"
		s.editingID = existing.ID
		*s.formSubject = existing.Subject
		*s.formMinutes = strconv.Itoa(existing.Duration)
		*s.formNote = existing.Note
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Subject").Value(s.formSubject).Validate(validateSubject),
			huh.NewInput().Title("Minutes").Value(s.formMinutes).Validate(validateMinutes),
			huh.NewText().Title("Note").Value(s.formNote),
		),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s sessionsModel) showEventForm() (sessionsModel, tea.Cmd) {
	s.formType = "event"
	*s.formTitle = ""
	*s.formColor = store.EventColors[0]

	colorOptions := make([]huh.Option[string], len(store.EventColors))
	for i, c := range store.EventColors {
		dot := lipgloss.NewStyle().Foreground(eventColors[c]).Render("●")
		colorOptions[i] = huh.NewOption(fmt.Sprintf("%s %s", dot, c), c)
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Event").Value(s.formTitle).Validate(validateTitle),
			huh.NewSelect[string]().Title("Color").Options(colorOptions...).Value(s.formColor),
		),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s sessionsModel) updateForm(msg tea.Msg) (sessionsModel, tea.Cmd) {
	// Check for escape to cancel form
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State != huh.StateCompleted {
		return s, cmd
	}

	s.formActive = false
	s.form = nil
	userID, day := s.deps.user.ID, s.currentDay()
	minutes, _ := strconv.Atoi(strings.TrimSpace(*s.formMinutes))

	var err error
	status := ""
	switch s.formType {
	case "new":
		_, err = s.deps.store.CreateSession(userID, *s.formSubject, minutes, day, *s.formNote)
		status = "Session added"
	case "edit":
		_, err = s.deps.store.UpdateSession(userID, s.editingID, *s.formSubject, minutes, day, *s.formNote)
		status = "Session updated"
	case "event":
		_, err = s.deps.store.CreateEvent(userID, day, *s.formTitle, *s.formColor)
		status = "Event added"
	}
	if err != nil {
		return s, errStatus("Save failed: %v", err)
	}
	return s, tea.Batch(s.refresh(), infoStatus(status))
}

func (s sessionsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := "New Session"
		switch s.formType {
		case "edit":
			title = "Edit Session"
		case "event":
			title = "New Event"
		}
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(title)+"  "+mutedStyle.Render(s.currentDay().Format("Mon, Jan 02 2006")),
			"", s.form.View())
		return panelStyle.Width(w).Render(content)
	}

	day := s.currentDay()
	header := fmt.Sprintf("%s  %s  %s",
		titleStyle.Render(day.Format("Monday, Jan 02 2006")),
		highlightStyle.Render(stats.FormatMinutes(s.dayTotal())),
		mutedStyle.Render(fmt.Sprintf("%d session(s)", len(s.sessions))),
	)

	rows := []string{header, ""}

	for _, e := range s.events {
		dot := lipgloss.NewStyle().Foreground(eventColors[e.Color]).Render("◆")
		rows = append(rows, fmt.Sprintf("  %s %s", dot, e.Title))
	}
	if len(s.events) > 0 {
		rows = append(rows, "")
	}

	if len(s.sessions) == 0 {
		rows = append(rows, mutedStyle.Render("No sessions on this day. Press n to add one."))
	} else {
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-3s %-30s %10s  %s", "", "Subject", "Duration", "Note")))
		for i, sess := range s.sessions {
			cursor := "  "
			style := normalItemStyle
			if i == s.cursor {
				cursor = "> "
				style = selectedItemStyle
			}
			dot := lipgloss.NewStyle().Foreground(subjectColor(sess.Subject)).Render("●")
			row := style.Render(fmt.Sprintf("%s%s %-30s %10s", cursor, dot, truncate(sess.Subject, 30), stats.FormatMinutes(sess.Duration)))
			if sess.Note != "" {
				row += "  " + mutedStyle.Render(truncate(firstLine(sess.Note), 40))
			}
			rows = append(rows, row)
		}
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  ←/→: day  t: today  n: new  e: edit  d: delete  a: add event"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func validateTitle(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("title is required")
	}
	if len([]rune(s)) > 100 {
		return fmt.Errorf("title is too long")
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
