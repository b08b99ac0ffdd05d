package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studytrack/internal/stats"
	"github.com/sadopc/studytrack/internal/store"
)

// settingField is one editable minute setting.
type settingField struct {
	key   string
	label string
	value func(stats.Config) int
}

var settingFields = []settingField{
	{store.SettingStreakMinMinutes, "Streak minimum (min/day)", func(c stats.Config) int { return c.StreakMinMinutes }},
	{store.SettingGoalDaily, "Daily goal (min)", func(c stats.Config) int { return c.DailyGoalMinutes }},
	{store.SettingGoalWeekly, "Weekly goal (min)", func(c stats.Config) int { return c.WeeklyGoalMinutes }},
	{store.SettingGoalMonthly, "Monthly goal (min)", func(c stats.Config) int { return c.MonthlyGoalMinutes }},
}

type settingsModel struct {
	deps   *deps
	width  int
	height int

	current    stats.Config
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	values []*string
}

func newSettingsModel(d *deps) settingsModel {
	values := make([]*string, len(settingFields))
	for i := range values {
		v := ""
		values[i] = &v
	}
	return settingsModel{deps: d, values: values}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	cfg stats.Config
}

func (s settingsModel) refresh() tea.Cmd {
	cfg := s.deps.svc.Config()
	return func() tea.Msg {
		return settingsDataMsg{cfg: cfg}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.current = msg.cfg
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	cfg := s.deps.svc.Config()
	fields := make([]huh.Field, len(settingFields))
	for i, f := range settingFields {
		*s.values[i] = strconv.Itoa(f.value(cfg))
		fields[i] = huh.NewInput().Title(f.label).Value(s.values[i]).Validate(validatePositive)
	}

	s.form = huh.NewForm(
		huh.NewGroup(fields...).Title("Streaks & goals"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
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

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		if err := s.saveSettings(); err != nil {
			return s, errStatus("Save settings: %v", err)
		}
		return s, func() tea.Msg { return settingsSavedMsg{} }
	}

	return s, cmd
}

func (s settingsModel) saveSettings() error {
	var errs []error
	for i, f := range settingFields {
		v, err := strconv.Atoi(strings.TrimSpace(*s.values[i]))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.key, err))
			continue
		}
		if err := s.deps.store.SetMinutesSetting(s.deps.user.ID, f.key, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		formView := s.form.View()
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", formView),
		)
	}

	title := titleStyle.Render("Settings")
	hint := mutedStyle.Render("Press enter to edit settings")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, f := range settingFields {
		label := lipgloss.NewStyle().Width(28).Render(f.label)
		value := highlightStyle.Render(stats.FormatMinutes(f.value(s.current)))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  Windows: %d and %d days  Buckets: %dh  Zone: %s",
		s.current.ShortWindowDays, s.current.LongWindowDays, s.current.BucketHours, locationName(s.current))))
	rows = append(rows, "")
	rows = append(rows, hint)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func locationName(c stats.Config) string {
	if c.Location == nil {
		return "Local"
	}
	return c.Location.String()
}

func validatePositive(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v <= 0 {
		return fmt.Errorf("enter a positive number of minutes")
	}
	return nil
}
