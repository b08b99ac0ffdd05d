package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/sadopc/studytrack/internal/export"
)

var exportFormats = []string{"CSV", "JSON", "Markdown"}

// App is the root Bubble Tea model.
type App struct {
	deps   *deps
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	dashboard dashboardModel
	sessions  sessionsModel
	todos     todosModel
	reports   reportsModel
	settings  settingsModel

	help        help.Model
	status      string
	statusError bool
}

func NewApp(env Env) App {
	h := help.New()
	h.ShowAll = false

	d := newDeps(env)
	return App{
		deps:       d,
		activeView: viewDashboard,
		dashboard:  newDashboardModel(d),
		sessions:   newSessionsModel(d),
		todos:      newTodosModel(d),
		reports:    newReportsModel(d),
		settings:   newSettingsModel(d),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.dashboard.Init(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.sessions.setSize(a.width, contentHeight)
		a.todos.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchView(viewDashboard)
		case key.Matches(msg, keys.Tab2):
			return a.switchView(viewSessions)
		case key.Matches(msg, keys.Tab3):
			return a.switchView(viewTodos)
		case key.Matches(msg, keys.Tab4):
			return a.switchView(viewStats)
		case key.Matches(msg, keys.Tab5):
			return a.switchView(viewSettings)
		case key.Matches(msg, keys.Tab):
			// The stats view uses tab to switch charts.
			if a.activeView != viewStats {
				return a.switchView((a.activeView + 1) % viewState(len(viewNames)))
			}
		}

	case tickMsg:
		cmds = append(cmds, tickCmd())
		// Always route ticks to the dashboard timer
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case statusMsg:
		a.status = msg.text
		a.statusError = msg.isError
		return a, nil

	case timerStartedMsg:
		a.setStatus("Timer started")
		return a, nil

	case sessionLoggedMsg:
		text := fmt.Sprintf("Logged %d min of %s", msg.session.Duration, msg.session.Subject)
		if msg.notified {
			text += " · daily goal reached"
		}
		a.setStatus(text)
		return a, a.refreshCurrentView()

	case settingsSavedMsg:
		if err := a.deps.reloadStats(); err != nil {
			a.deps.log.Warn("reload settings", zap.Error(err))
		}
		a.setStatus("Settings saved")
		return a, a.settings.refresh()

	case exportDoneMsg:
		a.setStatus("Exported to " + msg.path)
		a.exportPicking = false
		return a, nil

	case dashboardDataMsg:
		// Data may arrive after the user has switched away.
		a.dashboard, _ = a.dashboard.update(msg)
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a *App) setStatus(text string) {
	a.status = text
	a.statusError = false
}

func (a App) switchView(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewSessions:
		a.sessions, cmd = a.sessions.update(msg)
	case viewTodos:
		a.todos, cmd = a.todos.update(msg)
	case viewStats:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.formActive
	case viewSessions:
		return a.sessions.formActive
	case viewTodos:
		return a.todos.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.loadData()
	case viewSessions:
		return a.sessions.refresh()
	case viewTodos:
		return a.todos.refresh()
	case viewStats:
		return a.reports.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewSessions:
		content = a.sessions.view()
	case viewTodos:
		content = a.todos.view()
	case viewStats:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(1, a.height-headerHeight-footerHeight)

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("studytrack")
	user := mutedStyle.Render(" " + a.deps.user.Name)
	gap := max(1, a.width-lipgloss.Width(title)-lipgloss.Width(user)-lipgloss.Width(tabRow)-4)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, user, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		if a.statusError {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = mutedStyle.Render(" " + a.status)
		}
	}

	// Timer indicator in footer
	timerInfo := ""
	if a.dashboard.isRunning() {
		shown := a.dashboard.timer.display()
		timerInfo = successStyle.Render(" ● " + formatDuration(shown))
		if a.dashboard.isPaused() {
			timerInfo = warningStyle.Render(" ⏸ " + formatDuration(shown))
		}
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := max(1, a.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// exportPath names an export file in the home directory.
func exportPath(user string, today time.Time, ext string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, fmt.Sprintf("studytrack-%s-%s.%s", user, today.Format("2006-01-02"), ext))
}

func (a App) doExport(format int) tea.Cmd {
	svc, st, user := a.deps.svc, a.deps.store, a.deps.user
	return func() tea.Msg {
		sessions, err := st.ListSessions(user.ID)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		today := svc.Today()

		var path string
		switch format {
		case 0:
			path = exportPath(user.Name, today, "csv")
			err = export.ToCSV(sessions, path)
		default:
			report, rerr := svc.Report(context.Background(), user.ID)
			if rerr != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", rerr), isError: true}
			}
			if format == 1 {
				path = exportPath(user.Name, today, "json")
				err = export.ToJSON(user.Name, sessions, report, path)
			} else {
				path = exportPath(user.Name, today, "md")
				err = export.ToMarkdown(user.Name, report, path)
			}
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("%s error: %v", exportFormats[min(format, len(exportFormats)-1)], err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}
