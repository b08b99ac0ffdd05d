package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/sadopc/studytrack/internal/config"
	"github.com/sadopc/studytrack/internal/notify"
	"github.com/sadopc/studytrack/internal/stats"
	"github.com/sadopc/studytrack/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewSessions
	viewTodos
	viewStats
	viewSettings
)

var viewNames = []string{"Dashboard", "Sessions", "Todos", "Stats", "Settings"}

// Env is what the TUI needs from the rest of the program.
type Env struct {
	Store *store.Store
	User  *store.User
	// Stats is the configured engine setup; saved settings are layered on top.
	Stats    stats.Config
	Clock    func() time.Time
	Notifier notify.Notifier
	Logger   *zap.Logger
}

// deps is shared by every view. Views hold a pointer so that a settings save
// is seen everywhere.
type deps struct {
	store    *store.Store
	user     *store.User
	base     stats.Config
	clock    func() time.Time
	svc      *stats.Service
	notifier notify.Notifier
	log      *zap.Logger
}

func newDeps(env Env) *deps {
	d := &deps{
		store:    env.Store,
		user:     env.User,
		base:     env.Stats,
		clock:    env.Clock,
		notifier: env.Notifier,
		log:      env.Logger,
	}
	if d.clock == nil {
		d.clock = time.Now
	}
	if d.notifier == nil {
		d.notifier = notify.Nop{}
	}
	if d.log == nil {
		d.log = zap.NewNop()
	}
	if err := d.reloadStats(); err != nil {
		d.log.Warn("load settings", zap.Error(err))
	}
	return d
}

// reloadStats rebuilds the stats service from the base config and the saved
// settings rows.
func (d *deps) reloadStats() error {
	cfg := d.base
	settings, err := d.store.GetAllSettings(d.user.ID)
	if err == nil {
		cfg = config.ApplySettings(cfg, settings)
	}
	svc := stats.NewService(d.store, cfg, d.log)
	svc.SetClock(d.clock)
	d.svc = svc
	return err
}

func (d *deps) today() time.Time {
	return d.svc.Today()
}

// --- Messages ---

type timerStartedMsg struct{}

type sessionLoggedMsg struct {
	session  *store.StudySession
	notified bool
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

type settingsSavedMsg struct{}

func errStatus(format string, err error) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: fmt.Sprintf(format, err), isError: true}
	}
}

func infoStatus(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// progressBar renders percent (0-100) as a bar of width cells.
func progressBar(percent float64, width int) string {
	if width < 1 {
		return ""
	}
	filled := int(percent / 100 * float64(width))
	filled = max(0, min(width, filled))
	return successStyle.Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", width-filled))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minutesDuration(m int) time.Duration {
	return time.Duration(m) * time.Minute
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
