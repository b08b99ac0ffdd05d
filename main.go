// Package main implements the studytrack CLI and terminal UI.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sadopc/studytrack/internal/config"
	"github.com/sadopc/studytrack/internal/logger"
	"github.com/sadopc/studytrack/internal/notify"
	"github.com/sadopc/studytrack/internal/stats"
	"github.com/sadopc/studytrack/internal/store"
	"github.com/sadopc/studytrack/internal/tui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	dbPath     string
	user       string
	today      string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:          "studytrack",
		Short:        "Track study time, streaks and todos",
		Long:         "studytrack logs study sessions and todos and reports streaks, goals and achievements.\nRun without a command to open the terminal UI.",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Config file (default ~/.config/studytrack/config.toml)")
	pf.StringVar(&opts.dbPath, "db", "", "SQLite database path")
	pf.StringVarP(&opts.user, "user", "u", "", "User profile to act on")
	pf.StringVar(&opts.today, "today", "", "Treat this date (YYYY-MM-DD) as today")

	root.AddCommand(
		newUserCmd(opts),
		newSessionCmd(opts),
		newTodoCmd(opts),
		newEventCmd(opts),
		newStatsCmd(opts),
		newExportCmd(opts),
		newServeCmd(opts),
	)
	return root
}

// cliEnv is everything a command needs once flags and config are resolved.
type cliEnv struct {
	cfg      *config.Config
	store    *store.Store
	user     *store.User
	stats    stats.Config
	svc      *stats.Service
	log      *zap.Logger
	clock    func() time.Time
	closeLog func() error
}

type openMode int

const (
	openNoUser openMode = iota // user management commands
	openUser                   // commands acting on one user's records
	openTUI                    // like openUser, logging to a file
)

func (o *globalOptions) open(cmd *cobra.Command, mode openMode) (*cliEnv, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.dbPath != "" {
		cfg.Database.Path = o.dbPath
	}
	if o.user != "" {
		cfg.User = o.user
	}

	sc, err := cfg.StatsConfig()
	if err != nil {
		return nil, err
	}

	clock, err := fixedClock(o.today, sc.Location)
	if err != nil {
		return nil, err
	}

	logCfg := logger.Config{Level: cfg.Log.Level, Encoding: cfg.Log.Encoding, Writer: cmd.ErrOrStderr()}
	if mode == openTUI {
		logCfg.File = cfg.Log.File
	}
	log, closeLog, err := logger.New(logCfg)
	if err != nil {
		return nil, err
	}

	st, err := store.New(cfg.Database.Path)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("open database: %w", err)
	}

	rt := &cliEnv{cfg: cfg, store: st, stats: sc, log: log, clock: clock, closeLog: closeLog}
	if mode == openNoUser {
		return rt, nil
	}

	rt.user, err = st.EnsureUser(cfg.User)
	if err != nil {
		rt.Close()
		return nil, err
	}

	settings, err := st.GetAllSettings(rt.user.ID)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.stats = config.ApplySettings(sc, settings)
	rt.svc = stats.NewService(st, rt.stats, log)
	rt.svc.SetClock(clock)
	return rt, nil
}

func (r *cliEnv) Close() error {
	_ = r.log.Sync()
	return errors.Join(r.store.Close(), r.closeLog())
}

func (r *cliEnv) today() time.Time {
	if r.svc != nil {
		return r.svc.Today()
	}
	now := r.clock().In(r.stats.Location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// fixedClock returns time.Now, or a clock frozen at noon of day when set.
func fixedClock(day string, loc *time.Location) (func() time.Time, error) {
	if day == "" {
		return time.Now, nil
	}
	d, err := time.ParseInLocation(stats.DateLayout, day, loc)
	if err != nil {
		return nil, fmt.Errorf("parse --today %q: %w", day, err)
	}
	noon := d.Add(12 * time.Hour)
	return func() time.Time { return noon }, nil
}

func runTUI(cmd *cobra.Command, opts *globalOptions) error {
	rt, err := opts.open(cmd, openTUI)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.log.Info("tui started", zap.String("user", rt.user.Name), zap.String("db", rt.cfg.Database.Path))

	app := tui.NewApp(tui.Env{
		Store:    rt.store,
		User:     rt.user,
		Stats:    rt.stats,
		Clock:    rt.clock,
		Notifier: notify.NewDesktop(),
		Logger:   rt.log,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
