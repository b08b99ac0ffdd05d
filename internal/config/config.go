// Package config loads studytrack settings from the TOML config file, an
// optional .env file and STUDYTRACK_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/sadopc/studytrack/internal/stats"
	"github.com/sadopc/studytrack/internal/store"
)

const envPrefix = "STUDYTRACK_"

// Config represents the config.toml configuration file.
type Config struct {
	// User is the profile commands act on when --user is not given.
	User     string         `toml:"user"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
	HTTP     HTTPConfig     `toml:"http"`
	Stats    StatsConfig    `toml:"stats"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LogConfig struct {
	Level    string `toml:"level"`
	Encoding string `toml:"encoding"`
	// File is where the TUI writes its log; other commands log to stderr.
	File string `toml:"file"`
}

type HTTPConfig struct {
	Addr string `toml:"addr"`
}

// StatsConfig holds the statistics thresholds. Zero values fall back to the
// engine defaults.
type StatsConfig struct {
	StreakMinMinutes int    `toml:"streak_min_minutes"`
	DailyGoal        int    `toml:"daily_goal"`
	WeeklyGoal       int    `toml:"weekly_goal"`
	MonthlyGoal      int    `toml:"monthly_goal"`
	ShortWindow      int    `toml:"short_window"`
	LongWindow       int    `toml:"long_window"`
	BucketHours      int    `toml:"bucket_hours"`
	Timezone         string `toml:"timezone"`
}

// Default returns the configuration used when no file or variables are set.
func Default() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	d := stats.DefaultConfig()
	return &Config{
		User:     "default",
		Database: DatabaseConfig{Path: filepath.Join(dir, "studytrack.db")},
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
			File:     filepath.Join(dir, "studytrack.log"),
		},
		HTTP: HTTPConfig{Addr: "127.0.0.1:8080"},
		Stats: StatsConfig{
			StreakMinMinutes: d.StreakMinMinutes,
			DailyGoal:        d.DailyGoalMinutes,
			WeeklyGoal:       d.WeeklyGoalMinutes,
			MonthlyGoal:      d.MonthlyGoalMinutes,
			ShortWindow:      d.ShortWindowDays,
			LongWindow:       d.LongWindowDays,
			BucketHours:      d.BucketHours,
		},
	}, nil
}

// Dir is the directory holding the config file, database and log.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "studytrack"), nil
}

// Load builds the configuration. An empty path means the default config file;
// a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "config.toml")
	}
	if err := loadConfigFile(path, cfg); err != nil {
		return nil, err
	}

	_ = godotenv.Load(".env")
	applyEnv(cfg)

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.User = getString("USER", cfg.User)
	cfg.Database.Path = getString("DB", cfg.Database.Path)
	cfg.Log.Level = getString("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Encoding = getString("LOG_ENCODING", cfg.Log.Encoding)
	cfg.Log.File = getString("LOG_FILE", cfg.Log.File)
	cfg.HTTP.Addr = getString("HTTP_ADDR", cfg.HTTP.Addr)
	cfg.Stats.StreakMinMinutes = getInt("STREAK_MIN_MINUTES", cfg.Stats.StreakMinMinutes)
	cfg.Stats.DailyGoal = getInt("DAILY_GOAL", cfg.Stats.DailyGoal)
	cfg.Stats.WeeklyGoal = getInt("WEEKLY_GOAL", cfg.Stats.WeeklyGoal)
	cfg.Stats.MonthlyGoal = getInt("MONTHLY_GOAL", cfg.Stats.MonthlyGoal)
	cfg.Stats.Timezone = getString("TIMEZONE", cfg.Stats.Timezone)
}

// Location resolves the configured timezone; empty means the system zone.
func (c *Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Stats.Timezone)
	if tz == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return loc, nil
}

// StatsConfig converts the [stats] section into engine configuration.
func (c *Config) StatsConfig() (stats.Config, error) {
	loc, err := c.Location()
	if err != nil {
		return stats.Config{}, err
	}
	sc := stats.DefaultConfig()
	sc.Location = loc
	setPositive(&sc.StreakMinMinutes, c.Stats.StreakMinMinutes)
	setPositive(&sc.DailyGoalMinutes, c.Stats.DailyGoal)
	setPositive(&sc.WeeklyGoalMinutes, c.Stats.WeeklyGoal)
	setPositive(&sc.MonthlyGoalMinutes, c.Stats.MonthlyGoal)
	setPositive(&sc.ShortWindowDays, c.Stats.ShortWindow)
	setPositive(&sc.LongWindowDays, c.Stats.LongWindow)
	setPositive(&sc.BucketHours, c.Stats.BucketHours)
	return sc, nil
}

// ApplySettings overlays the goal and streak rows a user saved from the
// settings screen. Keys with no saved row keep their configured value.
// Unknown keys and unparsable values are ignored.
func ApplySettings(sc stats.Config, settings []store.Setting) stats.Config {
	for _, s := range settings {
		v, err := strconv.Atoi(strings.TrimSpace(s.Value))
		if err != nil || v <= 0 {
			continue
		}
		switch s.Key {
		case store.SettingStreakMinMinutes:
			sc.StreakMinMinutes = v
		case store.SettingGoalDaily:
			sc.DailyGoalMinutes = v
		case store.SettingGoalWeekly:
			sc.WeeklyGoalMinutes = v
		case store.SettingGoalMonthly:
			sc.MonthlyGoalMinutes = v
		}
	}
	return sc
}

func setPositive(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func getString(key, fallback string) string {
	if val := os.Getenv(envPrefix + key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(envPrefix + key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}
