package store

import (
	"database/sql"
	"fmt"
	"strconv"
)

// Per-user setting keys. All hold positive minute counts.
const (
	SettingStreakMinMinutes = "streak_min_minutes"
	SettingGoalDaily        = "goal_daily"
	SettingGoalWeekly       = "goal_weekly"
	SettingGoalMonthly      = "goal_monthly"
)

func (s *Store) GetSetting(userID int64, key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM user_settings WHERE user_id = ? AND key = ?`, userID, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("get setting %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

// SetMinutesSetting stores a positive minute count under key for the user.
func (s *Store) SetMinutesSetting(userID int64, key string, minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("set setting %q: %d is not positive: %w", key, minutes, ErrInvalid)
	}
	_, err := s.db.Exec(
		`INSERT INTO user_settings (user_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, key) DO UPDATE SET value = excluded.value`,
		userID, key, strconv.Itoa(minutes),
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// GetAllSettings returns the user's saved settings. Keys never saved are absent.
func (s *Store) GetAllSettings(userID int64) ([]Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM user_settings WHERE user_id = ? ORDER BY key`, userID)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}
