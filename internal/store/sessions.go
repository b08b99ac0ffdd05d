package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const maxSubjectLen = 125

const sessionColumns = `id, user_id, subject, duration, date, note, created_at, updated_at`

func validateSession(subject string, minutes int) error {
	if strings.TrimSpace(subject) == "" {
		return fmt.Errorf("subject is required: %w", ErrInvalid)
	}
	if utf8.RuneCountInString(subject) > maxSubjectLen {
		return fmt.Errorf("subject longer than %d characters: %w", maxSubjectLen, ErrInvalid)
	}
	if minutes <= 0 {
		return fmt.Errorf("duration must be positive, got %d: %w", minutes, ErrInvalid)
	}
	return nil
}

func (s *Store) CreateSession(userID int64, subject string, minutes int, date time.Time, note string) (*StudySession, error) {
	subject = strings.TrimSpace(subject)
	if err := validateSession(subject, minutes); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	now := s.stamp()
	res, err := s.db.Exec(
		`INSERT INTO study_sessions (user_id, subject, duration, date, note, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, subject, minutes, date.Format(dateLayout), note, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetSession(userID, id)
}

func (s *Store) GetSession(userID, id int64) (*StudySession, error) {
	row := s.db.QueryRow(`SELECT `+sessionColumns+` FROM study_sessions WHERE id = ? AND user_id = ?`, id, userID)
	e, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get session %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %d: %w", id, err)
	}
	return e, nil
}

// UpdateSession rewrites the user-editable fields. CreatedAt is left alone,
// so the hour-of-day bucket of an edited session does not move.
func (s *Store) UpdateSession(userID, id int64, subject string, minutes int, date time.Time, note string) (*StudySession, error) {
	subject = strings.TrimSpace(subject)
	if err := validateSession(subject, minutes); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	res, err := s.db.Exec(
		`UPDATE study_sessions SET subject = ?, duration = ?, date = ?, note = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		subject, minutes, date.Format(dateLayout), note, s.stamp(), id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	if err := expectOne(res, "session", id); err != nil {
		return nil, err
	}
	return s.GetSession(userID, id)
}

func (s *Store) DeleteSession(userID, id int64) error {
	res, err := s.db.Exec(`DELETE FROM study_sessions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete session %d: %w", id, err)
	}
	return expectOne(res, "session", id)
}

// ListSessions returns every session the user owns, newest day first.
func (s *Store) ListSessions(userID int64) ([]StudySession, error) {
	return s.FilterSessions(userID, SessionFilter{})
}

func (s *Store) FilterSessions(userID int64, f SessionFilter) ([]StudySession, error) {
	query := `SELECT ` + sessionColumns + ` FROM study_sessions WHERE user_id = ?`
	args := []any{userID}

	if f.Date != nil {
		query += ` AND date = ?`
		args = append(args, f.Date.Format(dateLayout))
	}
	if f.Subject != "" {
		query += ` AND subject = ?`
		args = append(args, f.Subject)
	}
	query += ` ORDER BY date DESC, created_at DESC, id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []StudySession
	for rows.Next() {
		e, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *e)
	}
	return sessions, rows.Err()
}

// DayTotal returns the summed minutes the user logged on date.
func (s *Store) DayTotal(userID int64, date time.Time) (int, error) {
	var total sql.NullInt64
	err := s.db.QueryRow(`
		SELECT COALESCE(SUM(duration), 0)
		FROM study_sessions
		WHERE user_id = ? AND date = ?`, userID, date.Format(dateLayout),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("day total: %w", err)
	}
	return int(total.Int64), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(r rowScanner) (*StudySession, error) {
	e := &StudySession{}
	var date, createdAt, updatedAt string
	if err := r.Scan(&e.ID, &e.UserID, &e.Subject, &e.Duration, &date, &e.Note, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	e.Date = parseDate(date)
	e.CreatedAt = parseStamp(createdAt)
	e.UpdatedAt = parseStamp(updatedAt)
	return e, nil
}
