package store

import (
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"
)

func (s *Store) CreateEvent(userID int64, date time.Time, title, color string) (*CalendarEvent, error) {
	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	if color == "" {
		color = EventColors[0]
	}
	if !slices.Contains(EventColors, color) {
		return nil, fmt.Errorf("create event: unknown color %q: %w", color, ErrInvalid)
	}
	res, err := s.db.Exec(
		`INSERT INTO calendar_events (user_id, date, title, color, created_at) VALUES (?, ?, ?, ?, ?)`,
		userID, date.Format(dateLayout), title, color, s.stamp(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetEvent(userID, id)
}

func (s *Store) GetEvent(userID, id int64) (*CalendarEvent, error) {
	ev := &CalendarEvent{}
	var date, createdAt string
	err := s.db.QueryRow(
		`SELECT id, user_id, date, title, color, created_at FROM calendar_events WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&ev.ID, &ev.UserID, &date, &ev.Title, &ev.Color, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get event %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get event %d: %w", id, err)
	}
	ev.Date = parseDate(date)
	ev.CreatedAt = parseStamp(createdAt)
	return ev, nil
}

// ListEvents returns the user's events for the calendar month containing
// month, ordered by day then creation.
func (s *Store) ListEvents(userID int64, month time.Time) ([]CalendarEvent, error) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)

	rows, err := s.db.Query(
		`SELECT id, user_id, date, title, color, created_at FROM calendar_events
		 WHERE user_id = ? AND date >= ? AND date < ?
		 ORDER BY date, created_at, id`,
		userID, first.Format(dateLayout), next.Format(dateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []CalendarEvent
	for rows.Next() {
		var ev CalendarEvent
		var date, createdAt string
		if err := rows.Scan(&ev.ID, &ev.UserID, &date, &ev.Title, &ev.Color, &createdAt); err != nil {
			return nil, err
		}
		ev.Date = parseDate(date)
		ev.CreatedAt = parseStamp(createdAt)
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *Store) DeleteEvent(userID, id int64) error {
	res, err := s.db.Exec(`DELETE FROM calendar_events WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete event %d: %w", id, err)
	}
	return expectOne(res, "event", id)
}
