package store

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxTitleLen = 100

const todoColumns = `id, user_id, title, completed, is_important, important_marked_at, is_edited, created_at, updated_at`

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required: %w", ErrInvalid)
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return fmt.Errorf("title longer than %d characters: %w", maxTitleLen, ErrInvalid)
	}
	return nil
}

func (s *Store) CreateTodo(userID int64, title string) (*TodoItem, error) {
	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}
	now := s.stamp()
	res, err := s.db.Exec(
		`INSERT INTO todo_items (user_id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		userID, title, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert todo: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetTodo(userID, id)
}

func (s *Store) GetTodo(userID, id int64) (*TodoItem, error) {
	row := s.db.QueryRow(`SELECT `+todoColumns+` FROM todo_items WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTodo(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get todo %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get todo %d: %w", id, err)
	}
	return t, nil
}

// EditTodoTitle renames a todo and flags it as edited. CreatedAt is kept.
func (s *Store) EditTodoTitle(userID, id int64, title string) (*TodoItem, error) {
	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return nil, fmt.Errorf("edit todo: %w", err)
	}
	res, err := s.db.Exec(
		`UPDATE todo_items SET title = ?, is_edited = 1, updated_at = ? WHERE id = ? AND user_id = ?`,
		title, s.stamp(), id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("edit todo: %w", err)
	}
	if err := expectOne(res, "todo", id); err != nil {
		return nil, err
	}
	return s.GetTodo(userID, id)
}

// ToggleTodo flips completion. Completing a todo also drops its importance.
func (s *Store) ToggleTodo(userID, id int64) (*TodoItem, error) {
	t, err := s.GetTodo(userID, id)
	if err != nil {
		return nil, err
	}
	completed := !t.Completed
	query := `UPDATE todo_items SET completed = ?, updated_at = ? WHERE id = ? AND user_id = ?`
	if completed {
		query = `UPDATE todo_items SET completed = ?, is_important = 0, important_marked_at = NULL, updated_at = ? WHERE id = ? AND user_id = ?`
	}
	if _, err := s.db.Exec(query, boolInt(completed), s.stamp(), id, userID); err != nil {
		return nil, fmt.Errorf("toggle todo: %w", err)
	}
	return s.GetTodo(userID, id)
}

// ToggleImportant flips importance, stamping or clearing important_marked_at
// with it. A completed todo cannot be marked important.
func (s *Store) ToggleImportant(userID, id int64) (*TodoItem, error) {
	t, err := s.GetTodo(userID, id)
	if err != nil {
		return nil, err
	}
	now := s.stamp()
	if t.IsImportant {
		_, err = s.db.Exec(
			`UPDATE todo_items SET is_important = 0, important_marked_at = NULL, updated_at = ? WHERE id = ? AND user_id = ?`,
			now, id, userID,
		)
	} else {
		if t.Completed {
			return nil, fmt.Errorf("mark todo %d important: already completed: %w", id, ErrInvalid)
		}
		_, err = s.db.Exec(
			`UPDATE todo_items SET is_important = 1, important_marked_at = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
			now, now, id, userID,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("toggle important: %w", err)
	}
	return s.GetTodo(userID, id)
}

func (s *Store) DeleteTodo(userID, id int64) error {
	res, err := s.db.Exec(`DELETE FROM todo_items WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete todo %d: %w", id, err)
	}
	return expectOne(res, "todo", id)
}

// ListTodos returns every todo the user owns, in the default listing order.
func (s *Store) ListTodos(userID int64) ([]TodoItem, error) {
	p, err := s.FilterTodos(userID, TodoFilter{})
	if err != nil {
		return nil, err
	}
	return p.Items, nil
}

// FilterTodos lists todos with important ones first (most recently marked
// first), then open before done when both are shown, then by creation time.
func (s *Store) FilterTodos(userID int64, f TodoFilter) (*TodoPage, error) {
	where := ` WHERE user_id = ?`
	args := []any{userID}
	switch f.Status {
	case TodoPending:
		where += ` AND completed = 0`
	case TodoCompleted:
		where += ` AND completed = 1`
	case "", TodoAll:
	default:
		return nil, fmt.Errorf("unknown todo filter %q: %w", f.Status, ErrInvalid)
	}

	dir := "DESC"
	switch f.Order {
	case TodoOldest:
		dir = "ASC"
	case "", TodoNewest:
	default:
		return nil, fmt.Errorf("unknown todo order %q: %w", f.Order, ErrInvalid)
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM todo_items`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count todos: %w", err)
	}

	order := ` ORDER BY is_important DESC, important_marked_at DESC`
	if f.Status == "" || f.Status == TodoAll {
		order += `, completed ASC`
	}
	order += fmt.Sprintf(`, created_at %s, id %s`, dir, dir)

	page := &TodoPage{Total: total, Page: 1, TotalPages: 1}
	query := `SELECT ` + todoColumns + ` FROM todo_items` + where + order
	if f.Page > 0 {
		page.TotalPages = (total + TodoPageSize - 1) / TodoPageSize
		if page.TotalPages < 1 {
			page.TotalPages = 1
		}
		page.Page = f.Page
		if page.Page > page.TotalPages {
			page.Page = page.TotalPages
		}
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, TodoPageSize, (page.Page-1)*TodoPageSize)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, *t)
	}
	return page, rows.Err()
}

func scanTodo(r rowScanner) (*TodoItem, error) {
	t := &TodoItem{}
	var completed, important, edited int
	var markedAt sql.NullString
	var createdAt, updatedAt string
	if err := r.Scan(&t.ID, &t.UserID, &t.Title, &completed, &important, &markedAt, &edited, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	t.Completed = completed == 1
	t.IsImportant = important == 1
	t.IsEdited = edited == 1
	if markedAt.Valid {
		m := parseStamp(markedAt.String)
		t.ImportantMarkedAt = &m
	}
	t.CreatedAt = parseStamp(createdAt)
	t.UpdatedAt = parseStamp(updatedAt)
	return t, nil
}
