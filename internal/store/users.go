package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

func (s *Store) CreateUser(name string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("create user: empty name: %w", ErrInvalid)
	}
	res, err := s.db.Exec(`INSERT INTO users (name, created_at) VALUES (?, ?)`, name, s.stamp())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("create user %q: %w", name, ErrConflict)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetUser(id)
}

func (s *Store) GetUser(id int64) (*User, error) {
	return s.scanUser(s.db.QueryRow(`SELECT id, name, created_at FROM users WHERE id = ?`, id), fmt.Sprintf("%d", id))
}

func (s *Store) GetUserByName(name string) (*User, error) {
	return s.scanUser(s.db.QueryRow(`SELECT id, name, created_at FROM users WHERE name = ?`, name), name)
}

// EnsureUser returns the named user, creating it on first use.
func (s *Store) EnsureUser(name string) (*User, error) {
	u, err := s.GetUserByName(name)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return s.CreateUser(name)
}

func (s *Store) scanUser(row *sql.Row, key string) (*User, error) {
	u := &User{}
	var createdAt string
	err := row.Scan(&u.ID, &u.Name, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get user %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", key, err)
	}
	u.CreatedAt = parseStamp(createdAt)
	return u, nil
}

func (s *Store) ListUsers() ([]User, error) {
	rows, err := s.db.Query(`SELECT id, name, created_at FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Name, &createdAt); err != nil {
			return nil, err
		}
		u.CreatedAt = parseStamp(createdAt)
		users = append(users, u)
	}
	return users, rows.Err()
}

// DeleteUser removes the user and, through the foreign keys, everything it owns.
func (s *Store) DeleteUser(id int64) error {
	res, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return expectOne(res, "user", id)
}

func expectOne(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}
