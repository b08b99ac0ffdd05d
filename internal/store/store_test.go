package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// steppingClock returns a clock that advances one minute per call, so
// server-assigned timestamps are distinct and ordered.
func steppingClock(start time.Time) func() time.Time {
	cur := start.Add(-time.Minute)
	return func() time.Time {
		cur = cur.Add(time.Minute)
		return cur
	}
}

func newTestUser(t *testing.T, s *Store, name string) *User {
	t.Helper()
	u, err := s.CreateUser(name)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func day(s string) time.Time {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != currentVersion {
		t.Fatalf("expected user_version %d, got %d", currentVersion, version)
	}
}

func TestMigrateFromV1DropsGlobalSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v1.db")
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.db.Exec(`
		DROP TABLE user_settings;
		CREATE TABLE settings (key TEXT PRIMARY KEY, value TEXT NOT NULL);
		INSERT INTO settings (key, value) VALUES ('goal_daily', '60');
		PRAGMA user_version = 1;
	`); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var n int
	s.db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'settings'`).Scan(&n)
	if n != 0 {
		t.Fatal("global settings table should be dropped")
	}
	u := newTestUser(t, s, "alice")
	if err := s.SetMinutesSetting(u.ID, SettingGoalDaily, 75); err != nil {
		t.Fatal(err)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/studytrack.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateUser("alice"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen: data survives and migrations do not run twice.
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	if _, err := s2.GetUserByName("alice"); err != nil {
		t.Fatalf("user lost across reopen: %v", err)
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

func TestForeignKeysEnabled(t *testing.T) {
	s := newTestStore(t)
	var fk int
	s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if fk != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fk)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Users
// ============================================================

func TestCreateUser(t *testing.T) {
	s := newTestStore(t)
	u, err := s.CreateUser("  alice ")
	if err != nil {
		t.Fatal(err)
	}
	if u.Name != "alice" || u.ID == 0 || u.CreatedAt.IsZero() {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	s := newTestStore(t)
	newTestUser(t, s, "alice")
	_, err := s.CreateUser("alice")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCreateUserEmpty(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateUser("   "); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestEnsureUser(t *testing.T) {
	s := newTestStore(t)
	u1, err := s.EnsureUser("bob")
	if err != nil {
		t.Fatal(err)
	}
	u2, err := s.EnsureUser("bob")
	if err != nil {
		t.Fatal(err)
	}
	if u1.ID != u2.ID {
		t.Fatal("EnsureUser should return the existing user")
	}
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetUserByName("ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	s := newTestStore(t)
	newTestUser(t, s, "carol")
	newTestUser(t, s, "alice")
	users, err := s.ListUsers()
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 || users[0].Name != "alice" {
		t.Fatalf("expected users sorted by name, got %+v", users)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "alice")
	s.CreateSession(u.ID, "Math", 30, day("2024-01-01"), "")
	s.CreateTodo(u.ID, "read")
	s.CreateEvent(u.ID, day("2024-01-01"), "exam", "red")

	if err := s.DeleteUser(u.ID); err != nil {
		t.Fatal(err)
	}

	for _, table := range []string{"study_sessions", "todo_items", "calendar_events"} {
		var n int
		s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n)
		if n != 0 {
			t.Fatalf("%s should be empty after user delete, has %d rows", table, n)
		}
	}
	if err := s.DeleteUser(u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
}

// ============================================================
// Study sessions
// ============================================================

func TestCreateAndGetSession(t *testing.T) {
	s := newTestStore(t)
	s.SetClock(steppingClock(time.Date(2024, 1, 1, 14, 30, 0, 0, time.UTC)))
	u := newTestUser(t, s, "alice")

	sess, err := s.CreateSession(u.ID, "Physics", 45, day("2024-01-01"), "chapter 3")
	if err != nil {
		t.Fatal(err)
	}
	if sess.Subject != "Physics" || sess.Duration != 45 || sess.Note != "chapter 3" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if sess.Date.Format(dateLayout) != "2024-01-01" {
		t.Fatalf("date = %s", sess.Date)
	}
	if sess.CreatedAt.Hour() != 14 {
		t.Fatalf("created_at hour = %d, want 14", sess.CreatedAt.Hour())
	}
}

func TestCreateSessionValidation(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "alice")

	tests := []struct {
		name    string
		subject string
		minutes int
	}{
		{"zero duration", "Math", 0},
		{"negative duration", "Math", -5},
		{"empty subject", "  ", 30},
		{"long subject", string(make([]byte, 126)), 30},
	}
	for _, tt := range tests {
		if _, err := s.CreateSession(u.ID, tt.subject, tt.minutes, day("2024-01-01"), ""); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", tt.name, err)
		}
	}
}

func TestSessionOwnership(t *testing.T) {
	s := newTestStore(t)
	alice := newTestUser(t, s, "alice")
	bob := newTestUser(t, s, "bob")

	sess, _ := s.CreateSession(alice.ID, "Math", 30, day("2024-01-01"), "")
	if _, err := s.GetSession(bob.ID, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("bob should not see alice's session, got %v", err)
	}
	if err := s.DeleteSession(bob.ID, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("bob should not delete alice's session, got %v", err)
	}
	list, _ := s.ListSessions(bob.ID)
	if len(list) != 0 {
		t.Fatalf("bob should have no sessions, got %d", len(list))
	}
}

func TestUpdateSessionKeepsCreatedAt(t *testing.T) {
	s := newTestStore(t)
	s.SetClock(steppingClock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)))
	u := newTestUser(t, s, "alice")
	sess, _ := s.CreateSession(u.ID, "Math", 30, day("2024-01-01"), "")

	updated, err := s.UpdateSession(u.ID, sess.ID, "Algebra", 50, day("2024-01-05"), "moved")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Subject != "Algebra" || updated.Duration != 50 || updated.Date.Format(dateLayout) != "2024-01-05" {
		t.Fatalf("unexpected update: %+v", updated)
	}
	if !updated.CreatedAt.Equal(sess.CreatedAt) {
		t.Fatal("created_at must not change on edit")
	}
	if !updated.UpdatedAt.After(sess.UpdatedAt) {
		t.Fatal("updated_at should advance")
	}
	if _, err := s.UpdateSession(u.ID, sess.ID, "Algebra", 0, day("2024-01-05"), ""); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for zero duration, got %v", err)
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "alice")
	sess, _ := s.CreateSession(u.ID, "Math", 30, day("2024-01-01"), "")

	if err := s.DeleteSession(u.ID, sess.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetSession(u.ID, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestListSessionsOrder(t *testing.T) {
	s := newTestStore(t)
	s.SetClock(steppingClock(time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC)))
	u := newTestUser(t, s, "alice")

	s.CreateSession(u.ID, "A", 10, day("2024-01-01"), "")
	s.CreateSession(u.ID, "B", 10, day("2024-01-02"), "")
	s.CreateSession(u.ID, "C", 10, day("2024-01-02"), "")

	list, err := s.ListSessions(u.ID)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, e := range list {
		got = append(got, e.Subject)
	}
	want := []string{"C", "B", "A"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestFilterSessionsByDate(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "alice")
	s.CreateSession(u.ID, "A", 10, day("2024-01-01"), "")
	s.CreateSession(u.ID, "B", 20, day("2024-01-02"), "")
	s.CreateSession(u.ID, "C", 30, day("2024-01-02"), "")

	d := day("2024-01-02")
	list, _ := s.FilterSessions(u.ID, SessionFilter{Date: &d})
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions on 2024-01-02, got %d", len(list))
	}

	list, _ = s.FilterSessions(u.ID, SessionFilter{Subject: "A"})
	if len(list) != 1 || list[0].Subject != "A" {
		t.Fatalf("subject filter failed: %+v", list)
	}

	list, _ = s.FilterSessions(u.ID, SessionFilter{Limit: 1})
	if len(list) != 1 {
		t.Fatalf("limit failed: %d", len(list))
	}
}

func TestDayTotal(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "alice")
	s.CreateSession(u.ID, "A", 25, day("2024-01-02"), "")
	s.CreateSession(u.ID, "B", 40, day("2024-01-02"), "")
	s.CreateSession(u.ID, "C", 90, day("2024-01-03"), "")

	total, err := s.DayTotal(u.ID, day("2024-01-02"))
	if err != nil {
		t.Fatal(err)
	}
	if total != 65 {
		t.Fatalf("total = %d, want 65", total)
	}
	total, _ = s.DayTotal(u.ID, day("2024-02-01"))
	if total != 0 {
		t.Fatalf("empty day total = %d, want 0", total)
	}
}

// ============================================================
// Todos
// ============================================================

func TestCreateTodo(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "alice")

	todo, err := s.CreateTodo(u.ID, "Read chapter 4")
	if err != nil {
		t.Fatal(err)
	}
	if todo.Completed || todo.IsImportant || todo.IsEdited || todo.ImportantMarkedAt != nil {
		t.Fatalf("new todo has unexpected flags: %+v", todo)
	}
	if _, err := s.CreateTodo(u.ID, string(make([]rune, 101))); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for long title, got %v", err)
	}
}

func TestEditTodoTitle(t *testing.T) {
	s := newTestStore(t)
	s.SetClock(steppingClock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)))
	u := newTestUser(t, s, "alice")
	todo, _ := s.CreateTodo(u.ID, "draft")

	edited, err := s.EditTodoTitle(u.ID, todo.ID, "final")
	if err != nil {
		t.Fatal(err)
	}
	if edited.Title != "final" || !edited.IsEdited {
		t.Fatalf("unexpected edit result: %+v", edited)
	}
	if !edited.CreatedAt.Equal(todo.CreatedAt) {
		t.Fatal("created_at must be preserved on edit")
	}
}

func TestToggleImportant(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "alice")
	todo, _ := s.CreateTodo(u.ID, "task")

	marked, err := s.ToggleImportant(u.ID, todo.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !marked.IsImportant || marked.ImportantMarkedAt == nil {
		t.Fatalf("expected important with timestamp: %+v", marked)
	}

	unmarked, _ := s.ToggleImportant(u.ID, todo.ID)
	if unmarked.IsImportant || unmarked.ImportantMarkedAt != nil {
		t.Fatalf("expected importance cleared: %+v", unmarked)
	}
}

func TestCompletingClearsImportance(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "alice")
	todo, _ := s.CreateTodo(u.ID, "task")
	s.ToggleImportant(u.ID, todo.ID)

	done, err := s.ToggleTodo(u.ID, todo.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !done.Completed || done.IsImportant || done.ImportantMarkedAt != nil {
		t.Fatalf("completion must supersede importance: %+v", done)
	}

	if _, err := s.ToggleImportant(u.ID, todo.ID); !errors.Is(err, ErrInvalid) {
		t.Fatalf("completed todo cannot become important, got %v", err)
	}

	reopened, _ := s.ToggleTodo(u.ID, todo.ID)
	if reopened.Completed || reopened.IsImportant {
		t.Fatalf("reopened todo should be plain pending: %+v", reopened)
	}
}

func TestDeleteTodo(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "alice")
	todo, _ := s.CreateTodo(u.ID, "task")
	if err := s.DeleteTodo(u.ID, todo.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteTodo(u.ID, todo.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFilterTodosOrdering(t *testing.T) {
	s := newTestStore(t)
	s.SetClock(steppingClock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)))
	u := newTestUser(t, s, "alice")

	a, _ := s.CreateTodo(u.ID, "a")
	b, _ := s.CreateTodo(u.ID, "b")
	c, _ := s.CreateTodo(u.ID, "c")
	d, _ := s.CreateTodo(u.ID, "d")

	s.ToggleTodo(u.ID, d.ID)      // d done
	s.ToggleImportant(u.ID, a.ID) // a important
	s.ToggleImportant(u.ID, b.ID) // b important, marked later than a

	page, err := s.FilterTodos(u.ID, TodoFilter{})
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, it := range page.Items {
		got = append(got, it.Title)
	}
	want := []string{"b", "a", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	pending, _ := s.FilterTodos(u.ID, TodoFilter{Status: TodoPending})
	if pending.Total != 3 {
		t.Fatalf("pending total = %d, want 3", pending.Total)
	}
	done, _ := s.FilterTodos(u.ID, TodoFilter{Status: TodoCompleted})
	if done.Total != 1 || done.Items[0].ID != d.ID {
		t.Fatalf("completed filter wrong: %+v", done)
	}

	oldest, _ := s.FilterTodos(u.ID, TodoFilter{Status: TodoPending, Order: TodoOldest})
	if oldest.Items[2].ID != c.ID {
		t.Fatalf("oldest order: last pending should be c, got %q", oldest.Items[2].Title)
	}
}

func TestFilterTodosPagination(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "alice")
	for i := 0; i < 23; i++ {
		s.CreateTodo(u.ID, "task")
	}

	page, err := s.FilterTodos(u.ID, TodoFilter{Page: 3})
	if err != nil {
		t.Fatal(err)
	}
	if page.TotalPages != 3 || len(page.Items) != 3 || page.Page != 3 {
		t.Fatalf("unexpected page 3: pages=%d items=%d page=%d", page.TotalPages, len(page.Items), page.Page)
	}

	clamped, _ := s.FilterTodos(u.ID, TodoFilter{Page: 9})
	if clamped.Page != 3 {
		t.Fatalf("out-of-range page should clamp to 3, got %d", clamped.Page)
	}
}

func TestFilterTodosEmptyAndInvalid(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "alice")

	page, err := s.FilterTodos(u.ID, TodoFilter{Page: 2})
	if err != nil {
		t.Fatal(err)
	}
	if page.Page != 1 || page.TotalPages != 1 || len(page.Items) != 0 {
		t.Fatalf("empty listing: %+v", page)
	}
	if _, err := s.FilterTodos(u.ID, TodoFilter{Status: "bogus"}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

// ============================================================
// Calendar events
// ============================================================

func TestCreateEvent(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "alice")

	ev, err := s.CreateEvent(u.ID, day("2024-03-14"), "Exam", "")
	if err != nil {
		t.Fatal(err)
	}
	if ev.Color != "blue" {
		t.Fatalf("default color = %q, want blue", ev.Color)
	}
	if _, err := s.CreateEvent(u.ID, day("2024-03-14"), "Exam", "#ff00ff"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for off-palette color, got %v", err)
	}
}

func TestListEventsByMonth(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "alice")
	s.CreateEvent(u.ID, day("2024-02-29"), "Leap", "green")
	s.CreateEvent(u.ID, day("2024-03-01"), "First", "red")
	s.CreateEvent(u.ID, day("2024-03-31"), "Last", "red")
	s.CreateEvent(u.ID, day("2024-04-01"), "Next", "red")

	events, err := s.ListEvents(u.ID, day("2024-03-15"))
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[0].Title != "First" || events[1].Title != "Last" {
		t.Fatalf("unexpected march events: %+v", events)
	}
}

func TestDeleteEvent(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "alice")
	ev, _ := s.CreateEvent(u.ID, day("2024-03-14"), "Exam", "red")
	if err := s.DeleteEvent(u.ID, ev.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetEvent(u.ID, ev.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettingsStartEmpty(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "alice")

	all, err := s.GetAllSettings(u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Fatalf("fresh user has %d settings, want none", len(all))
	}
	if _, err := s.GetSetting(u.ID, SettingGoalDaily); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetMinutesSetting(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "alice")
	if err := s.SetMinutesSetting(u.ID, SettingGoalDaily, 90); err != nil {
		t.Fatal(err)
	}
	if err := s.SetMinutesSetting(u.ID, SettingGoalDaily, 100); err != nil {
		t.Fatal(err)
	}
	v, _ := s.GetSetting(u.ID, SettingGoalDaily)
	if v != "100" {
		t.Fatalf("goal_daily = %q, want 100", v)
	}
	if err := s.SetMinutesSetting(u.ID, SettingGoalDaily, 0); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if _, err := s.GetSetting(u.ID, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	all, _ := s.GetAllSettings(u.ID)
	if len(all) != 1 {
		t.Fatalf("expected 1 setting, got %d", len(all))
	}
}

func TestSettingsArePerUser(t *testing.T) {
	s := newTestStore(t)
	alice := newTestUser(t, s, "alice")
	bob := newTestUser(t, s, "bob")

	if err := s.SetMinutesSetting(alice.ID, SettingStreakMinMinutes, 30); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetSetting(bob.ID, SettingStreakMinMinutes); !errors.Is(err, ErrNotFound) {
		t.Fatalf("bob should not see alice's setting, got %v", err)
	}

	if err := s.DeleteUser(alice.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetSetting(alice.ID, SettingStreakMinMinutes); !errors.Is(err, ErrNotFound) {
		t.Fatalf("settings should go with the user, got %v", err)
	}
}
