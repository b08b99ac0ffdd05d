package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/studytrack/internal/stats"
)

// cli runs commands in-process against one database.
type cli struct {
	t      *testing.T
	config string
	db     string
}

func newCLI(t *testing.T) *cli {
	return newCLIWithStats(t, `timezone = "UTC"`)
}

// newCLIWithStats writes a config whose [stats] section is body.
func newCLIWithStats(t *testing.T, body string) *cli {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	config := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(config, []byte(`
user = "ada"

[log]
level = "error"

[stats]
`+body+"\n"), 0o644))
	return &cli{t: t, config: config, db: filepath.Join(dir, "study.db")}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", c.config, "--db", c.db}, args...))
	err := root.Execute()
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, "studytrack %s", strings.Join(args, " "))
	return out
}

func TestUserCommands(t *testing.T) {
	c := newCLI(t)

	assert.Contains(t, c.mustRun("user", "list"), "No users")
	assert.Contains(t, c.mustRun("user", "add", "grace"), "Created user grace")

	_, err := c.run("user", "add", "grace")
	assert.Error(t, err, "duplicate names are rejected")

	assert.Contains(t, c.mustRun("user", "list"), "grace")
	assert.Contains(t, c.mustRun("user", "delete", "grace"), "Deleted user grace")

	_, err = c.run("user", "delete", "grace")
	assert.Error(t, err)
}

func TestSessionCommands(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun("--today", "2024-01-02", "session", "add", "Maths", "45", "--note", "chapter 3")
	assert.Contains(t, out, "Maths 45m on 2024-01-02")
	c.mustRun("session", "add", "Physics", "90", "--date", "2024-01-01")

	out = c.mustRun("session", "list")
	assert.Contains(t, out, "Maths")
	assert.Contains(t, out, "chapter 3")
	assert.Contains(t, out, "2 session(s), 2h 15m")

	out = c.mustRun("session", "list", "--subject", "Physics")
	assert.NotContains(t, out, "Maths")

	out = c.mustRun("session", "list", "--date", "2024-01-02")
	assert.Contains(t, out, "1 session(s), 45m")

	c.mustRun("session", "edit", "1", "--minutes", "50")
	assert.Contains(t, c.mustRun("session", "list", "--date", "2024-01-02"), "50m")

	c.mustRun("session", "delete", "1")
	assert.Contains(t, c.mustRun("session", "list", "--date", "2024-01-02"), "No sessions")
}

func TestSessionCommandErrors(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("session", "add", "Maths", "lots")
	assert.Error(t, err)
	_, err = c.run("session", "add", "Maths", "0")
	assert.Error(t, err)
	_, err = c.run("session", "add", "Maths", "30", "--date", "02/01/2024")
	assert.Error(t, err)
	_, err = c.run("session", "delete", "abc")
	assert.Error(t, err)
	_, err = c.run("session", "delete", "99")
	assert.Error(t, err)
	_, err = c.run("--today", "yesterday", "session", "list")
	assert.Error(t, err)
}

func TestTodoCommands(t *testing.T) {
	c := newCLI(t)

	assert.Contains(t, c.mustRun("todo", "add", "Read", "chapter", "3"), "Added todo 1: Read chapter 3")
	c.mustRun("todo", "add", "Past paper")

	c.mustRun("todo", "done", "1")
	c.mustRun("todo", "important", "2")

	out := c.mustRun("todo", "list", "--filter", "pending")
	assert.Contains(t, out, "Past paper")
	assert.NotContains(t, out, "Read chapter 3")
	assert.Contains(t, out, "★")

	out = c.mustRun("todo", "list", "--filter", "completed")
	assert.Contains(t, out, "Read chapter 3")

	assert.Contains(t, c.mustRun("todo", "edit", "2", "Past", "paper", "2023"), "Updated todo 2: Past paper 2023")
	c.mustRun("todo", "delete", "1")
	assert.Contains(t, c.mustRun("todo", "list"), "(1 todos)")

	_, err := c.run("todo", "list", "--filter", "someday")
	assert.Error(t, err)
}

func TestEventCommands(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun("event", "add", "2024-03-20", "Maths", "exam", "--color", "red")
	assert.Contains(t, out, "Maths exam on 2024-03-20")

	out = c.mustRun("event", "list", "--month", "2024-03")
	assert.Contains(t, out, "Maths exam")
	assert.Contains(t, out, "red")

	assert.Contains(t, c.mustRun("event", "list", "--month", "2024-04"), "No events in April 2024")

	_, err := c.run("event", "add", "2024-03-21", "Party", "--color", "pink")
	assert.Error(t, err)

	c.mustRun("event", "delete", "1")
	assert.Contains(t, c.mustRun("event", "list", "--month", "2024-03"), "No events")
}

func seedStreak(c *cli) {
	c.mustRun("session", "add", "Maths", "70", "--date", "2024-01-01")
	c.mustRun("session", "add", "Physics", "65", "--date", "2024-01-02")
}

func TestStatsJSON(t *testing.T) {
	c := newCLI(t)
	seedStreak(c)

	out := c.mustRun("--today", "2024-01-02", "stats", "--json")
	var r stats.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))

	assert.Equal(t, "2024-01-02", r.Date)
	assert.Equal(t, 65, r.TodayMinutes)
	assert.Equal(t, 2, r.CurrentStreak)
	assert.Equal(t, 2, r.LongestStreak)
	assert.Equal(t, 135, r.AllTime.TotalMinutes)
	require.NotNil(t, r.AllTime.LongestSession)
	assert.Equal(t, "Maths", r.AllTime.LongestSession.Subject)
	assert.Len(t, r.Days, 7)
}

func TestStatsWestOfUTCWithConfiguredThreshold(t *testing.T) {
	c := newCLIWithStats(t, "timezone = \"America/New_York\"\nstreak_min_minutes = 66\ndaily_goal = 130")
	seedStreak(c)

	out := c.mustRun("--today", "2024-01-02", "stats", "--json")
	var r stats.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))

	assert.Equal(t, "2024-01-02", r.Date)
	assert.Equal(t, 65, r.TodayMinutes)
	assert.Equal(t, 66, r.StreakMinMinutes)
	assert.Equal(t, 0, r.CurrentStreak)
	assert.Equal(t, 1, r.LongestStreak)
	goal, ok := r.Goal("daily")
	require.True(t, ok)
	assert.Equal(t, 130, goal.GoalMinutes)
	assert.Equal(t, 50, goal.Percent)
}

func TestStatsText(t *testing.T) {
	c := newCLI(t)
	seedStreak(c)

	out := c.mustRun("--today", "2024-01-03", "stats")
	assert.Contains(t, out, "Statistics for ada on 2024-01-03")
	assert.Contains(t, out, "Current streak: 0 day(s)")
	assert.Contains(t, out, "Longest streak: 2 day(s)")
	assert.Contains(t, out, "[x] First Step")
}

func TestStatsMarkdownIsPlainWhenNotATerminal(t *testing.T) {
	c := newCLI(t)
	seedStreak(c)

	out := c.mustRun("--today", "2024-01-02", "stats", "--markdown")
	assert.True(t, strings.HasPrefix(out, "# Study report for ada"))
	assert.Contains(t, out, "## Achievements")

	_, err := c.run("stats", "--markdown", "--json")
	assert.Error(t, err)
}

func TestStatsRange(t *testing.T) {
	c := newCLI(t)
	seedStreak(c)

	out := c.mustRun("--today", "2024-01-05", "stats", "--from", "2024-01-02", "--to", "2024-01-05", "--json")
	var s stats.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, 65, s.TotalMinutes)
	assert.Equal(t, 4, s.CalendarDays)
	assert.Equal(t, 16, s.AvgPerCalendarDay)

	_, err := c.run("stats", "--from", "2024-01-05", "--to", "2024-01-01")
	assert.Error(t, err)
}

func TestExportCommand(t *testing.T) {
	c := newCLI(t)
	seedStreak(c)

	out := c.mustRun("export")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID,Date,Subject,Minutes,Duration,Note,Created", lines[0])

	path := filepath.Join(t.TempDir(), "report.json")
	assert.Contains(t, c.mustRun("--today", "2024-01-02", "export", "--format", "json", "--output", path), "Exported to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc struct {
		User   string       `json:"user"`
		Count  int          `json:"count"`
		Report stats.Report `json:"report"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "ada", doc.User)
	assert.Equal(t, 2, doc.Count)
	assert.Equal(t, 2, doc.Report.CurrentStreak)

	assert.Contains(t, c.mustRun("export", "-f", "markdown"), "# Study report for ada")

	_, err = c.run("export", "--format", "xml")
	assert.Error(t, err)
}

func TestUserFlagSelectsProfile(t *testing.T) {
	c := newCLI(t)
	c.mustRun("--user", "grace", "session", "add", "Chemistry", "30")

	assert.Contains(t, c.mustRun("--user", "grace", "session", "list"), "Chemistry")
	assert.Contains(t, c.mustRun("session", "list"), "No sessions")
}

func TestFixedClock(t *testing.T) {
	clock, err := fixedClock("", time.UTC)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), clock(), time.Minute)

	loc := time.FixedZone("UTC+9", 9*3600)
	clock, err = fixedClock("2024-01-02", loc)
	require.NoError(t, err)
	assert.True(t, clock().Equal(time.Date(2024, 1, 2, 12, 0, 0, 0, loc)))

	_, err = fixedClock("2024-13-40", time.UTC)
	assert.Error(t, err)
}
