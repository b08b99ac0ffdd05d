package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/studytrack/internal/stats"
	"github.com/sadopc/studytrack/internal/store"
)

func sampleSessions() []store.StudySession {
	created := time.Date(2024, 1, 3, 9, 30, 0, 0, time.UTC)
	return []store.StudySession{
		{
			ID:        1,
			UserID:    1,
			Subject:   "Linear Algebra",
			Duration:  65,
			Date:      time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
			Note:      "eigenvalues",
			CreatedAt: created,
			UpdatedAt: created,
		},
		{
			ID:        2,
			UserID:    1,
			Subject:   "History",
			Duration:  45,
			Date:      time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			CreatedAt: created.Add(-24 * time.Hour),
			UpdatedAt: created.Add(-24 * time.Hour),
		},
	}
}

func sampleReport() stats.Report {
	cfg := stats.DefaultConfig()
	cfg.Location = time.UTC
	return stats.Build(sampleSessions(), nil, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), cfg)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return records
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.csv")

	if err := ToCSV(sampleSessions(), path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 3 {
		t.Fatalf("expected 3 rows (1 header + 2 data), got %d", len(records))
	}

	expectedHeader := []string{"ID", "Date", "Subject", "Minutes", "Duration", "Note", "Created"}
	for i, h := range expectedHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	row := records[1]
	if row[0] != "1" {
		t.Fatalf("ID = %q, want 1", row[0])
	}
	if row[1] != "2024-01-03" {
		t.Fatalf("Date = %q, want 2024-01-03", row[1])
	}
	if row[2] != "Linear Algebra" {
		t.Fatalf("Subject = %q", row[2])
	}
	if row[3] != "65" {
		t.Fatalf("Minutes = %q, want 65", row[3])
	}
	if row[4] != "1h 05m" {
		t.Fatalf("Duration = %q, want 1h 05m", row[4])
	}
	if row[5] != "eigenvalues" {
		t.Fatalf("Note = %q", row[5])
	}
	if _, err := time.Parse(time.RFC3339, row[6]); err != nil {
		t.Fatalf("Created is not RFC3339: %q", row[6])
	}
	if records[2][4] != "45m" {
		t.Fatalf("Duration = %q, want 45m", records[2][4])
	}
}

func TestToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	if err := ToCSV(nil, path); err != nil {
		t.Fatal(err)
	}
	if records := readCSV(t, path); len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV(nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestWriteCSVSpecialCharacters(t *testing.T) {
	sessions := sampleSessions()[:1]
	sessions[0].Subject = `Math "Advanced"`
	sessions[0].Note = `notes with "quotes" and, commas`

	var buf bytes.Buffer
	if err := WriteCSV(&buf, sessions); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("CSV should be valid even with special chars: %v", err)
	}
	if records[1][2] != `Math "Advanced"` {
		t.Fatalf("subject mangled: %q", records[1][2])
	}
	if records[1][5] != `notes with "quotes" and, commas` {
		t.Fatalf("note mangled: %q", records[1][5])
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")

	if err := ToJSON("ada", sampleSessions(), sampleReport(), path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if result.User != "ada" {
		t.Fatalf("user = %q, want ada", result.User)
	}
	if result.Count != 2 || len(result.Sessions) != 2 {
		t.Fatalf("count = %d, sessions = %d, want 2", result.Count, len(result.Sessions))
	}
	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}

	s := result.Sessions[0]
	if s.ID != 1 || s.Minutes != 65 || s.Duration != "1h 05m" || s.Date != "2024-01-03" {
		t.Fatalf("unexpected first session: %+v", s)
	}
	if result.Report.AllTime.TotalMinutes != 110 {
		t.Fatalf("report total = %d, want 110", result.Report.AllTime.TotalMinutes)
	}
	if result.Report.Date != "2024-01-03" {
		t.Fatalf("report date = %q", result.Report.Date)
	}
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, "ada", nil, stats.Report{}, time.Now()); err != nil {
		t.Fatal(err)
	}

	// An empty export still carries an empty array, not null.
	if !strings.Contains(buf.String(), `"sessions": []`) {
		t.Fatalf("expected empty sessions array, got:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Fatal("JSON should be indented with spaces")
	}
}

func TestWriteJSONStable(t *testing.T) {
	at := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
	var a, b bytes.Buffer
	if err := WriteJSON(&a, "ada", sampleSessions(), sampleReport(), at); err != nil {
		t.Fatal(err)
	}
	if err := WriteJSON(&b, "ada", sampleSessions(), sampleReport(), at); err != nil {
		t.Fatal(err)
	}
	if a.String() != b.String() {
		t.Fatal("two exports of the same data differ")
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := ToJSON("ada", nil, stats.Report{}, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// Markdown
// ============================================================

func TestMarkdown(t *testing.T) {
	md := Markdown("ada", sampleReport())

	for _, want := range []string{
		"# Study report for ada",
		"_2024-01-03_",
		"- Studied: **1h 05m** in 1 session(s)",
		"| daily | 1h 05m | 1h 00m | 100% |",
		"| Linear Algebra | 1h 05m | 1 |",
		"- [x] **First Step**",
		"- [ ] **Ten Hours**",
		"| 08-11 | 1h 50m | 100.0 |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}
}

func TestMarkdownEmptyReport(t *testing.T) {
	cfg := stats.DefaultConfig()
	cfg.Location = time.UTC
	md := Markdown("ada", stats.Build(nil, nil, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), cfg))

	if strings.Contains(md, "## Recent days") {
		t.Fatal("empty report should not list recent days")
	}
	if strings.Contains(md, "Longest session") {
		t.Fatal("empty report should not name a longest session")
	}
}

func TestToMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	if err := ToMarkdown("ada", sampleReport(), path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# Study report for ada") {
		t.Fatalf("unexpected file contents: %q", data[:40])
	}
}

func TestEscapeCell(t *testing.T) {
	if got := escapeCell("a|b"); got != `a\|b` {
		t.Fatalf("escapeCell = %q", got)
	}
}
