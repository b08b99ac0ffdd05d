package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sadopc/studytrack/internal/stats"
	"github.com/sadopc/studytrack/internal/store"
)

type jsonExport struct {
	ExportedAt string        `json:"exported_at"`
	User       string        `json:"user"`
	Count      int           `json:"count"`
	Sessions   []jsonSession `json:"sessions"`
	Report     stats.Report  `json:"report"`
}

type jsonSession struct {
	ID       int64  `json:"id"`
	Date     string `json:"date"`
	Subject  string `json:"subject"`
	Minutes  int    `json:"minutes"`
	Duration string `json:"duration"`
	Note     string `json:"note,omitempty"`
	Created  string `json:"created_at"`
}

// ToJSON writes the sessions and the report to a JSON file at path.
func ToJSON(user string, sessions []store.StudySession, report stats.Report, path string) error {
	return toFile(path, "json", func(w io.Writer) error {
		return WriteJSON(w, user, sessions, report, time.Now())
	})
}

// WriteJSON writes an indented export document stamped with exportedAt.
func WriteJSON(w io.Writer, user string, sessions []store.StudySession, report stats.Report, exportedAt time.Time) error {
	export := jsonExport{
		ExportedAt: exportedAt.UTC().Format(time.RFC3339),
		User:       user,
		Count:      len(sessions),
		Sessions:   make([]jsonSession, 0, len(sessions)),
		Report:     report,
	}

	for _, s := range sessions {
		export.Sessions = append(export.Sessions, jsonSession{
			ID:       s.ID,
			Date:     s.Date.Format(stats.DateLayout),
			Subject:  s.Subject,
			Minutes:  s.Duration,
			Duration: stats.FormatMinutes(s.Duration),
			Note:     s.Note,
			Created:  s.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
