package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/sadopc/studytrack/internal/stats"
	"github.com/sadopc/studytrack/internal/store"
)

// ToCSV writes sessions to a CSV file at path.
func ToCSV(sessions []store.StudySession, path string) error {
	return toFile(path, "csv", func(w io.Writer) error {
		return WriteCSV(w, sessions)
	})
}

// WriteCSV writes one row per session, in the order given.
func WriteCSV(out io.Writer, sessions []store.StudySession) error {
	w := csv.NewWriter(out)

	// Header
	if err := w.Write([]string{"ID", "Date", "Subject", "Minutes", "Duration", "Note", "Created"}); err != nil {
		return err
	}

	for _, s := range sessions {
		row := []string{
			strconv.FormatInt(s.ID, 10),
			s.Date.Format(stats.DateLayout),
			s.Subject,
			strconv.Itoa(s.Duration),
			stats.FormatMinutes(s.Duration),
			s.Note,
			s.CreatedAt.Local().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}
