// Package notify sends desktop notifications.
package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"

	"github.com/sadopc/studytrack/internal/stats"
)

// Notifier delivers a short message to the user.
type Notifier interface {
	Notify(title, message string) error
}

// Desktop notifies through the OS notification centre.
type Desktop struct{}

func NewDesktop() Desktop {
	beeep.AppName = "studytrack"
	return Desktop{}
}

func (Desktop) Notify(title, message string) error {
	if err := beeep.Notify(title, message, ""); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Notify(string, string) error { return nil }

// GoalReached reports whether logging added minutes moved today's total from
// below goal to at or above it, and the message to show when it did.
func GoalReached(before, added, goal int) (string, bool) {
	if goal <= 0 || added <= 0 || before >= goal || before+added < goal {
		return "", false
	}
	return fmt.Sprintf("You studied %s today and reached your daily goal of %s.",
		stats.FormatMinutes(before+added), stats.FormatMinutes(goal)), true
}
