package tui

import (
	"errors"
	"strings"
	"time"
)

// timerState tracks the current state of the timer.
type timerState int

const (
	timerStopped timerState = iota
	timerRunning
	timerPaused
)

type timerMode int

const (
	modeStopwatch timerMode = iota
	modeCountdown
)

// timerModel manages the timing logic separate from display. Nothing is
// written to the store until the timer stops.
type timerModel struct {
	now func() time.Time

	state     timerState
	mode      timerMode
	subject   string
	target    time.Duration // countdown length
	startTime time.Time
	pausedAt  time.Time // when paused, to compute pause gap
	pauseGap  time.Duration
	elapsed   time.Duration
}

func newTimerModel(now func() time.Time) timerModel {
	if now == nil {
		now = time.Now
	}
	return timerModel{now: now, state: timerStopped}
}

func (t *timerModel) start(subject string, mode timerMode, target time.Duration) error {
	if t.state != timerStopped {
		return errors.New("a study timer is already running")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return errors.New("subject is required")
	}
	if mode == modeCountdown && target < time.Minute {
		return errors.New("countdown must be at least one minute")
	}
	t.state = timerRunning
	t.mode = mode
	t.subject = subject
	t.target = target
	t.startTime = t.now()
	t.pauseGap = 0
	t.elapsed = 0
	return nil
}

// stop ends the timer and returns the subject and the whole minutes studied.
func (t *timerModel) stop() (string, int) {
	if t.state == timerStopped {
		return "", 0
	}
	elapsed := t.currentElapsed()
	if t.mode == modeCountdown && elapsed > t.target {
		elapsed = t.target
	}
	subject := t.subject
	t.state = timerStopped
	t.elapsed = 0
	t.subject = ""
	return subject, int(elapsed / time.Minute)
}

func (t *timerModel) pause() {
	if t.state != timerRunning {
		return
	}
	t.state = timerPaused
	t.pausedAt = t.now()
}

func (t *timerModel) resume() {
	if t.state != timerPaused {
		return
	}
	t.pauseGap += t.now().Sub(t.pausedAt)
	t.state = timerRunning
}

func (t *timerModel) toggle() {
	switch t.state {
	case timerRunning:
		t.pause()
	case timerPaused:
		t.resume()
	}
}

// tick refreshes the elapsed time and reports whether a countdown finished.
func (t *timerModel) tick() bool {
	if t.state != timerRunning {
		return false
	}
	t.elapsed = t.now().Sub(t.startTime) - t.pauseGap
	return t.mode == modeCountdown && t.elapsed >= t.target
}

func (t timerModel) running() bool {
	return t.state != timerStopped
}

func (t timerModel) paused() bool {
	return t.state == timerPaused
}

func (t timerModel) currentElapsed() time.Duration {
	switch t.state {
	case timerStopped:
		return 0
	case timerPaused:
		return t.pausedAt.Sub(t.startTime) - t.pauseGap
	}
	return t.now().Sub(t.startTime) - t.pauseGap
}

// display is what the clock shows: time studied, or time left on a countdown.
func (t timerModel) display() time.Duration {
	if t.mode == modeCountdown && t.running() {
		return t.target - t.currentElapsed()
	}
	return t.currentElapsed()
}
