package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sadopc/studytrack/internal/logger"
	"github.com/sadopc/studytrack/internal/store"
)

// Source is the read side of the record store the engine needs.
type Source interface {
	ListSessions(userID int64) ([]store.StudySession, error)
	ListTodos(userID int64) ([]store.TodoItem, error)
}

// Service fetches a user's records once per call and builds reports from them.
type Service struct {
	src Source
	cfg Config
	log *zap.Logger
	now func() time.Time
}

func NewService(src Source, cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{src: src, cfg: cfg.withDefaults(), log: log, now: time.Now}
}

// SetClock overrides the source of "today".
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Today is the current civil date in the configured location.
func (s *Service) Today() time.Time {
	return civil(s.now().In(s.cfg.Location))
}

// Report reads the user's sessions and todos and builds a full report.
func (s *Service) Report(ctx context.Context, userID int64) (Report, error) {
	ctx = ensureRequestID(ctx)
	log := logger.WithRequestID(ctx, s.log)
	start := time.Now()

	sessions, err := s.src.ListSessions(userID)
	if err != nil {
		return Report{}, fmt.Errorf("load sessions: %w", err)
	}
	todos, err := s.src.ListTodos(userID)
	if err != nil {
		return Report{}, fmt.Errorf("load todos: %w", err)
	}

	r := Build(sessions, todos, s.Today(), s.cfg)
	log.Debug("built report",
		zap.Int64("user_id", userID),
		zap.Int("sessions", len(sessions)),
		zap.Int("todos", len(todos)),
		zap.Duration("took", time.Since(start)),
	)
	return r, nil
}

// Summary aggregates the user's sessions over r.
func (s *Service) Summary(ctx context.Context, userID int64, r Range) (Summary, error) {
	ctx = ensureRequestID(ctx)
	sessions, err := s.src.ListSessions(userID)
	if err != nil {
		return Summary{}, fmt.Errorf("load sessions: %w", err)
	}
	logger.WithRequestID(ctx, s.log).Debug("summarized sessions",
		zap.Int64("user_id", userID), zap.Int("sessions", len(sessions)))
	return Summarize(sessions, r, s.Today()), nil
}

func ensureRequestID(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger.RequestID(ctx) != "" {
		return ctx
	}
	return logger.ContextWithRequestID(ctx, uuid.NewString())
}
