package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/sadopc/studytrack/internal/logger"
	"github.com/sadopc/studytrack/internal/stats"
	"github.com/sadopc/studytrack/internal/store"
)

// Store is the part of the record store the API reads and writes.
type Store interface {
	GetUserByName(name string) (*store.User, error)
	FilterSessions(userID int64, f store.SessionFilter) ([]store.StudySession, error)
	CreateSession(userID int64, subject string, minutes int, date time.Time, note string) (*store.StudySession, error)
	FilterTodos(userID int64, f store.TodoFilter) (*store.TodoPage, error)
}

// Reporter builds statistics reports.
type Reporter interface {
	Report(ctx context.Context, userID int64) (stats.Report, error)
	Today() time.Time
}

// Handler serves the study API.
type Handler struct {
	store   Store
	stats   Reporter
	adapter *Adapter
	logger  *zap.Logger
}

func NewHandler(s Store, r Reporter, adapter *Adapter, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if adapter == nil {
		adapter = NewAdapter(0)
	}
	return &Handler{store: s, stats: r, adapter: adapter, logger: log}
}

// Health reports that the server is up.
func (h *Handler) Health(ctx *fasthttp.RequestCtx) {
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"timestamp": time.Now().UTC(),
	})
}

// Stats returns the full statistics report for a user.
func (h *Handler) Stats(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.adapter.Attach(ctx)
	defer cancel()

	user, ok := h.user(ctx)
	if !ok {
		return
	}
	report, err := h.stats.Report(stdCtx, user.ID)
	if err != nil {
		h.fail(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, report)
}

// Sessions lists a user's sessions, newest first. Optional query parameters:
// date (YYYY-MM-DD), subject, limit.
func (h *Handler) Sessions(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.adapter.Attach(ctx)
	defer cancel()

	user, ok := h.user(ctx)
	if !ok {
		return
	}

	args := ctx.QueryArgs()
	filter := store.SessionFilter{
		Subject: string(args.Peek("subject")),
		Limit:   parseInt(string(args.Peek("limit")), 0),
	}
	if raw := string(args.Peek("date")); raw != "" {
		d, err := time.Parse(stats.DateLayout, raw)
		if err != nil {
			h.fail(stdCtx, ctx, fmt.Errorf("parse date %q: %w", raw, store.ErrInvalid))
			return
		}
		filter.Date = &d
	}

	sessions, err := h.store.FilterSessions(user.ID, filter)
	if err != nil {
		h.fail(stdCtx, ctx, err)
		return
	}
	if sessions == nil {
		sessions = []store.StudySession{}
	}
	h.respondSuccess(ctx, http.StatusOK, sessions)
}

type sessionRequest struct {
	Subject string `json:"subject"`
	Minutes int    `json:"minutes"`
	Date    string `json:"date"`
	Note    string `json:"note"`
}

// CreateSession logs a session. The date defaults to today.
func (h *Handler) CreateSession(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.adapter.Attach(ctx)
	defer cancel()

	user, ok := h.user(ctx)
	if !ok {
		return
	}

	var req sessionRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.fail(stdCtx, ctx, fmt.Errorf("decode session: %v: %w", err, store.ErrInvalid))
		return
	}
	date := h.stats.Today()
	if req.Date != "" {
		d, err := time.Parse(stats.DateLayout, req.Date)
		if err != nil {
			h.fail(stdCtx, ctx, fmt.Errorf("parse date %q: %w", req.Date, store.ErrInvalid))
			return
		}
		date = d
	}

	created, err := h.store.CreateSession(user.ID, req.Subject, req.Minutes, date, req.Note)
	if err != nil {
		h.fail(stdCtx, ctx, err)
		return
	}
	logger.WithRequestID(stdCtx, h.logger).Info("session created",
		zap.String("user", user.Name), zap.Int64("session_id", created.ID), zap.Int("minutes", created.Duration))
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// Todos returns one page of a user's todos. Query parameters: filter
// (all|pending|completed), order (newest|oldest), page (default 1).
func (h *Handler) Todos(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.adapter.Attach(ctx)
	defer cancel()

	user, ok := h.user(ctx)
	if !ok {
		return
	}

	args := ctx.QueryArgs()
	// Page 0 means "every row" to the store; the API always pages.
	page, err := h.store.FilterTodos(user.ID, store.TodoFilter{
		Status: store.TodoStatus(string(args.Peek("filter"))),
		Order:  store.TodoOrder(string(args.Peek("order"))),
		Page:   max(parseInt(string(args.Peek("page")), 1), 1),
	})
	if err != nil {
		h.fail(stdCtx, ctx, err)
		return
	}
	if page.Items == nil {
		page.Items = []store.TodoItem{}
	}
	h.respondSuccess(ctx, http.StatusOK, page)
}

func (h *Handler) user(ctx *fasthttp.RequestCtx) (*store.User, bool) {
	name, _ := ctx.UserValue("user").(string)
	u, err := h.store.GetUserByName(strings.TrimSpace(name))
	if err != nil {
		h.respondError(ctx, err)
		return nil, false
	}
	return u, true
}

func (h *Handler) fail(stdCtx context.Context, ctx *fasthttp.RequestCtx, err error) {
	status, _ := mapError(err)
	if status >= http.StatusInternalServerError {
		logger.WithRequestID(stdCtx, h.logger).Error("request failed",
			zap.ByteString("path", ctx.Path()), zap.Error(err))
	}
	h.respondError(ctx, err)
}

func (h *Handler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h *Handler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, NewSuccess(data, nil))
}

func (h *Handler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status, code := mapError(err)
	h.respondJSON(ctx, status, NewError(code, err.Error(), nil))
}

func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, store.ErrInvalid):
		return http.StatusBadRequest, "INVALID"
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
