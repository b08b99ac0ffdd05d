package httpapi

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

func NewRouter(h *Handler) *router.Router {
	r := router.New()

	r.GET("/health", h.Health)

	r.GET("/api/v1/users/{user}/stats", h.Stats)
	r.GET("/api/v1/users/{user}/sessions", h.Sessions)
	r.POST("/api/v1/users/{user}/sessions", h.CreateSession)
	r.GET("/api/v1/users/{user}/todos", h.Todos)

	return r
}

// Serve runs the API on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, h *Handler, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	server := &fasthttp.Server{
		Handler: NewRouter(h).Handler,
		Name:    "studytrack",
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", zap.String("address", addr))
		errCh <- server.ListenAndServe(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("server stopping")
		return server.Shutdown()
	}
}
