// Package httpserver wires the admin API: routes, middleware, and server
// lifecycle.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/repstack/repstack/internal/logfields"
	"github.com/repstack/repstack/internal/metrics"
	"github.com/repstack/repstack/internal/notify"
	"github.com/repstack/repstack/internal/reperrors"
	"github.com/repstack/repstack/internal/server/handlers"
	"github.com/repstack/repstack/internal/server/middleware"
)

// Auth is the slice of the auth manager the server needs: the login flow
// plus bearer-token verification.
type Auth interface {
	handlers.AuthManager
	middleware.SessionVerifier
}

// Options configures the admin HTTP server.
type Options struct {
	Addr       string
	CORSOrigin string
	// BlogHost is the public blog host, used to classify preview links.
	BlogHost string
	// MetricsHandler serves GET /metrics when non-nil.
	MetricsHandler http.Handler
	Recorder       metrics.Recorder
	Logger         *slog.Logger
}

// Server is the admin HTTP server.
type Server struct {
	opts       Options
	httpServer *http.Server
	boundAddr  string
	adapter    *reperrors.HTTPAdapter

	authHandlers       *handlers.AuthHandlers
	postHandlers       *handlers.PostHandlers
	pageHandlers       *handlers.PageHandlers
	previewHandlers    *handlers.PreviewHandlers
	monitoringHandlers *handlers.MonitoringHandlers

	mchain  func(http.Handler) http.Handler
	protect func(http.Handler) http.Handler
}

// New constructs the admin server wiring. notifier may be nil.
func New(opts Options, svc handlers.ContentService, auth Auth, notifier notify.Notifier) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}

	adapter := reperrors.NewHTTPAdapter(opts.Logger)

	s := &Server{
		opts:    opts,
		adapter: adapter,

		authHandlers:       handlers.NewAuthHandlers(auth, adapter),
		postHandlers:       handlers.NewPostHandlers(svc, notifier, adapter),
		pageHandlers:       handlers.NewPageHandlers(svc, notifier, adapter),
		previewHandlers:    handlers.NewPreviewHandlers(opts.BlogHost, adapter),
		monitoringHandlers: handlers.NewMonitoringHandlers(svc.StoreName(), adapter),

		mchain:  middleware.Chain(opts.Logger, adapter, opts.CORSOrigin, opts.Recorder),
		protect: middleware.RequireSession(auth, adapter),
	}
	return s
}

// Handler returns the fully wired handler, exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", s.authHandlers.HandleLogin)
	mux.HandleFunc("POST /api/auth/exchange", s.authHandlers.HandleExchange)
	mux.Handle("GET /api/auth/session", s.protect(http.HandlerFunc(s.authHandlers.HandleSession)))

	mux.Handle("GET /api/posts", s.protect(http.HandlerFunc(s.postHandlers.HandleList)))
	mux.Handle("GET /api/posts/{slug}", s.protect(http.HandlerFunc(s.postHandlers.HandleGet)))
	mux.Handle("PUT /api/posts/{slug}", s.protect(http.HandlerFunc(s.postHandlers.HandleSave)))
	mux.Handle("DELETE /api/posts/{slug}", s.protect(http.HandlerFunc(s.postHandlers.HandleDelete)))

	mux.Handle("GET /api/pages/{name}", s.protect(http.HandlerFunc(s.pageHandlers.HandleGet)))
	mux.Handle("PUT /api/pages/{name}", s.protect(http.HandlerFunc(s.pageHandlers.HandleSave)))

	mux.Handle("POST /api/preview", s.protect(http.HandlerFunc(s.previewHandlers.HandlePreview)))

	mux.HandleFunc("GET /healthz", s.monitoringHandlers.HandleHealthCheck)
	if s.opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", s.opts.MetricsHandler)
	}

	return s.mchain(mux)
}

// Start binds the listener and serves in the background. Binding happens
// here so a taken port fails fast instead of surfacing from the serve
// goroutine.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return reperrors.Wrap(err, reperrors.CategoryNetwork, "bind admin listener").
			WithContext("addr", s.opts.Addr).
			Build()
	}

	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.boundAddr = ln.Addr().String()

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("admin server error", logfields.Error(err))
		}
	}()

	slog.Info("admin server started", slog.String("addr", s.boundAddr))
	return nil
}

// Addr returns the bound listener address once Start has succeeded.
func (s *Server) Addr() string {
	return s.boundAddr
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return reperrors.Wrap(err, reperrors.CategoryNetwork, "admin server shutdown").Build()
	}
	slog.Info("admin server stopped")
	return nil
}
