// ABOUTME: HTTP server wiring sessions, the toolbar middleware, metrics and the toolbar API
// ABOUTME: Owns the listener lifecycle, graceful shutdown and expired-session cleanup

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/2389/cms-toolbar/internal/config"
	"github.com/2389/cms-toolbar/internal/i18n"
	"github.com/2389/cms-toolbar/internal/session"
	"github.com/2389/cms-toolbar/internal/store"
	"github.com/2389/cms-toolbar/internal/toolbar"
	"github.com/2389/cms-toolbar/internal/urls"
)

// sessionCleanupInterval is how often expired sessions are purged.
const sessionCleanupInterval = time.Hour

// NewConfig holds everything New needs.
type NewConfig struct {
	Config *config.Config
	Store  store.Store

	// Pool defaults to toolbar.DefaultPool.
	Pool *toolbar.Pool
	// Views defaults to DefaultViews().
	Views *urls.Resolver
	// Registry defaults to a fresh registry with Go and process collectors.
	Registry *prometheus.Registry
}

// Server serves the toolbar API behind the session and toolbar middleware.
type Server struct {
	config     *config.Config
	store      store.Store
	sessions   *session.Manager
	languages  *i18n.Resolver
	pool       *toolbar.Pool
	registry   *prometheus.Registry
	handler    http.Handler
	httpServer *http.Server
	logger     *slog.Logger
}

// DefaultViews returns the view resolver for the routes this server serves.
func DefaultViews() *urls.Resolver {
	views := urls.NewResolver()
	_ = views.Register("/api/", "cms.api.views")
	_ = views.Register("/", "cms.views")
	return views
}

// New wires a Server. The pool's allow-list is set from toolbar.enabled and
// checked against the registered sub-toolbars.
func New(nc NewConfig) (*Server, error) {
	cfg := nc.Config
	if nc.Pool == nil {
		nc.Pool = toolbar.DefaultPool
	}
	if nc.Views == nil {
		nc.Views = DefaultViews()
	}
	if nc.Registry == nil {
		nc.Registry = prometheus.NewRegistry()
		nc.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	nc.Pool.SetEnabled(cfg.Toolbar.Enabled)
	if _, err := nc.Pool.Toolbars(); err != nil {
		return nil, fmt.Errorf("toolbar.enabled: %w", err)
	}

	s := &Server{
		config: cfg,
		store:  nc.Store,
		sessions: session.NewManager(nc.Store, session.Config{
			CookieName: cfg.Session.CookieName,
			Duration:   cfg.Session.Duration,
		}),
		languages: i18n.NewResolver(cfg.I18N.UseI18N, cfg.I18N.LanguageCode, cfg.I18N.Languages),
		pool:      nc.Pool,
		registry:  nc.Registry,
		logger:    slog.Default().With("component", "server"),
	}

	deps := &toolbar.Deps{
		Pool:            nc.Pool,
		Store:           nc.Store,
		Sessions:        s.sessions,
		Languages:       s.languages,
		Views:           nc.Views,
		Metrics:         toolbar.NewMetrics(nc.Registry),
		EditOnParam:     cfg.Toolbar.EditOnParam,
		EditOffParam:    cfg.Toolbar.EditOffParam,
		BuildParam:      cfg.Toolbar.BuildParam,
		ExcludePrefixes: []string{"/healthz", "/static/"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, promhttp.HandlerFor(nc.Registry, promhttp.HandlerOpts{}))
		deps.ExcludePrefixes = append(deps.ExcludePrefixes, cfg.Metrics.Path)
	}
	mux.HandleFunc("GET /api/toolbar", s.handleToolbar)
	mux.HandleFunc("POST /api/settings/language", s.handleSetLanguage)
	mux.HandleFunc("POST /api/clipboard/plugins", s.handleClipboardAdd)
	mux.HandleFunc("POST /api/clipboard/{id}/clear", s.handleClipboardClear)
	mux.HandleFunc("/", s.handleToolbar)

	s.handler = s.sessions.Middleware(toolbar.Middleware(deps)(mux))
	s.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on server.http_addr and blocks until ctx is canceled or the
// server fails. It always shuts down gracefully before returning.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go s.cleanupSessions(cleanupCtx)

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	shutdownErr := s.Shutdown(shutdownCtx)

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// Shutdown stops the HTTP server and closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}
	return errors.Join(errs...)
}

// cleanupSessions purges expired sessions until ctx is done.
func (s *Server) cleanupSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.store.DeleteExpiredSessions(ctx); err != nil {
				s.logger.Warn("failed to delete expired sessions", "error", err)
			}
		}
	}
}
