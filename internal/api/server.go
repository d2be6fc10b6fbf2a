package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/marcus/widgetareas/internal/areadb"
	"github.com/marcus/widgetareas/internal/sidebars"
)

// Server is the HTTP API server for widget areas.
type Server struct {
	config      Config
	http        *http.Server
	store       *areadb.AreaDB
	resolver    *sidebars.Resolver
	metrics     *Metrics
	rateLimiter *RateLimiter
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewServer creates a new Server with the given config, store and resolver.
func NewServer(cfg Config, store *areadb.AreaDB, resolver *sidebars.Resolver) (*Server, error) {
	if store == nil || resolver == nil {
		return nil, fmt.Errorf("new server: store and resolver are required")
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 10 << 20
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:      cfg,
		store:       store,
		resolver:    resolver,
		metrics:     NewMetrics(),
		rateLimiter: NewRateLimiter(ctx),
		ctx:         ctx,
		cancel:      cancel,
	}

	s.http = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start begins listening for HTTP requests (non-blocking).
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("http server", "err", err)
		}
	}()

	if s.config.KeyPurgeInterval > 0 {
		go s.purgeExpiredKeys(s.config.KeyPurgeInterval)
	}

	return nil
}

// purgeExpiredKeys periodically deletes expired API keys until shutdown.
func (s *Server) purgeExpiredKeys(every time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("purge panic", "panic", r)
		}
	}()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			n, err := s.store.PurgeExpiredAPIKeys(s.ctx)
			if err != nil {
				slog.Error("purge expired api keys", "err", err)
			} else if n > 0 {
				slog.Info("purged expired api keys", "count", n)
			}
		}
	}
}

// Shutdown gracefully stops the server and its background work.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	return s.http.Shutdown(ctx)
}

// routes builds the HTTP handler with all routes and middleware.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health & metrics
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /metricz", s.handleMetrics)

	// Widget areas
	mux.HandleFunc("GET /v1/widget-areas", s.editor("list_areas", s.handleListWidgetAreas))
	mux.HandleFunc("GET /v1/widget-areas/{id...}", s.editor("get_area", s.handleGetWidgetArea))
	mux.HandleFunc("PUT /v1/widget-areas/{id...}", s.editor("update_area", s.handleUpdateWidgetArea))
	mux.HandleFunc("PATCH /v1/widget-areas/{id...}", s.editor("update_area", s.handleUpdateWidgetArea))

	// Editor settings
	mux.HandleFunc("GET /v1/widget-editor/settings", s.editor("get_editor_settings", s.handleGetEditorSettings))
	mux.HandleFunc("PATCH /v1/widget-editor/settings", s.editor("patch_editor_settings", s.handlePatchEditorSettings))

	return chain(mux, recoveryMiddleware, requestIDMiddleware, loggerMiddleware, metricsMiddleware(s.metrics), loggingMiddleware, s.CORSMiddleware, maxBytesMiddleware(s.config.MaxBodyBytes))
}

// editor guards a handler behind the theme-editing capability and the
// per-key rate limit, counting it under route. Rejected requests count too.
func (s *Server) editor(route string, handler http.HandlerFunc) http.HandlerFunc {
	return s.metrics.Route(route, s.requireCapability(areadb.CapEditThemeOptions, s.withRateLimit(handler)))
}

// handleHealth returns a health check response, pinging the DB.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "detail": "db unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMetrics returns a snapshot of server metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}
