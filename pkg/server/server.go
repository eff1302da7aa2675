package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/fiber/pkg/metrics"
	"github.com/vango-dev/fiber/pkg/middleware"
)

// Server accepts WebSocket sessions and renders an App into each.
type Server struct {
	config    Config
	app       App
	logger    *slog.Logger
	registry  *prometheus.Registry
	collector *metrics.Collector
	upgrader  websocket.Upgrader
	router    chi.Router

	mu         sync.Mutex
	sessions   map[string]*Session
	httpServer *http.Server
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRegistry sets the registry metrics are registered with and served
// from. Default: a fresh registry per server.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) {
		if registry != nil {
			s.registry = registry
		}
	}
}

// New creates a server for app. Zero config fields take their defaults.
func New(app App, config Config, opts ...Option) (*Server, error) {
	config = config.withDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:   config,
		app:      app,
		logger:   slog.Default(),
		registry: prometheus.NewRegistry(),
		sessions: make(map[string]*Session),
		ctx:      ctx,
		cancel:   cancel,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")
	s.collector = metrics.New(metrics.WithRegistry(s.registry))
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	notSocket := func(r *http.Request) bool { return r.URL.Path != s.config.WSPath }

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.Prometheus(
		middleware.WithRegistry(s.registry),
		middleware.WithMetricsFilter(notSocket),
	))
	r.Use(middleware.OpenTelemetry())
	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Get(s.config.WSPath, s.HandleWebSocket)
	if s.config.MetricsPath != "" {
		r.Method(http.MethodGet, s.config.MetricsPath,
			promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))
	}
	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Collector returns the server's metrics collector.
func (s *Server) Collector() *metrics.Collector {
	return s.collector
}

// Config returns the effective configuration.
func (s *Server) Config() Config {
	return s.config
}

// Sessions returns the number of open sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "fiber server\nwebsocket: %s\n", s.config.WSPath)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": s.Sessions(),
	})
}

// HandleWebSocket upgrades the request and serves a session until the
// client disconnects.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	sess := newSession(s.ctx, conn, s.app, s.config, s.logger, s.collector)

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	s.wg.Add(1)
	s.collector.SessionOpened()

	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess.id)
		s.mu.Unlock()
		s.collector.SessionClosed()
		s.wg.Done()
	}()

	sess.serve()
	sess.wait(context.Background())
}

// Run starts the server and blocks until ctx is done or SIGINT/SIGTERM
// arrives, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    s.config.Address(),
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Address())
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("context done, shutting down")
	case sig := <-sigCh:
		s.logger.Info("received signal, shutting down", "signal", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown closes every session and stops accepting connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()

	s.mu.Lock()
	open := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.Unlock()
	for _, sess := range open {
		sess.Close()
	}

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("server stopped", "sessions_closed", len(open))
	case <-ctx.Done():
		s.logger.Warn("shutdown timed out", "open", s.Sessions())
		return ctx.Err()
	}
	return err
}
