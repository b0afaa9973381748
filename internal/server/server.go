// Package server hosts navigation sessions for browser tabs connected over
// WebSocket. Each tab gets its own router driving a history.Remote, so the
// tab's address bar follows the router and the router follows the tab's
// back and forward buttons.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/navrouter/pkg/history"
	"github.com/vango-dev/navrouter/pkg/router"
)

// Server accepts WebSocket connections and runs a Session for each.
type Server struct {
	config   *Config
	upgrader websocket.Upgrader
	metrics  *router.Metrics
	logger   *slog.Logger

	sessionsActive prometheus.Gauge
	handshakeFails prometheus.Counter

	mu       sync.Mutex
	sessions map[string]*Session

	httpServer *http.Server
}

// New creates a Server. A nil config uses DefaultConfig.
func New(config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	config.applyDefaults()

	factory := promauto.With(config.Registry)
	s := &Server{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     config.CheckOrigin,
		},
		metrics: router.NewMetrics(router.WithRegistry(config.Registry)),
		logger:  config.Logger.With("component", "server"),
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "navrouter",
			Subsystem: "server",
			Name:      "sessions_active",
			Help:      "Number of connected navigation sessions.",
		}),
		handshakeFails: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "navrouter",
			Subsystem: "server",
			Name:      "handshake_failures_total",
			Help:      "WebSocket connections dropped before a valid hello frame.",
		}),
		sessions: make(map[string]*Session),
	}
	return s
}

// Handler returns the HTTP handler: the WebSocket endpoint, the metrics
// endpoint and /healthz.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get(s.config.WSPath, s.HandleWebSocket)
	if s.config.MetricsPath != "" {
		r.Method(http.MethodGet, s.config.MetricsPath,
			promhttp.HandlerFor(s.config.Registry, promhttp.HandlerOpts{}))
	}
	r.Get("/healthz", s.handleHealth)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": s.SessionCount(),
	})
}

// HandleWebSocket upgrades the request, waits for the tab's hello frame and
// serves a Session until the tab disconnects.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	remote, err := history.NewRemote(conn,
		history.WithHandshakeTimeout(s.config.HandshakeTimeout),
		history.WithLogger(s.logger),
	)
	if err != nil {
		s.handshakeFails.Inc()
		s.logger.Warn("handshake failed",
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		conn.Close()
		return
	}

	session := newSession(remote, s.config, s.metrics, s.logger)
	s.track(session)
	defer s.untrack(session)

	if err := session.Serve(r.Context()); err != nil {
		s.logger.Warn("session ended with error", "session", session.ID(), "error", err)
	}
}

func (s *Server) track(session *Session) {
	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()
	s.sessionsActive.Inc()
}

func (s *Server) untrack(session *Session) {
	s.mu.Lock()
	delete(s.sessions, session.ID())
	s.mu.Unlock()
	s.sessionsActive.Dec()
}

// SessionCount returns the number of connected sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run listens on Config.Addr until ctx is done, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown closes every session and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.Unlock()

	for _, session := range sessions {
		_ = session.Close()
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}
