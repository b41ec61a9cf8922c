// Package server exposes the read-side HTTP API over the monitor. The core
// detection loop does not depend on it.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/arbmonitor/internal/config"
	"github.com/alanyoungcy/arbmonitor/internal/domain"
	"github.com/alanyoungcy/arbmonitor/internal/server/handler"
	"github.com/alanyoungcy/arbmonitor/internal/server/middleware"
)

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health        *handler.HealthHandler
	Opportunities *handler.OpportunityHandler
	Monitor       *handler.MonitorHandler
	Matches       *handler.MatchHandler
}

// Server is the headless HTTP API server for the arbitrage monitor.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server with all routes registered. limiter may be nil, in
// which case no rate limiting is applied.
func New(cfg config.ServerConfig, handlers Handlers, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Opportunity endpoints.
	mux.HandleFunc("GET /api/opportunities", handlers.Opportunities.ListCurrent)
	mux.HandleFunc("GET /api/opportunities/top", handlers.Opportunities.ListTop)
	mux.HandleFunc("GET /api/opportunities/summary", handlers.Opportunities.Summary)
	mux.HandleFunc("GET /api/opportunities/{polyID}/{kalshiID}", handlers.Opportunities.GetByMarkets)

	// Match diagnostics.
	mux.HandleFunc("GET /api/matches", handlers.Matches.ListMatches)
	mux.HandleFunc("GET /api/similarities", handlers.Matches.ListSimilarities)

	// Monitor control and metrics.
	mux.HandleFunc("GET /api/monitor/status", handlers.Monitor.GetStatus)
	mux.HandleFunc("GET /api/monitor/performance", handlers.Monitor.GetPerformance)
	mux.HandleFunc("POST /api/monitor/update", handlers.Monitor.ForceUpdate)
	mux.HandleFunc("POST /api/monitor/start", handlers.Monitor.StartMonitor)
	mux.HandleFunc("POST /api/monitor/stop", handlers.Monitor.StopMonitor)

	// Build the middleware chain, innermost first.
	var h http.Handler = mux

	if limiter != nil {
		h = middleware.RateLimit(limiter, 60, time.Minute)(h)
	}
	h = middleware.Auth(cfg.APIKey)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger.With(slog.String("component", "server")),
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
