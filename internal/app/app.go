// Package app provides the top-level application lifecycle for the
// arbitrage monitor. It wires together stores, caches, venue clients, the
// matching and detection core, and the HTTP API, and runs them until the
// context is cancelled.
package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/arbmonitor/internal/config"
	"github.com/alanyoungcy/arbmonitor/internal/server"
	"github.com/alanyoungcy/arbmonitor/internal/server/handler"
)

// archiveInterval is how often the retention job runs.
const archiveInterval = 24 * time.Hour

// App is the root application object. It owns the configuration, logger,
// and a list of cleanup functions that are called in reverse order on
// shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies, starts the monitor loop, the retention job,
// and the HTTP server, and blocks until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, cleanup)

	g, runCtx := errgroup.WithContext(ctx)

	deps.Monitor.Start(runCtx)
	g.Go(func() error {
		<-runCtx.Done()
		deps.Monitor.Stop()
		return nil
	})

	if deps.Archiver != nil {
		g.Go(func() error {
			deps.Archiver.RunPeriodic(runCtx, archiveInterval)
			return nil
		})
	}

	if a.cfg.Server.Enabled {
		srv := a.buildServer(runCtx, deps)
		g.Go(srv.Start)
		g.Go(func() error {
			<-runCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

// buildServer assembles the HTTP handlers around the wired dependencies.
func (a *App) buildServer(runCtx context.Context, deps *Dependencies) *server.Server {
	pingers := map[string]handler.Pinger{
		"postgres": deps.Postgres,
	}
	if deps.Redis != nil {
		pingers["redis"] = deps.Redis
	}

	handlers := server.Handlers{
		Health:        handler.NewHealthHandler(pingers, a.logger),
		Opportunities: handler.NewOpportunityHandler(deps.Monitor, deps.Detector, a.logger),
		Monitor:       handler.NewMonitorHandler(deps.Monitor, runCtx, a.logger),
		Matches:       handler.NewMatchHandler(deps.Matches, deps.Monitor, a.logger),
	}

	return server.New(a.cfg.Server, handlers, deps.RateLimiter, a.logger)
}

// Close tears down all resources in reverse registration order. It is safe
// to call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
