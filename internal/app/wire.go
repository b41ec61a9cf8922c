package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alanyoungcy/arbmonitor/internal/alert"
	"github.com/alanyoungcy/arbmonitor/internal/archive"
	s3blob "github.com/alanyoungcy/arbmonitor/internal/blob/s3"
	"github.com/alanyoungcy/arbmonitor/internal/cache/redis"
	"github.com/alanyoungcy/arbmonitor/internal/config"
	"github.com/alanyoungcy/arbmonitor/internal/detector"
	"github.com/alanyoungcy/arbmonitor/internal/domain"
	"github.com/alanyoungcy/arbmonitor/internal/embed"
	"github.com/alanyoungcy/arbmonitor/internal/matcher"
	"github.com/alanyoungcy/arbmonitor/internal/monitor"
	"github.com/alanyoungcy/arbmonitor/internal/notify"
	"github.com/alanyoungcy/arbmonitor/internal/platform/kalshi"
	"github.com/alanyoungcy/arbmonitor/internal/platform/polymarket"
	"github.com/alanyoungcy/arbmonitor/internal/store/postgres"
)

// Dependencies bundles everything the application lifecycle needs. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Postgres *postgres.Client
	Redis    *redis.Client // nil when no Redis address is configured

	Matches       domain.MatchStore
	Opportunities domain.OpportunityStore
	Cycles        domain.CycleStore
	Cache         domain.OpportunityCache // nil without Redis
	RateLimiter   domain.RateLimiter      // nil without Redis

	Notifier *notify.Notifier
	Matcher  *matcher.Matcher
	Detector *detector.Detector
	Alerts   *alert.Manager
	Monitor  *monitor.Monitor
	Archiver *archive.Archiver // nil when archival is disabled
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	deps.Postgres = pgClient
	pool := pgClient.Pool()
	deps.Matches = postgres.NewMatchStore(pool)
	deps.Opportunities = postgres.NewOpportunityStore(pool)
	deps.Cycles = postgres.NewCycleStore(pool)

	// --- Redis (optional) ---
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Redis = redisClient
		deps.Cache = redis.NewOpportunityCache(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
	}

	// --- Venue clients ---
	polyClient := polymarket.NewGammaClient(cfg.Polymarket)

	kalshiClient := kalshi.NewClient(cfg.Kalshi)
	if path := cfg.Kalshi.RsaPrivateKeyPath; path != "" {
		pemBytes, err := os.ReadFile(path)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: read kalshi private key: %w", err)
		}
		if err := kalshiClient.SetRSAPrivateKey(pemBytes); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: %w", err)
		}
	}

	// --- Core services ---
	var embedder embed.Embedder
	if ce := embed.NewCohereEmbedder(cfg.Embeddings); ce != nil {
		embedder = ce
	}

	deps.Matcher = matcher.New(cfg.Matching, embedder, logger)
	deps.Detector = detector.New(cfg.Arbitrage, cfg.Polymarket, cfg.Kalshi, logger)
	deps.Notifier = notify.FromConfig(cfg.Notify, logger)
	deps.Alerts = alert.New(cfg.Alerts, deps.Notifier, logger)

	deps.Monitor = monitor.New(cfg.Monitoring, cfg.Arbitrage.MinProfitThreshold, monitor.Deps{
		PolyProvider:   polyClient,
		KalshiProvider: kalshiClient,
		Matcher:        deps.Matcher,
		Detector:       deps.Detector,
		Alerts:         deps.Alerts,
		Matches:        deps.Matches,
		Opportunities:  deps.Opportunities,
		Cycles:         deps.Cycles,
		Cache:          deps.Cache,
		Notifier:       deps.Notifier,
	}, logger)

	// --- Archival (optional) ---
	if cfg.Monitoring.ArchiveEnabled {
		s3Client, err := s3blob.New(ctx, cfg.S3)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}

		deps.Archiver = archive.New(
			cfg.Monitoring,
			s3blob.NewWriter(s3Client),
			s3blob.NewReader(s3Client),
			deps.Opportunities,
			deps.Cycles,
			logger,
		)
	}

	return deps, cleanup, nil
}
