// Package config defines the top-level configuration for the arbitrage
// monitor and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/arbmonitor/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by ARBMON_* environment variables.
type Config struct {
	Polymarket VenueConfig      `toml:"polymarket"`
	Kalshi     VenueConfig      `toml:"kalshi"`
	Arbitrage  ArbitrageConfig  `toml:"arbitrage"`
	Matching   MatchingConfig   `toml:"matching"`
	Monitoring MonitoringConfig `toml:"monitoring"`
	Alerts     AlertConfig      `toml:"alerts"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Embeddings EmbeddingsConfig `toml:"embeddings"`
	Server     ServerConfig     `toml:"server"`
	Notify     NotifyConfig     `toml:"notify"`
	LogLevel   string           `toml:"log_level"`
}

// VenueConfig holds per-venue API endpoints and trading parameters.
type VenueConfig struct {
	BaseURL string `toml:"base_url"`
	// ApiKey / RsaPrivateKeyPath are only used by the Kalshi client, which
	// signs its requests. Polymarket's Gamma API is unauthenticated.
	ApiKey            string  `toml:"api_key"`
	RsaPrivateKeyPath string  `toml:"rsa_private_key_path"`
	FeeRate           float64 `toml:"fee_rate"`
	MinVolume         float64 `toml:"min_volume"`
}

// ArbitrageConfig holds the tunable parameters for opportunity detection.
type ArbitrageConfig struct {
	MinProfitThreshold float64 `toml:"min_profit_threshold"`
	MaxPositionSize    float64 `toml:"max_position_size"`
	SlippageBuffer     float64 `toml:"slippage_buffer"`
	MinTradeCapital    float64 `toml:"min_trade_capital"`
	MinConfidence      float64 `toml:"min_confidence"`
}

// MatchingConfig holds market-matching parameters plus the operator-managed
// manual and excluded pair lists.
type MatchingConfig struct {
	SimilarityThreshold float64               `toml:"similarity_threshold"`
	Pairs               []domain.ManualPair   `toml:"pairs"`
	Excluded            []domain.ExcludedPair `toml:"excluded"`
}

// MonitoringConfig holds cycle scheduling parameters.
type MonitoringConfig struct {
	UpdateInterval duration `toml:"update_interval"`
	BatchSize      int      `toml:"batch_size"`
	StopTimeout    duration `toml:"stop_timeout"`
	RetentionDays  int      `toml:"retention_days"`
	ArchiveEnabled bool     `toml:"archive_enabled"`
}

// AlertConfig holds alert gating parameters. MinProfit is deliberately
// distinct from (and typically higher than) the detector's filter threshold.
type AlertConfig struct {
	MinProfit float64  `toml:"min_profit"`
	Cooldown  duration `toml:"cooldown"`
}

// PostgresConfig holds PostgreSQL connection parameters. When DSN is set it
// takes precedence over the individual host/port fields.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// ConnString returns the pgx connection string, preferring DSN when set.
func (p PostgresConfig) ConnString() string {
	if strings.TrimSpace(p.DSN) != "" {
		return p.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// RedisConfig holds Redis connection parameters. Redis is optional; when
// Addr is empty the live opportunity cache is disabled.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
}

// S3Config holds S3-compatible object storage parameters for cold archival.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// EmbeddingsConfig holds the semantic-matching backend parameters. When
// ApiKey is empty the matcher runs without semantic scores.
type EmbeddingsConfig struct {
	ApiKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// ServerConfig holds HTTP API server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	APIKey      string   `toml:"api_key"`
	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration wraps time.Duration so TOML can decode strings like "30s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with the documented default values.
func Defaults() Config {
	return Config{
		Polymarket: VenueConfig{
			BaseURL:   "https://gamma-api.polymarket.com",
			FeeRate:   0.02,
			MinVolume: 100,
		},
		Kalshi: VenueConfig{
			BaseURL:   "https://api.elections.kalshi.com/trade-api/v2",
			FeeRate:   0.01,
			MinVolume: 50,
		},
		Arbitrage: ArbitrageConfig{
			MinProfitThreshold: 0.05,
			MaxPositionSize:    1000,
			SlippageBuffer:     0.02,
			MinTradeCapital:    10,
			MinConfidence:      0.5,
		},
		Matching: MatchingConfig{
			SimilarityThreshold: 0.8,
		},
		Monitoring: MonitoringConfig{
			UpdateInterval: duration{30 * time.Second},
			BatchSize:      20,
			StopTimeout:    duration{10 * time.Second},
			RetentionDays:  30,
		},
		Alerts: AlertConfig{
			MinProfit: 0.10,
			Cooldown:  duration{300 * time.Second},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "arbmonitor",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Region:         "us-east-1",
			Bucket:         "arbmonitor-archive",
			ForcePathStyle: true,
		},
		Embeddings: EmbeddingsConfig{
			Model: "embed-english-v3.0",
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Notify: NotifyConfig{
			Events: []string{"arb_alert", "cycle_error"},
		},
		LogLevel: "info",
	}
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Polymarket.BaseURL == "" {
		errs = append(errs, "polymarket: base_url must not be empty")
	}
	if c.Kalshi.BaseURL == "" {
		errs = append(errs, "kalshi: base_url must not be empty")
	}
	for _, v := range []struct {
		name string
		cfg  VenueConfig
	}{{"polymarket", c.Polymarket}, {"kalshi", c.Kalshi}} {
		if v.cfg.FeeRate < 0 || v.cfg.FeeRate >= 1 {
			errs = append(errs, fmt.Sprintf("%s: fee_rate must be in [0,1), got %v", v.name, v.cfg.FeeRate))
		}
		if v.cfg.MinVolume < 0 {
			errs = append(errs, fmt.Sprintf("%s: min_volume must be >= 0", v.name))
		}
	}

	if c.Arbitrage.MinProfitThreshold <= 0 {
		errs = append(errs, "arbitrage: min_profit_threshold must be > 0")
	}
	if c.Arbitrage.MaxPositionSize <= 0 {
		errs = append(errs, "arbitrage: max_position_size must be > 0")
	}
	if c.Arbitrage.SlippageBuffer < 0 || c.Arbitrage.SlippageBuffer >= 1 {
		errs = append(errs, "arbitrage: slippage_buffer must be in [0,1)")
	}

	if c.Matching.SimilarityThreshold <= 0 || c.Matching.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Sprintf("matching: similarity_threshold must be in (0,1], got %v", c.Matching.SimilarityThreshold))
	}
	for i, p := range c.Matching.Pairs {
		if p.PolyID == "" || p.KalshiID == "" {
			errs = append(errs, fmt.Sprintf("matching: pairs[%d] must set both poly_id and kalshi_id", i))
		}
	}
	for i, p := range c.Matching.Excluded {
		if p.PolyID == "" || p.KalshiID == "" {
			errs = append(errs, fmt.Sprintf("matching: excluded[%d] must set both poly_id and kalshi_id", i))
		}
	}

	if c.Monitoring.UpdateInterval.Duration <= 0 {
		errs = append(errs, "monitoring: update_interval must be > 0")
	}
	if c.Monitoring.BatchSize < 1 {
		errs = append(errs, "monitoring: batch_size must be >= 1")
	}
	if c.Monitoring.RetentionDays < 1 {
		errs = append(errs, "monitoring: retention_days must be >= 1")
	}

	if c.Alerts.MinProfit <= 0 {
		errs = append(errs, "alerts: min_profit must be > 0")
	}
	if c.Alerts.Cooldown.Duration <= 0 {
		errs = append(errs, "alerts: cooldown must be > 0")
	}

	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	if c.Monitoring.ArchiveEnabled && c.S3.Bucket == "" {
		errs = append(errs, "s3: bucket must not be empty when archiving is enabled")
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
