package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load builds the runtime configuration. Precedence, lowest to highest:
// built-in defaults, the TOML file at path (if any), then ARBMON_*
// environment variables. A .env file in the working directory is loaded
// into the environment first, never overriding variables already set.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()

	if path != "" {
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("config: unknown keys in %s: %s", path, strings.Join(keys, ", "))
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// applyEnv overlays ARBMON_* environment variables onto cfg. Credentials
// are usually injected this way rather than committed in the TOML file.
func applyEnv(cfg *Config) {
	setStr("ARBMON_LOG_LEVEL", &cfg.LogLevel)

	setStr("ARBMON_POLYMARKET_BASE_URL", &cfg.Polymarket.BaseURL)
	setFloat64("ARBMON_POLYMARKET_FEE_RATE", &cfg.Polymarket.FeeRate)
	setFloat64("ARBMON_POLYMARKET_MIN_VOLUME", &cfg.Polymarket.MinVolume)

	setStr("ARBMON_KALSHI_BASE_URL", &cfg.Kalshi.BaseURL)
	setStr("ARBMON_KALSHI_API_KEY", &cfg.Kalshi.ApiKey)
	setStr("ARBMON_KALSHI_RSA_KEY_PATH", &cfg.Kalshi.RsaPrivateKeyPath)
	setFloat64("ARBMON_KALSHI_FEE_RATE", &cfg.Kalshi.FeeRate)
	setFloat64("ARBMON_KALSHI_MIN_VOLUME", &cfg.Kalshi.MinVolume)

	setFloat64("ARBMON_MIN_PROFIT_THRESHOLD", &cfg.Arbitrage.MinProfitThreshold)
	setFloat64("ARBMON_MAX_POSITION_SIZE", &cfg.Arbitrage.MaxPositionSize)
	setFloat64("ARBMON_SLIPPAGE_BUFFER", &cfg.Arbitrage.SlippageBuffer)
	setFloat64("ARBMON_MIN_TRADE_CAPITAL", &cfg.Arbitrage.MinTradeCapital)
	setFloat64("ARBMON_MIN_CONFIDENCE", &cfg.Arbitrage.MinConfidence)

	setFloat64("ARBMON_SIMILARITY_THRESHOLD", &cfg.Matching.SimilarityThreshold)

	setDur("ARBMON_UPDATE_INTERVAL", &cfg.Monitoring.UpdateInterval)
	setInt("ARBMON_BATCH_SIZE", &cfg.Monitoring.BatchSize)
	setDur("ARBMON_STOP_TIMEOUT", &cfg.Monitoring.StopTimeout)
	setInt("ARBMON_RETENTION_DAYS", &cfg.Monitoring.RetentionDays)
	setBool("ARBMON_ARCHIVE_ENABLED", &cfg.Monitoring.ArchiveEnabled)

	setFloat64("ARBMON_ALERT_MIN_PROFIT", &cfg.Alerts.MinProfit)
	setDur("ARBMON_ALERT_COOLDOWN", &cfg.Alerts.Cooldown)

	setStr("ARBMON_POSTGRES_DSN", &cfg.Postgres.DSN)
	setStr("ARBMON_POSTGRES_HOST", &cfg.Postgres.Host)
	setInt("ARBMON_POSTGRES_PORT", &cfg.Postgres.Port)
	setStr("ARBMON_POSTGRES_DATABASE", &cfg.Postgres.Database)
	setStr("ARBMON_POSTGRES_USER", &cfg.Postgres.User)
	setStr("ARBMON_POSTGRES_PASSWORD", &cfg.Postgres.Password)
	setStr("ARBMON_POSTGRES_SSL_MODE", &cfg.Postgres.SSLMode)
	setBool("ARBMON_POSTGRES_RUN_MIGRATIONS", &cfg.Postgres.RunMigrations)

	setStr("ARBMON_REDIS_ADDR", &cfg.Redis.Addr)
	setStr("ARBMON_REDIS_PASSWORD", &cfg.Redis.Password)
	setInt("ARBMON_REDIS_DB", &cfg.Redis.DB)

	setStr("ARBMON_S3_ENDPOINT", &cfg.S3.Endpoint)
	setStr("ARBMON_S3_REGION", &cfg.S3.Region)
	setStr("ARBMON_S3_BUCKET", &cfg.S3.Bucket)
	setStr("ARBMON_S3_ACCESS_KEY", &cfg.S3.AccessKey)
	setStr("ARBMON_S3_SECRET_KEY", &cfg.S3.SecretKey)

	setStr("ARBMON_COHERE_API_KEY", &cfg.Embeddings.ApiKey)
	setStr("ARBMON_EMBED_MODEL", &cfg.Embeddings.Model)

	setBool("ARBMON_SERVER_ENABLED", &cfg.Server.Enabled)
	setInt("ARBMON_SERVER_PORT", &cfg.Server.Port)
	setStr("ARBMON_SERVER_API_KEY", &cfg.Server.APIKey)

	setStr("ARBMON_TELEGRAM_TOKEN", &cfg.Notify.TelegramToken)
	setStr("ARBMON_TELEGRAM_CHAT_ID", &cfg.Notify.TelegramChatID)
	setStr("ARBMON_DISCORD_WEBHOOK_URL", &cfg.Notify.DiscordWebhookURL)
}

func setStr(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(key string, dst *int) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(key string, dst *float64) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(key string, dst *bool) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDur(key string, dst *duration) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
