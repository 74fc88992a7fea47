package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ORBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ORBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// Session
	setStr(&cfg.Session.Timezone, "ORBOT_SESSION_TIMEZONE")
	setStr(&cfg.Session.MarketOpen, "ORBOT_SESSION_MARKET_OPEN")
	setStr(&cfg.Session.FirstCandleEnd, "ORBOT_SESSION_FIRST_CANDLE_END")
	setStr(&cfg.Session.EntryCutoff, "ORBOT_SESSION_ENTRY_CUTOFF")
	setStr(&cfg.Session.MarketClose, "ORBOT_SESSION_MARKET_CLOSE")
	setDuration(&cfg.Session.CandleWidth, "ORBOT_SESSION_CANDLE_WIDTH")
	setInt(&cfg.Session.OpeningRangeCandles, "ORBOT_SESSION_OPENING_RANGE_CANDLES")
	setDuration(&cfg.Session.TimerInterval, "ORBOT_SESSION_TIMER_INTERVAL")

	// Strategy
	setFloat64(&cfg.Strategy.RiskPerTrade, "ORBOT_STRATEGY_RISK_PER_TRADE")
	setFloat64(&cfg.Strategy.VolatilityThresholdPct, "ORBOT_STRATEGY_VOLATILITY_THRESHOLD_PCT")
	setInt(&cfg.Strategy.MaxPerSide, "ORBOT_STRATEGY_MAX_PER_SIDE")

	// Universe
	setStringSlice(&cfg.Universe.Symbols, "ORBOT_UNIVERSE_SYMBOLS")

	// Broker
	setStr(&cfg.Broker.WsURL, "ORBOT_BROKER_WS_URL")
	setStr(&cfg.Broker.RestURL, "ORBOT_BROKER_REST_URL")
	setStr(&cfg.Broker.ApiKey, "ORBOT_BROKER_API_KEY")
	setStr(&cfg.Broker.ApiSecret, "ORBOT_BROKER_API_SECRET")
	setStr(&cfg.Broker.EncryptedSecretPath, "ORBOT_BROKER_ENCRYPTED_SECRET_PATH")
	setStr(&cfg.Broker.SecretPassword, "ORBOT_BROKER_SECRET_PASSWORD")

	// Postgres
	setBool(&cfg.Postgres.Enabled, "ORBOT_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "ORBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "ORBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ORBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ORBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ORBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ORBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ORBOT_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ORBOT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ORBOT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "ORBOT_POSTGRES_RUN_MIGRATIONS")

	// Redis
	setBool(&cfg.Redis.Enabled, "ORBOT_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "ORBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ORBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ORBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ORBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ORBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ORBOT_REDIS_TLS_ENABLED")

	// S3
	setBool(&cfg.S3.Enabled, "ORBOT_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "ORBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ORBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "ORBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ORBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ORBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ORBOT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ORBOT_S3_FORCE_PATH_STYLE")

	// Metrics
	setBool(&cfg.Metrics.Enabled, "ORBOT_METRICS_ENABLED")
	setInt(&cfg.Metrics.Port, "ORBOT_METRICS_PORT")

	// Notify
	setStr(&cfg.Notify.TelegramToken, "ORBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ORBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ORBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ORBOT_NOTIFY_EVENTS")

	// Top-level
	setStr(&cfg.Mode, "ORBOT_MODE")
	setStr(&cfg.LogLevel, "ORBOT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
