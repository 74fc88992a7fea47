// Package config defines the top-level configuration for the opening-range
// breakout bot and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ORBOT_* environment variables.
type Config struct {
	Session  SessionConfig  `toml:"session"`
	Strategy StrategyConfig `toml:"strategy"`
	Universe UniverseConfig `toml:"universe"`
	Broker   BrokerConfig   `toml:"broker"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// SessionConfig holds the trading-day schedule. The four cutoffs are local
// wall-clock times ("HH:MM:SS") in Timezone and must be strictly increasing.
type SessionConfig struct {
	Timezone            string   `toml:"timezone"`
	MarketOpen          string   `toml:"market_open"`
	FirstCandleEnd      string   `toml:"first_candle_end"`
	EntryCutoff         string   `toml:"entry_cutoff"`
	MarketClose         string   `toml:"market_close"`
	CandleWidth         duration `toml:"candle_width"`
	OpeningRangeCandles int      `toml:"opening_range_candles"`
	TimerInterval       duration `toml:"timer_interval"`
}

// StrategyConfig holds breakout strategy parameters.
type StrategyConfig struct {
	RiskPerTrade           float64 `toml:"risk_per_trade"`
	VolatilityThresholdPct float64 `toml:"volatility_threshold_pct"`
	MaxPerSide             int     `toml:"max_per_side"`
}

// UniverseConfig holds the symbols the bot trades.
type UniverseConfig struct {
	Symbols []string `toml:"symbols"`
}

// BrokerConfig holds broker endpoints and API credentials. The secret may be
// given in plaintext via ApiSecret or as an encrypted file plus password.
type BrokerConfig struct {
	WsURL               string `toml:"ws_url"`
	RestURL             string `toml:"rest_url"`
	ApiKey              string `toml:"api_key"`
	ApiSecret           string `toml:"api_secret"`
	EncryptedSecretPath string `toml:"encrypted_secret_path"`
	SecretPassword      string `toml:"secret_password"`
}

// PostgresConfig holds PostgreSQL connection parameters for the trade journal.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
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

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for session archives.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// MetricsConfig holds Prometheus exposition parameters.
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "60s", "5m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "60s" or "5m".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Session: SessionConfig{
			Timezone:            "Asia/Kolkata",
			MarketOpen:          "09:15:00",
			FirstCandleEnd:      "09:20:00",
			EntryCutoff:         "14:30:00",
			MarketClose:         "15:15:00",
			CandleWidth:         duration{60 * time.Second},
			OpeningRangeCandles: 5,
			TimerInterval:       duration{5 * time.Second},
		},
		Strategy: StrategyConfig{
			RiskPerTrade:           1000.0,
			VolatilityThresholdPct: 1.0,
			MaxPerSide:             1,
		},
		Universe: UniverseConfig{
			Symbols: []string{},
		},
		Broker: BrokerConfig{
			WsURL:   "wss://ticks.example-broker.com/stream",
			RestURL: "https://api.example-broker.com",
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			DSN:           "",
			Host:          "localhost",
			Port:          5432,
			Database:      "orbot",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "orbot-sessions",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9102,
		},
		Notify: NotifyConfig{
			Events: []string{"bare_exposure", "feed_lost", "order_rejected", "session_closed"},
		},
		Mode:     "paper",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"live":  true,
	"paper": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// parseTimeOfDay parses a "HH:MM:SS" wall-clock string and returns the offset
// from midnight.
func parseTimeOfDay(s string) (time.Duration, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q (want HH:MM:SS): %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}

// Location resolves the configured IANA timezone.
func (s SessionConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("session: unknown timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// Resolve anchors the four session cutoffs onto the calendar day of `day` in
// the configured timezone and returns them as absolute instants.
func (s SessionConfig) Resolve(day time.Time) (open, firstCandleEnd, entryCutoff, marketClose time.Time, err error) {
	loc, err := s.Location()
	if err != nil {
		return
	}
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)

	at := func(spec string) (time.Time, error) {
		off, perr := parseTimeOfDay(spec)
		if perr != nil {
			return time.Time{}, perr
		}
		return midnight.Add(off), nil
	}

	if open, err = at(s.MarketOpen); err != nil {
		return
	}
	if firstCandleEnd, err = at(s.FirstCandleEnd); err != nil {
		return
	}
	if entryCutoff, err = at(s.EntryCutoff); err != nil {
		return
	}
	marketClose, err = at(s.MarketClose)
	return
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: live, paper)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Session: timezone must resolve and cutoffs must parse and strictly increase.
	if _, err := c.Session.Location(); err != nil {
		errs = append(errs, err.Error())
	} else {
		var offs []time.Duration
		names := []string{"market_open", "first_candle_end", "entry_cutoff", "market_close"}
		specs := []string{c.Session.MarketOpen, c.Session.FirstCandleEnd, c.Session.EntryCutoff, c.Session.MarketClose}
		ok := true
		for i, spec := range specs {
			off, err := parseTimeOfDay(spec)
			if err != nil {
				errs = append(errs, "session: "+names[i]+": "+err.Error())
				ok = false
				continue
			}
			offs = append(offs, off)
		}
		if ok {
			for i := 1; i < len(offs); i++ {
				if offs[i] <= offs[i-1] {
					errs = append(errs, fmt.Sprintf("session: %s (%s) must be after %s (%s)",
						names[i], specs[i], names[i-1], specs[i-1]))
				}
			}
		}
	}
	if c.Session.CandleWidth.Duration <= 0 {
		errs = append(errs, "session: candle_width must be positive")
	}
	if c.Session.OpeningRangeCandles < 1 {
		errs = append(errs, "session: opening_range_candles must be >= 1")
	}
	if c.Session.TimerInterval.Duration <= 0 {
		errs = append(errs, "session: timer_interval must be positive")
	}

	// Strategy
	if c.Strategy.RiskPerTrade <= 0 {
		errs = append(errs, "strategy: risk_per_trade must be > 0")
	}
	if c.Strategy.VolatilityThresholdPct <= 0 {
		errs = append(errs, "strategy: volatility_threshold_pct must be > 0")
	}
	if c.Strategy.MaxPerSide < 1 {
		errs = append(errs, "strategy: max_per_side must be >= 1")
	}

	// Universe
	if len(c.Universe.Symbols) == 0 {
		errs = append(errs, "universe: symbols must not be empty")
	}
	seen := make(map[string]bool, len(c.Universe.Symbols))
	for _, sym := range c.Universe.Symbols {
		if strings.TrimSpace(sym) == "" {
			errs = append(errs, "universe: symbols must not contain blank entries")
			continue
		}
		if seen[sym] {
			errs = append(errs, fmt.Sprintf("universe: duplicate symbol %q", sym))
		}
		seen[sym] = true
	}

	// Broker: credentials are required in live mode.
	if strings.ToLower(c.Mode) == "live" {
		if c.Broker.WsURL == "" {
			errs = append(errs, "broker: ws_url must not be empty in live mode")
		}
		if c.Broker.RestURL == "" {
			errs = append(errs, "broker: rest_url must not be empty in live mode")
		}
		if c.Broker.ApiKey == "" {
			errs = append(errs, "broker: api_key is required in live mode")
		}
		if c.Broker.ApiSecret == "" && c.Broker.EncryptedSecretPath == "" {
			errs = append(errs, "broker: either api_secret or encrypted_secret_path must be set in live mode")
		}
	}
	if c.Broker.EncryptedSecretPath != "" && c.Broker.SecretPassword == "" {
		errs = append(errs, "broker: secret_password is required when encrypted_secret_path is set")
	}

	// Postgres
	if c.Postgres.Enabled {
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
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}

	// Metrics
	if c.Metrics.Enabled {
		if c.Metrics.Port <= 0 || c.Metrics.Port > 65535 {
			errs = append(errs, fmt.Sprintf("metrics: port must be 1-65535, got %d", c.Metrics.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
