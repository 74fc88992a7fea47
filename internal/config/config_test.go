package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Universe.Symbols = []string{"RELIANCE", "TCS"}
	return cfg
}

func TestDefaultsValidateWithSymbols(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsEmptyUniverse(t *testing.T) {
	cfg := Defaults()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "universe: symbols must not be empty")
}

func TestValidateRejectsUnorderedCutoffs(t *testing.T) {
	cfg := validConfig()
	cfg.Session.EntryCutoff = "09:10:00" // before first_candle_end

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry_cutoff")
	assert.Contains(t, err.Error(), "must be after")
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "backtest"
	cfg.Strategy.RiskPerTrade = 0
	cfg.Universe.Symbols = []string{"TCS", "TCS"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "risk_per_trade")
	assert.Contains(t, err.Error(), `duplicate symbol "TCS"`)
}

func TestValidateLiveModeRequiresCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "live"
	cfg.Broker.ApiKey = ""
	cfg.Broker.ApiSecret = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key is required")
	assert.Contains(t, err.Error(), "api_secret or encrypted_secret_path")

	cfg.Broker.ApiKey = "key"
	cfg.Broker.ApiSecret = "secret"
	require.NoError(t, cfg.Validate())
}

func TestValidateEncryptedSecretNeedsPassword(t *testing.T) {
	cfg := validConfig()
	cfg.Broker.EncryptedSecretPath = "/etc/orbot/secret.enc"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret_password is required")
}

func TestSessionResolve(t *testing.T) {
	s := Defaults().Session
	day := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	open, fce, cutoff, close_, err := s.Resolve(day)
	require.NoError(t, err)

	loc, err := s.Location()
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 6, 2, 9, 15, 0, 0, loc), open)
	assert.Equal(t, time.Date(2025, 6, 2, 9, 20, 0, 0, loc), fce)
	assert.Equal(t, time.Date(2025, 6, 2, 14, 30, 0, 0, loc), cutoff)
	assert.Equal(t, time.Date(2025, 6, 2, 15, 15, 0, 0, loc), close_)
}

func TestSessionResolveUnknownTimezone(t *testing.T) {
	s := Defaults().Session
	s.Timezone = "Mars/Olympus_Mons"

	_, _, _, _, err := s.Resolve(time.Now())
	assert.Error(t, err)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
mode = "live"

[universe]
symbols = ["INFY"]

[session]
candle_width = "30s"

[strategy]
risk_per_trade = 500.0
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "live", cfg.Mode)
	assert.Equal(t, []string{"INFY"}, cfg.Universe.Symbols)
	assert.Equal(t, 30*time.Second, cfg.Session.CandleWidth.Duration)
	assert.Equal(t, 500.0, cfg.Strategy.RiskPerTrade)
	// Untouched fields keep their defaults.
	assert.Equal(t, "09:15:00", cfg.Session.MarketOpen)
	assert.Equal(t, 1.0, cfg.Strategy.VolatilityThresholdPct)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[universe]
symbols = ["INFY"]
`)

	t.Setenv("ORBOT_MODE", "live")
	t.Setenv("ORBOT_UNIVERSE_SYMBOLS", "RELIANCE, TCS")
	t.Setenv("ORBOT_STRATEGY_RISK_PER_TRADE", "250.5")
	t.Setenv("ORBOT_SESSION_TIMER_INTERVAL", "2s")
	t.Setenv("ORBOT_POSTGRES_ENABLED", "true")
	t.Setenv("ORBOT_BROKER_API_SECRET", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "live", cfg.Mode)
	assert.Equal(t, []string{"RELIANCE", "TCS"}, cfg.Universe.Symbols)
	assert.Equal(t, 250.5, cfg.Strategy.RiskPerTrade)
	assert.Equal(t, 2*time.Second, cfg.Session.TimerInterval.Duration)
	assert.True(t, cfg.Postgres.Enabled)
	assert.Equal(t, "s3cret", cfg.Broker.ApiSecret)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}
