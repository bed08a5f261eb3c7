package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-sniper/internal/engine"
	"solana-sniper/internal/gate"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "solana-sniper", cfg.App.Name)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, gate.DefaultConfig().MinLiquidityUSD, cfg.Gate.MinLiquidityUSD)
	assert.Equal(t, gate.DefaultConfig().MinAgeMinutes, cfg.Backoff.MinAgeMinutes)
	assert.Equal(t, engine.DefaultConfig().TickInterval, cfg.Engine.TickInterval)
	assert.Equal(t, "https://api.dexscreener.com", cfg.Market.BaseURL)
	assert.True(t, cfg.Market.Discover)
	assert.Equal(t, "data/ledger.jsonl", cfg.Storage.LedgerPath)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	assert.Empty(t, cfg.Gate.TradingWindows)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: console
gate:
  timezone: Europe/Berlin
  trading_windows: ["09:00-12:00", "22:00-02:00"]
  blocked_hours: [3, 4]
  min_age_minutes: 5
  max_market_cap_usd: 20000
backoff:
  rules:
    low_volume:
      max_attempts: 6
      delay: 45s
exit:
  take_profit_pct: 50
  max_hold: 90m
engine:
  tick_interval: 500ms
market:
  requests_per_minute: 60
  discover: false
solana:
  rpc_url: https://api.mainnet-beta.solana.com
  ws:
    commitment: processed
storage:
  persister:
    verdict_batch: 10
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "Europe/Berlin", cfg.Gate.Timezone)
	assert.Equal(t, []string{"09:00-12:00", "22:00-02:00"}, cfg.Gate.TradingWindows)
	assert.Equal(t, []int{3, 4}, cfg.Gate.BlockedHours)
	assert.Equal(t, 20000.0, cfg.Gate.MaxMarketCapUSD)
	assert.Equal(t, 5.0, cfg.Backoff.MinAgeMinutes)

	rule, ok := cfg.Backoff.Rules["low_volume"]
	require.True(t, ok)
	assert.Equal(t, 6, rule.MaxAttempts)
	assert.Equal(t, 45*time.Second, rule.Delay)

	assert.Equal(t, 50.0, cfg.Exit.TakeProfitPct)
	assert.Equal(t, 90*time.Minute, cfg.Exit.MaxHold)
	assert.Equal(t, 20.0, cfg.Exit.StopLossPct)
	assert.Equal(t, 500*time.Millisecond, cfg.Engine.TickInterval)
	assert.Equal(t, 60, cfg.Market.RequestsPerMinute)
	assert.False(t, cfg.Market.Discover)
	assert.Equal(t, "processed", cfg.Solana.WS.Commitment)
	assert.Equal(t, 10, cfg.Storage.Persister.VerdictBatch)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SNIPER_ENGINE_BUY_AMOUNT_USD", "40")
	t.Setenv("SNIPER_STORAGE_POSTGRES_DSN", "postgres://u:p@localhost:5432/sniper")
	t.Setenv("SNIPER_GATE_TRADING_WINDOWS", "08:00-10:00,20:00-23:00")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 40.0, cfg.Engine.BuyAmountUSD)
	assert.Equal(t, "postgres://u:p@localhost:5432/sniper", cfg.Storage.PostgresDSN)
	assert.Equal(t, []string{"08:00-10:00", "20:00-23:00"}, cfg.Gate.TradingWindows)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"chain mismatch", "market:\n  chain_id: ethereum\n"},
		{"threshold out of range", "engine:\n  acquire_threshold: 1.5\n"},
		{"blocked hour out of range", "gate:\n  blocked_hours: [24]\n"},
		{"slippage", "execution:\n  slippage_bps: 10000\n"},
		{"no ledger", "storage:\n  ledger_path: \"\"\n"},
		{"stop loss", "exit:\n  stop_loss_pct: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
