// Package config loads the sniper configuration from file, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"solana-sniper/internal/backoff"
	"solana-sniper/internal/discovery"
	"solana-sniper/internal/engine"
	"solana-sniper/internal/execution"
	"solana-sniper/internal/gate"
	"solana-sniper/internal/logging"
	"solana-sniper/internal/market"
	"solana-sniper/internal/position"
	"solana-sniper/internal/queue"
	"solana-sniper/internal/revival"
	"solana-sniper/internal/scoring"
	"solana-sniper/internal/solana"
)

// EnvPrefix prefixes every environment override, e.g. SNIPER_ENGINE_TICK_INTERVAL.
const EnvPrefix = "SNIPER"

// Config materialises application configuration.
type Config struct {
	App       AppConfig             `mapstructure:"app"`
	Logging   logging.Config        `mapstructure:"logging"`
	Gate      gate.Config           `mapstructure:"gate"`
	Backoff   backoff.Config        `mapstructure:"backoff"`
	Queue     queue.Config          `mapstructure:"queue"`
	Exit      position.Config       `mapstructure:"exit"`
	Revival   revival.Config        `mapstructure:"revival"`
	Engine    engine.Config         `mapstructure:"engine"`
	Market    MarketConfig          `mapstructure:"market"`
	Solana    SolanaConfig          `mapstructure:"solana"`
	Scoring   scoring.Config        `mapstructure:"scoring"`
	Execution execution.PaperConfig `mapstructure:"execution"`
	Storage   StorageConfig         `mapstructure:"storage"`
	Metrics   MetricsConfig         `mapstructure:"metrics"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// MarketConfig covers the DexScreener snapshot source.
type MarketConfig struct {
	market.Config `mapstructure:",squash"`

	// Discover enables periodic polling of newly listed token profiles.
	Discover bool `mapstructure:"discover"`
}

// SolanaConfig covers RPC and WebSocket access.
type SolanaConfig struct {
	RPCURL        string        `mapstructure:"rpc_url"` // empty disables holder lookups
	RPCTimeout    time.Duration `mapstructure:"rpc_timeout"`
	RPCMaxRetries int           `mapstructure:"rpc_max_retries"`

	WSURL string               `mapstructure:"ws_url"` // empty disables the launch feed
	WS    solana.WSConfig      `mapstructure:"ws"`
	Feed  discovery.FeedConfig `mapstructure:"feed"`

	Holders market.HolderConfig `mapstructure:"holders"`
}

// StorageConfig selects persistence backends.
// Without a Postgres DSN the ledger is a local file and positions live in memory.
type StorageConfig struct {
	PostgresDSN   string                 `mapstructure:"postgres_dsn"`
	ClickhouseDSN string                 `mapstructure:"clickhouse_dsn"`
	LedgerPath    string                 `mapstructure:"ledger_path"`
	Migrate       bool                   `mapstructure:"migrate"`
	Persister     engine.PersisterConfig `mapstructure:"persister"`
}

// MetricsConfig configures the HTTP server for /metrics, /health and /status.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v, path != ""); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Backoff.MinAgeMinutes = cfg.Gate.MinAgeMinutes

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// readConfig tolerates a missing default config file but not a missing explicit one.
func readConfig(v *viper.Viper, explicit bool) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !explicit && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "solana-sniper")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.caller", false)

	g := gate.DefaultConfig()
	v.SetDefault("gate.chain_id", g.ChainID)
	v.SetDefault("gate.timezone", g.Timezone)
	v.SetDefault("gate.trading_windows", []string{})
	v.SetDefault("gate.blocked_hours", []int{})
	v.SetDefault("gate.min_age_minutes", g.MinAgeMinutes)
	v.SetDefault("gate.max_age_days", g.MaxAgeDays)
	v.SetDefault("gate.min_liquidity_usd", g.MinLiquidityUSD)
	v.SetDefault("gate.early_liquidity_discount", g.EarlyLiquidityDiscount)
	v.SetDefault("gate.early_liquidity_min_usd", g.EarlyLiquidityMinUSD)
	v.SetDefault("gate.min_volume_24h_usd", g.MinVolume24hUSD)
	v.SetDefault("gate.max_volume_24h_usd", g.MaxVolume24hUSD)
	v.SetDefault("gate.min_market_cap_usd", g.MinMarketCapUSD)
	v.SetDefault("gate.max_market_cap_usd", g.MaxMarketCapUSD)
	v.SetDefault("gate.early_mcap_multiplier", g.EarlyMcapMultiplier)
	v.SetDefault("gate.min_holders", g.MinHolders)

	q := queue.DefaultConfig()
	v.SetDefault("queue.max_retries", q.MaxRetries)
	v.SetDefault("queue.capacity", q.Capacity)
	v.SetDefault("queue.max_wait", q.MaxWait)

	x := position.DefaultConfig()
	v.SetDefault("exit.take_profit_pct", x.TakeProfitPct)
	v.SetDefault("exit.stop_loss_pct", x.StopLossPct)
	v.SetDefault("exit.trailing_pct", x.TrailingPct)
	v.SetDefault("exit.max_hold", x.MaxHold)

	r := revival.DefaultConfig()
	v.SetDefault("revival.min_liquidity_usd", r.MinLiquidityUSD)
	v.SetDefault("revival.min_volume_1h_usd", r.MinVolume1hUSD)
	v.SetDefault("revival.min_price_change_5m_pct", r.MinPriceChange5mPct)
	v.SetDefault("revival.max_per_tick", r.MaxPerTick)

	e := engine.DefaultConfig()
	v.SetDefault("engine.tick_interval", e.TickInterval)
	v.SetDefault("engine.batch_size", e.BatchSize)
	v.SetDefault("engine.discovery_interval", e.DiscoveryInterval)
	v.SetDefault("engine.feed_drain_limit", e.FeedDrainLimit)
	v.SetDefault("engine.acquire_threshold", e.AcquireThreshold)
	v.SetDefault("engine.buy_amount_usd", e.BuyAmountUSD)
	v.SetDefault("engine.max_open_positions", e.MaxOpenPositions)

	m := market.DefaultConfig()
	v.SetDefault("market.base_url", m.BaseURL)
	v.SetDefault("market.chain_id", m.ChainID)
	v.SetDefault("market.requests_per_minute", m.RequestsPerMinute)
	v.SetDefault("market.timeout", m.Timeout)
	v.SetDefault("market.breaker_failures", m.BreakerFailures)
	v.SetDefault("market.breaker_timeout", m.BreakerTimeout)
	v.SetDefault("market.discover", true)

	ws := solana.DefaultWSConfig()
	v.SetDefault("solana.rpc_url", "")
	v.SetDefault("solana.rpc_timeout", solana.DefaultTimeout)
	v.SetDefault("solana.rpc_max_retries", solana.DefaultMaxRetries)
	v.SetDefault("solana.ws_url", "")
	v.SetDefault("solana.ws.reconnect_delay", ws.ReconnectDelay)
	v.SetDefault("solana.ws.max_reconnect_delay", ws.MaxReconnectDelay)
	v.SetDefault("solana.ws.ping_interval", ws.PingInterval)
	v.SetDefault("solana.ws.read_timeout", ws.ReadTimeout)
	v.SetDefault("solana.ws.write_timeout", ws.WriteTimeout)
	v.SetDefault("solana.ws.commitment", ws.Commitment)
	v.SetDefault("solana.feed.buffer", 256)
	v.SetDefault("solana.feed.seen_capacity", 10_000)
	v.SetDefault("solana.holders.cluster_max_share_pct", market.DefaultHolderConfig().ClusterMaxSharePct)

	s := scoring.DefaultConfig()
	v.SetDefault("scoring.endpoint", "")
	v.SetDefault("scoring.timeout", s.Timeout)
	v.SetDefault("scoring.static", s.Static)

	p := execution.DefaultPaperConfig()
	v.SetDefault("execution.wallet", "")
	v.SetDefault("execution.slippage_bps", p.SlippageBps)

	ps := engine.DefaultPersisterConfig()
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.clickhouse_dsn", "")
	v.SetDefault("storage.ledger_path", "data/ledger.jsonl")
	v.SetDefault("storage.migrate", true)
	v.SetDefault("storage.persister.buffer", ps.Buffer)
	v.SetDefault("storage.persister.verdict_batch", ps.VerdictBatch)
	v.SetDefault("storage.persister.flush_interval", ps.FlushInterval)
	v.SetDefault("storage.persister.write_timeout", ps.WriteTimeout)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.addr", ":9090")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs sanity checks that do not need a constructed component.
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	if err := c.Exit.Validate(); err != nil {
		return fmt.Errorf("exit: %w", err)
	}
	if err := c.Market.Validate(); err != nil {
		return err
	}
	if c.Gate.ChainID == "" {
		return errors.New("gate.chain_id is required")
	}
	if c.Gate.ChainID != c.Market.ChainID {
		return fmt.Errorf("gate.chain_id %q and market.chain_id %q differ", c.Gate.ChainID, c.Market.ChainID)
	}
	if c.Gate.MinAgeMinutes < 0 {
		return errors.New("gate.min_age_minutes cannot be negative")
	}
	for _, h := range c.Gate.BlockedHours {
		if h < 0 || h > 23 {
			return fmt.Errorf("gate.blocked_hours: %d out of range", h)
		}
	}
	if c.Queue.MaxRetries <= 0 {
		return errors.New("queue.max_retries must be positive")
	}
	if c.Scoring.Endpoint == "" && (c.Scoring.Static < 0 || c.Scoring.Static > 1) {
		return errors.New("scoring.static must be in [0,1]")
	}
	if c.Execution.SlippageBps < 0 || c.Execution.SlippageBps >= 10_000 {
		return errors.New("execution.slippage_bps must be in [0,10000)")
	}
	if c.Storage.PostgresDSN == "" && c.Storage.LedgerPath == "" {
		return errors.New("storage.ledger_path is required without storage.postgres_dsn")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return errors.New("metrics.addr is required when metrics are enabled")
	}
	return nil
}
