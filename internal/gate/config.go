package gate

// Config holds admission thresholds.
// Zero-valued optional bounds (max volume, min/max market cap) disable the bound.
type Config struct {
	ChainID        string   `mapstructure:"chain_id"`
	Timezone       string   `mapstructure:"timezone"`        // IANA name, empty = UTC
	TradingWindows []string `mapstructure:"trading_windows"` // "HH:MM-HH:MM", may wrap midnight
	BlockedHours   []int    `mapstructure:"blocked_hours"`   // local hours 0..23

	MinAgeMinutes float64 `mapstructure:"min_age_minutes"`
	MaxAgeDays    float64 `mapstructure:"max_age_days"`

	MinLiquidityUSD        float64 `mapstructure:"min_liquidity_usd"`
	EarlyLiquidityDiscount float64 `mapstructure:"early_liquidity_discount"` // fraction removed from the floor
	EarlyLiquidityMinUSD   float64 `mapstructure:"early_liquidity_min_usd"`  // absolute floor for early-launch

	MinVolume24hUSD float64 `mapstructure:"min_volume_24h_usd"`
	MaxVolume24hUSD float64 `mapstructure:"max_volume_24h_usd"`

	MinMarketCapUSD     float64 `mapstructure:"min_market_cap_usd"`
	MaxMarketCapUSD     float64 `mapstructure:"max_market_cap_usd"`
	EarlyMcapMultiplier float64 `mapstructure:"early_mcap_multiplier"`

	MinHolders int `mapstructure:"min_holders"`
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		ChainID:                "solana",
		Timezone:               "UTC",
		MinAgeMinutes:          2,
		MaxAgeDays:             3,
		MinLiquidityUSD:        8000,
		EarlyLiquidityDiscount: 0.5,
		EarlyLiquidityMinUSD:   2500,
		MinVolume24hUSD:        5000,
		MaxVolume24hUSD:        5_000_000,
		MinMarketCapUSD:        5000,
		MaxMarketCapUSD:        250_000,
		EarlyMcapMultiplier:    1.5,
		MinHolders:             10,
	}
}

// Fixed rule constants.
const (
	graceWindowMinutes     = 5.0
	instantZeroLiqMinutes  = 1.0
	earlySellWindowMinutes = 10.0
	sellRatioThreshold     = 0.70
	flatPriceBandPct       = 5.0
	minEarlyHolderMinutes  = 1.0
)
