// Package market fetches token market snapshots from DexScreener and Solana RPC.
package market

import (
	"errors"
	"time"
)

// Config configures the DexScreener client.
type Config struct {
	BaseURL           string        `mapstructure:"base_url"`
	ChainID           string        `mapstructure:"chain_id"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Timeout           time.Duration `mapstructure:"timeout"`

	// Circuit breaker
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
}

// DefaultConfig returns DexScreener defaults (public API allows 300 rpm on pair endpoints).
func DefaultConfig() Config {
	return Config{
		BaseURL:           "https://api.dexscreener.com",
		ChainID:           "solana",
		RequestsPerMinute: 240,
		Timeout:           10 * time.Second,
		BreakerFailures:   5,
		BreakerTimeout:    30 * time.Second,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("market.base_url is required")
	}
	if c.ChainID == "" {
		return errors.New("market.chain_id is required")
	}
	if c.RequestsPerMinute <= 0 {
		return errors.New("market.requests_per_minute must be positive")
	}
	return nil
}

// HolderConfig configures the RPC holder source.
type HolderConfig struct {
	// ClusterMaxSharePct flags a token whose top-10 accounts hold more than this share of supply.
	ClusterMaxSharePct float64 `mapstructure:"cluster_max_share_pct"`
}

// DefaultHolderConfig returns holder source defaults.
func DefaultHolderConfig() HolderConfig {
	return HolderConfig{ClusterMaxSharePct: 60}
}
