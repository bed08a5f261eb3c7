// Package engine runs the cooperative discovery, admission and position loop.
package engine

import (
	"errors"
	"time"
)

// Config configures the loop.
type Config struct {
	TickInterval      time.Duration `mapstructure:"tick_interval"`
	BatchSize         int           `mapstructure:"batch_size"`
	DiscoveryInterval time.Duration `mapstructure:"discovery_interval"`
	FeedDrainLimit    int           `mapstructure:"feed_drain_limit"`

	// Acquisition
	AcquireThreshold float64 `mapstructure:"acquire_threshold"`
	BuyAmountUSD     float64 `mapstructure:"buy_amount_usd"`
	MaxOpenPositions int     `mapstructure:"max_open_positions"`
}

// DefaultConfig returns loop defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval:      2 * time.Second,
		BatchSize:         25,
		DiscoveryInterval: 30 * time.Second,
		FeedDrainLimit:    500,
		AcquireThreshold:  0.6,
		BuyAmountUSD:      25,
		MaxOpenPositions:  5,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return errors.New("engine.tick_interval must be positive")
	}
	if c.BatchSize <= 0 {
		return errors.New("engine.batch_size must be positive")
	}
	if c.AcquireThreshold < 0 || c.AcquireThreshold > 1 {
		return errors.New("engine.acquire_threshold must be in [0,1]")
	}
	if c.BuyAmountUSD <= 0 {
		return errors.New("engine.buy_amount_usd must be positive")
	}
	if c.MaxOpenPositions <= 0 {
		return errors.New("engine.max_open_positions must be positive")
	}
	return nil
}
