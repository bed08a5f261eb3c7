// Package gate implements the admission gate and the soft scorer.
package gate

import (
	"fmt"
	"math"
	"time"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
)

// Gate evaluates candidates against the configured admission rules.
// It performs no I/O and is safe for concurrent use.
type Gate struct {
	cfg      Config
	schedule *Schedule
}

// New validates cfg and builds a Gate.
func New(cfg Config) (*Gate, error) {
	if cfg.ChainID == "" {
		return nil, fmt.Errorf("gate: chain_id is required")
	}
	if cfg.MinAgeMinutes < 0 || cfg.MaxAgeDays < 0 {
		return nil, fmt.Errorf("gate: ages must be non-negative")
	}
	if cfg.EarlyLiquidityDiscount < 0 || cfg.EarlyLiquidityDiscount >= 1 {
		return nil, fmt.Errorf("gate: early_liquidity_discount must be in [0,1)")
	}
	if cfg.EarlyMcapMultiplier <= 0 {
		cfg.EarlyMcapMultiplier = 1
	}
	schedule, err := NewSchedule(cfg.Timezone, cfg.TradingWindows, cfg.BlockedHours)
	if err != nil {
		return nil, fmt.Errorf("gate: %w", err)
	}
	return &Gate{cfg: cfg, schedule: schedule}, nil
}

// Config returns the gate configuration.
func (g *Gate) Config() Config {
	return g.cfg
}

// Schedule returns the trading-window schedule.
func (g *Gate) Schedule() *Schedule {
	return g.schedule
}

// Evaluate applies the rules in order; the first decisive rule wins.
func (g *Gate) Evaluate(c *domain.Candidate, now time.Time) domain.Verdict {
	if g.schedule.HasWindows() && !g.schedule.InWindow(now) {
		return domain.Defer(domain.ReasonOutOfWindow)
	}
	if g.schedule.Blocked(now) {
		return domain.Defer(domain.ReasonBlockedHour)
	}

	if c.ChainID != g.cfg.ChainID {
		return domain.Reject(domain.ReasonBadChain)
	}
	if !solana.IsValidAddress(c.Address) {
		return domain.Reject(domain.ReasonBadAddress)
	}

	age, ageKnown := c.Age(), c.AgeKnown()
	if ageKnown && age < g.cfg.MinAgeMinutes {
		return domain.Defer(domain.ReasonTooYoung)
	}
	if ageKnown && g.cfg.MaxAgeDays > 0 && age > g.cfg.MaxAgeDays*24*60 {
		return domain.Reject(domain.ReasonTooOld)
	}

	inGrace := ageKnown && age < graceWindowMinutes
	if !inGrace {
		if v, decided := g.checkThresholds(c); decided {
			return v
		}
	}

	if ageKnown && age < instantZeroLiqMinutes && (c.LiquidityUSD == nil || *c.LiquidityUSD <= 0) {
		return domain.Defer(domain.ReasonEarlyZeroLiq)
	}

	if v, decided := g.checkHolders(c, age, ageKnown); decided {
		return v
	}

	if ageKnown && age < earlySellWindowMinutes && sellPressure(c) {
		return domain.Reject(domain.ReasonSellPressure)
	}

	return domain.Accept()
}

// LiquidityFloor returns the liquidity floor for the candidate's channel.
func (g *Gate) LiquidityFloor(ch domain.Channel) float64 {
	if !ch.IsEarlyLaunch() {
		return g.cfg.MinLiquidityUSD
	}
	return math.Max(g.cfg.MinLiquidityUSD*(1-g.cfg.EarlyLiquidityDiscount), g.cfg.EarlyLiquidityMinUSD)
}

// MarketCapCeiling returns the market-cap maximum for the channel, 0 when unbounded.
func (g *Gate) MarketCapCeiling(ch domain.Channel) float64 {
	if g.cfg.MaxMarketCapUSD <= 0 {
		return 0
	}
	if ch.IsEarlyLaunch() {
		return g.cfg.MaxMarketCapUSD * g.cfg.EarlyMcapMultiplier
	}
	return g.cfg.MaxMarketCapUSD
}

func (g *Gate) checkThresholds(c *domain.Candidate) (domain.Verdict, bool) {
	if c.LiquidityUSD == nil || *c.LiquidityUSD < g.LiquidityFloor(c.Channel) {
		return domain.Reject(domain.ReasonLowLiquidity), true
	}

	if c.Volume24hUSD == nil || *c.Volume24hUSD < g.cfg.MinVolume24hUSD {
		return domain.Reject(domain.ReasonLowVolume), true
	}
	if g.cfg.MaxVolume24hUSD > 0 && *c.Volume24hUSD > g.cfg.MaxVolume24hUSD {
		return domain.Reject(domain.ReasonHighVolume), true
	}

	if c.MarketCapUSD != nil {
		mcap := *c.MarketCapUSD
		if g.cfg.MinMarketCapUSD > 0 && mcap < g.cfg.MinMarketCapUSD {
			return domain.Reject(domain.ReasonMcapLow), true
		}
		if ceiling := g.MarketCapCeiling(c.Channel); ceiling > 0 && mcap > ceiling {
			return domain.Reject(domain.ReasonMcapHigh), true
		}
	}
	return domain.Verdict{}, false
}

func (g *Gate) checkHolders(c *domain.Candidate, age float64, ageKnown bool) (domain.Verdict, bool) {
	early := ageKnown && age < math.Max(2*g.cfg.MinAgeMinutes, minEarlyHolderMinutes)

	switch {
	case c.Holders == 0 && c.Txns5m == 0 && early:
		return domain.Defer(domain.ReasonHoldersPending), true
	case c.Holders == 0:
		// holder data not reported yet
		return domain.Verdict{}, false
	case c.Holders < g.cfg.MinHolders:
		if early {
			return domain.Defer(domain.ReasonHoldersPending), true
		}
		return domain.Reject(domain.ReasonLowHolders), true
	}
	return domain.Verdict{}, false
}

// sellPressure reports a sell-dominated 5m window with a flat price.
func sellPressure(c *domain.Candidate) bool {
	if c.Txns5m <= 0 || c.PriceChange5m == nil {
		return false
	}
	ratio := float64(c.Sells5m) / float64(c.Txns5m)
	if ratio <= sellRatioThreshold {
		return false
	}
	return math.Abs(domain.NormalizePct(*c.PriceChange5m)) <= flatPriceBandPct
}
