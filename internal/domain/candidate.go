package domain

import "time"

// Candidate is a normalized market snapshot of a token under evaluation.
// It is treated as immutable for the duration of one evaluation.
// Nil numeric fields mean "unknown", never zero.
type Candidate struct {
	Address      string    // token mint address
	Symbol       string    // ticker symbol (may be empty)
	ChainID      string    // chain tag reported by the data provider
	Channel      Channel   // standard | early-launch
	DiscoveredAt time.Time // when the address first entered the pipeline

	AgeMinutes    *float64 // raw reported age in minutes (nullable)
	LiquidityUSD  *float64 // pool liquidity in USD (nullable)
	Volume24hUSD  *float64 // 24h volume in USD (nullable)
	Volume1hUSD   *float64 // 1h volume in USD (nullable)
	MarketCapUSD  *float64 // market cap in USD (nullable)
	PriceUSD      *float64 // last price in USD (nullable)
	PriceChange5m *float64 // 5m price change, fraction or percent depending on provider

	Holders int // holder count, 0 when unknown
	Txns5m  int // transactions in the last 5 minutes
	Buys5m  int // buys in the last 5 minutes
	Sells5m int // sells in the last 5 minutes

	// Soft signals, consumed only by the soft scorer.
	RiskScore      *float64 // external risk score 0..100 (higher is safer)
	ClusterFlagged bool     // holder cluster concentration check failed
	HasSocials     bool     // listing has website/social links
	InsiderSignal  bool     // insider activity detected
}

// AgeKnown reports whether the provider reported an age.
func (c *Candidate) AgeKnown() bool {
	return c.AgeMinutes != nil
}

// Age returns the reported age in minutes, or 0 when unknown.
func (c *Candidate) Age() float64 {
	if c.AgeMinutes == nil {
		return 0
	}
	return *c.AgeMinutes
}

// Volume1hEquivalent returns 1h volume, falling back to 24h volume spread evenly.
// Returns nil when neither is known.
func (c *Candidate) Volume1hEquivalent() *float64 {
	if c.Volume1hUSD != nil {
		return c.Volume1hUSD
	}
	if c.Volume24hUSD != nil {
		v := *c.Volume24hUSD / 24
		return &v
	}
	return nil
}
