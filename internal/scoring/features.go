// Package scoring builds feature vectors and obtains acquisition probabilities.
package scoring

import (
	"math"

	"solana-sniper/internal/domain"
)

// FeatureNames lists the feature vector layout in order.
var FeatureNames = []string{
	"age_minutes",
	"log_liquidity_usd",
	"log_volume_24h_usd",
	"log_volume_1h_usd",
	"log_market_cap_usd",
	"holders",
	"txns_5m",
	"sell_ratio_5m",
	"price_change_5m_pct",
	"risk_score",
	"cluster_flagged",
	"has_socials",
	"insider_signal",
	"early_launch",
	"soft_score",
}

// Features builds the ordered feature vector for c. Unknown values become 0.
func Features(c *domain.Candidate, softScore int) []float64 {
	sellRatio := 0.0
	if c.Txns5m > 0 {
		sellRatio = float64(c.Sells5m) / float64(c.Txns5m)
	}

	priceChange := 0.0
	if c.PriceChange5m != nil {
		priceChange = domain.NormalizePct(*c.PriceChange5m)
	}

	return []float64{
		c.Age(),
		logOrZero(c.LiquidityUSD),
		logOrZero(c.Volume24hUSD),
		logOrZero(c.Volume1hEquivalent()),
		logOrZero(c.MarketCapUSD),
		float64(c.Holders),
		float64(c.Txns5m),
		sellRatio,
		priceChange,
		valueOrZero(c.RiskScore),
		boolFeature(c.ClusterFlagged),
		boolFeature(c.HasSocials),
		boolFeature(c.InsiderSignal),
		boolFeature(c.Channel.IsEarlyLaunch()),
		float64(softScore),
	}
}

func logOrZero(v *float64) float64 {
	if v == nil || *v <= 0 {
		return 0
	}
	return math.Log1p(*v)
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
