package gate

import "solana-sniper/internal/domain"

// ScoreThresholds are the floors the soft scorer measures against.
type ScoreThresholds struct {
	LiquidityUSD float64
	Volume24hUSD float64
	Holders      int
	RiskScore    float64
}

// Thresholds derives soft-score floors from the gate configuration.
func (g *Gate) Thresholds(c *domain.Candidate) ScoreThresholds {
	return ScoreThresholds{
		LiquidityUSD: g.LiquidityFloor(c.Channel),
		Volume24hUSD: g.cfg.MinVolume24hUSD,
		Holders:      g.cfg.MinHolders,
		RiskScore:    goodRiskScore,
	}
}

const (
	goodRiskScore = 70.0

	liquidityMultiple = 2.0
	volumeMultiple    = 3.0
	holdersMultiple   = 2
)

// Score returns a 0..100 quality score. It never gates admission.
func Score(c *domain.Candidate, th ScoreThresholds) int {
	score := 0
	if c.LiquidityUSD != nil && *c.LiquidityUSD >= liquidityMultiple*th.LiquidityUSD {
		score += 15
	}
	if c.Volume24hUSD != nil && *c.Volume24hUSD >= volumeMultiple*th.Volume24hUSD {
		score += 20
	}
	if c.Holders > 0 && c.Holders >= holdersMultiple*th.Holders {
		score += 10
	}
	if c.RiskScore != nil && *c.RiskScore >= th.RiskScore {
		score += 15
	}
	if !c.ClusterFlagged {
		score += 15
	}
	if c.HasSocials {
		score += 10
	}
	if !c.InsiderSignal {
		score += 10
	}
	return clamp(score, 0, 100)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
