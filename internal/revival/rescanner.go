// Package revival re-examines soft-rejected candidates on a staged schedule.
package revival

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"solana-sniper/internal/domain"
)

// Config holds promotion floors.
type Config struct {
	MinLiquidityUSD     float64 `mapstructure:"min_liquidity_usd"`
	MinVolume1hUSD      float64 `mapstructure:"min_volume_1h_usd"`
	MinPriceChange5mPct float64 `mapstructure:"min_price_change_5m_pct"`
	MaxPerTick          int     `mapstructure:"max_per_tick"` // 0 = unlimited
}

// DefaultConfig returns production revival floors.
func DefaultConfig() Config {
	return Config{
		MinLiquidityUSD:     10_000,
		MinVolume1hUSD:      2_000,
		MinPriceChange5mPct: 5,
		MaxPerTick:          20,
	}
}

// SnapshotFetcher fetches a fresh candidate snapshot. (nil, nil) means no data yet.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context, address string) (*domain.Candidate, error)
}

// Staged re-check intervals by age since discovery.
const (
	youngAge      = 60 * time.Minute
	maturingAge   = 180 * time.Minute
	youngEvery    = 180 * time.Second
	maturingEvery = 300 * time.Second
	staleEvery    = 1800 * time.Second
)

// Interval returns the re-check interval for a candidate of the given age.
func Interval(age time.Duration) time.Duration {
	switch {
	case age < youngAge:
		return youngEvery
	case age < maturingAge:
		return maturingEvery
	default:
		return staleEvery
	}
}

// Rescanner owns the archive of soft-rejected candidates.
// Owned by the engine loop; not safe for concurrent use.
type Rescanner struct {
	cfg     Config
	fetcher SnapshotFetcher
	logger  zerolog.Logger
	archive map[string]*domain.ArchivedCandidate
}

// New creates a Rescanner.
func New(cfg Config, fetcher SnapshotFetcher, logger zerolog.Logger) *Rescanner {
	return &Rescanner{
		cfg:     cfg,
		fetcher: fetcher,
		logger:  logger.With().Str("component", "revival").Logger(),
		archive: make(map[string]*domain.ArchivedCandidate),
	}
}

// Archive stores a soft-rejected candidate. Re-archiving keeps the original
// discovery time and counts as a check.
func (r *Rescanner) Archive(c *domain.Candidate, reason string, now time.Time) {
	if existing, ok := r.archive[c.Address]; ok {
		existing.Reason = reason
		existing.LastCheckedAt = now
		return
	}

	discovered := c.DiscoveredAt
	if discovered.IsZero() {
		discovered = now
	}
	r.archive[c.Address] = &domain.ArchivedCandidate{
		Address:       c.Address,
		Channel:       c.Channel,
		Reason:        reason,
		DiscoveredAt:  discovered,
		LastCheckedAt: now,
		Holders:       c.Holders,
		LiquidityUSD:  c.LiquidityUSD,
		Volume24hUSD:  c.Volume24hUSD,
	}
}

// Due reports whether the archived candidate should be re-checked at now.
func Due(a *domain.ArchivedCandidate, now time.Time) bool {
	return now.Sub(a.LastCheckedAt) >= Interval(now.Sub(a.DiscoveredAt))
}

// Rescan re-checks due candidates and returns the promoted snapshots.
// Promoted candidates leave the archive. Fetch failures only bump LastCheckedAt.
func (r *Rescanner) Rescan(ctx context.Context, now time.Time) []*domain.Candidate {
	due := make([]*domain.ArchivedCandidate, 0)
	for _, a := range r.archive {
		if Due(a, now) {
			due = append(due, a)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].LastCheckedAt.Equal(due[j].LastCheckedAt) {
			return due[i].Address < due[j].Address
		}
		return due[i].LastCheckedAt.Before(due[j].LastCheckedAt)
	})
	if r.cfg.MaxPerTick > 0 && len(due) > r.cfg.MaxPerTick {
		due = due[:r.cfg.MaxPerTick]
	}

	var promoted []*domain.Candidate
	for _, a := range due {
		a.LastCheckedAt = now

		snap, err := r.fetcher.FetchSnapshot(ctx, a.Address)
		if err != nil {
			r.logger.Debug().Err(err).Str("address", a.Address).Msg("revival fetch failed")
			continue
		}
		if snap == nil || !r.Promotable(snap) {
			continue
		}

		if snap.DiscoveredAt.IsZero() {
			snap.DiscoveredAt = a.DiscoveredAt
		}
		// fetchers do not know how the address was discovered
		snap.Channel = a.Channel
		delete(r.archive, a.Address)
		promoted = append(promoted, snap)

		r.logger.Info().
			Str("address", a.Address).
			Str("archived_reason", a.Reason).
			Dur("archived_for", now.Sub(a.DiscoveredAt)).
			Msg("candidate revived")
	}
	return promoted
}

// Promotable reports whether a fresh snapshot clears every revival floor.
func (r *Rescanner) Promotable(c *domain.Candidate) bool {
	if c.LiquidityUSD == nil || *c.LiquidityUSD < r.cfg.MinLiquidityUSD {
		return false
	}
	vol := c.Volume1hEquivalent()
	if vol == nil || *vol < r.cfg.MinVolume1hUSD {
		return false
	}
	if c.PriceChange5m == nil {
		return false
	}
	pc := domain.NormalizePct(*c.PriceChange5m)
	return !math.IsNaN(pc) && pc >= r.cfg.MinPriceChange5mPct
}

// Get returns the archived entry for address.
func (r *Rescanner) Get(address string) (*domain.ArchivedCandidate, bool) {
	a, ok := r.archive[address]
	return a, ok
}

// Len returns the archive size.
func (r *Rescanner) Len() int {
	return len(r.archive)
}
