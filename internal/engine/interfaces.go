package engine

import (
	"context"
	"time"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/execution"
)

// SnapshotFetcher returns the current market snapshot of an address.
// A nil candidate with nil error means no data is available yet.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context, address string) (*domain.Candidate, error)
}

// Scorer returns an acquisition probability in [0,1] for a feature vector.
type Scorer interface {
	ScoreProbability(ctx context.Context, features []float64) (float64, error)
}

// Executor buys and sells tokens.
type Executor interface {
	Buy(ctx context.Context, address string, amountUSD float64) (*execution.Fill, error)
	Sell(ctx context.Context, address string, qty float64) (*execution.Fill, error)
}

// Persister records state off the loop. Calls must not block.
type Persister interface {
	PersistCandidate(c *domain.Candidate, observedAt time.Time)
	PersistPosition(p *domain.Position)
	PersistVerdict(r *domain.VerdictRecord)
}

// Discoverer returns newly listed addresses on each poll.
type Discoverer interface {
	Discover(ctx context.Context) ([]string, error)
}

// NopPersister discards everything.
type NopPersister struct{}

func (NopPersister) PersistCandidate(*domain.Candidate, time.Time) {}
func (NopPersister) PersistPosition(*domain.Position)              {}
func (NopPersister) PersistVerdict(*domain.VerdictRecord)          {}
