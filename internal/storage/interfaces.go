package storage

import (
	"context"

	"solana-sniper/internal/domain"
)

// LedgerStore is the durable permanent dedup ledger.
type LedgerStore interface {
	// Add records a resolved address. Returns ErrDuplicateKey if already ledgered.
	Add(ctx context.Context, e *domain.LedgerEntry) error

	// Contains reports whether the address is ledgered.
	Contains(ctx context.Context, address string) (bool, error)

	// Get returns the ledger entry for an address. Returns ErrNotFound if not ledgered.
	Get(ctx context.Context, address string) (*domain.LedgerEntry, error)

	// LoadAddresses returns every ledgered address (for warming the in-memory cache).
	LoadAddresses(ctx context.Context) ([]string, error)
}

// PositionStore persists positions. Positions are updated in place until closed.
type PositionStore interface {
	// Upsert inserts or replaces a position keyed by ID.
	Upsert(ctx context.Context, p *domain.Position) error

	// GetByID retrieves a position. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Position, error)

	// ListOpen returns open positions ordered by opened_at ASC.
	ListOpen(ctx context.Context) ([]*domain.Position, error)

	// ListAll returns all positions ordered by opened_at ASC.
	ListAll(ctx context.Context) ([]*domain.Position, error)
}

// SnapshotStore is an append-only log of candidate observations.
type SnapshotStore interface {
	// Insert adds a snapshot. Returns ErrDuplicateKey if (address, observed_at) exists.
	Insert(ctx context.Context, s *domain.Snapshot) error

	// GetByAddress returns snapshots for an address ordered by observed_at ASC.
	GetByAddress(ctx context.Context, address string) ([]*domain.Snapshot, error)
}

// VerdictLogStore is an append-only audit trail of admission decisions.
type VerdictLogStore interface {
	// InsertBulk adds records in one batch.
	InsertBulk(ctx context.Context, records []*domain.VerdictRecord) error

	// GetByAddress returns records for an address ordered by decided_at ASC.
	GetByAddress(ctx context.Context, address string) ([]*domain.VerdictRecord, error)
}
