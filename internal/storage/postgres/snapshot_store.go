package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

const snapshotColumns = `
	address, observed_at, symbol, chain_id, channel, discovered_at,
	age_minutes, liquidity_usd, volume_24h_usd, volume_1h_usd, market_cap_usd,
	price_usd, price_change_5m, holders, txns_5m, buys_5m, sells_5m,
	risk_score, cluster_flagged, has_socials, insider_signal
`

// Insert adds a snapshot. Returns ErrDuplicateKey if (address, observed_at) exists.
func (s *SnapshotStore) Insert(ctx context.Context, snap *domain.Snapshot) error {
	if snap == nil || snap.Candidate.Address == "" {
		return storage.ErrInvalidInput
	}

	c := snap.Candidate
	query := `
		INSERT INTO candidate_snapshots (` + snapshotColumns + `)
		VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21
		)
	`

	_, err := s.pool.Exec(ctx, query,
		c.Address, snap.ObservedAt, c.Symbol, c.ChainID, string(c.Channel), c.DiscoveredAt,
		c.AgeMinutes, c.LiquidityUSD, c.Volume24hUSD, c.Volume1hUSD, c.MarketCapUSD,
		c.PriceUSD, c.PriceChange5m, c.Holders, c.Txns5m, c.Buys5m, c.Sells5m,
		c.RiskScore, c.ClusterFlagged, c.HasSocials, c.InsiderSignal,
	)
	return mapError("insert snapshot", err)
}

// GetByAddress returns snapshots for an address ordered by observed_at ASC.
func (s *SnapshotStore) GetByAddress(ctx context.Context, address string) ([]*domain.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM candidate_snapshots WHERE address = $1 ORDER BY observed_at ASC`

	rows, err := s.pool.Query(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

func scanSnapshots(rows pgx.Rows) ([]*domain.Snapshot, error) {
	var snapshots []*domain.Snapshot

	for rows.Next() {
		var (
			snap    domain.Snapshot
			channel string
		)
		c := &snap.Candidate

		err := rows.Scan(
			&c.Address, &snap.ObservedAt, &c.Symbol, &c.ChainID, &channel, &c.DiscoveredAt,
			&c.AgeMinutes, &c.LiquidityUSD, &c.Volume24hUSD, &c.Volume1hUSD, &c.MarketCapUSD,
			&c.PriceUSD, &c.PriceChange5m, &c.Holders, &c.Txns5m, &c.Buys5m, &c.Sells5m,
			&c.RiskScore, &c.ClusterFlagged, &c.HasSocials, &c.InsiderSignal,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		c.Channel = domain.Channel(channel)
		c.DiscoveredAt = c.DiscoveredAt.UTC()
		snap.ObservedAt = snap.ObservedAt.UTC()
		snapshots = append(snapshots, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return snapshots, nil
}
