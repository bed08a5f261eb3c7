package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

// PositionStore implements storage.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *Pool
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(pool *Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PositionStore = (*PositionStore)(nil)

const positionColumns = `
	id, address, symbol, token_account,
	qty, buy_qty, buy_price, peak_price, opened_at,
	highest_pnl_pct, closed, closed_at, close_price, exit_reason,
	buy_signature, sell_signature
`

// Upsert inserts or replaces a position keyed by ID.
func (s *PositionStore) Upsert(ctx context.Context, p *domain.Position) error {
	if p == nil || p.ID == "" || p.Address == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO positions (` + positionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			qty = EXCLUDED.qty,
			peak_price = EXCLUDED.peak_price,
			highest_pnl_pct = EXCLUDED.highest_pnl_pct,
			closed = EXCLUDED.closed,
			closed_at = EXCLUDED.closed_at,
			close_price = EXCLUDED.close_price,
			exit_reason = EXCLUDED.exit_reason,
			sell_signature = EXCLUDED.sell_signature
	`

	_, err := s.pool.Exec(ctx, query,
		p.ID, p.Address, p.Symbol, p.TokenAccount,
		p.Qty, p.BuyQty, p.BuyPrice, p.PeakPrice, p.OpenedAt,
		p.HighestPnLPct, p.Closed, p.ClosedAt, p.ClosePrice, p.ExitReason,
		p.BuySignature, p.SellSignature,
	)
	// a unique violation means a second open position for the address
	return mapError("upsert position", err)
}

// GetByID retrieves a position. Returns ErrNotFound if not exists.
func (s *PositionStore) GetByID(ctx context.Context, id string) (*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE id = $1`

	p, err := scanPosition(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError("get position", err)
	}

	return p, nil
}

// ListOpen returns open positions ordered by opened_at ASC.
func (s *PositionStore) ListOpen(ctx context.Context) ([]*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE NOT closed ORDER BY opened_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query open positions: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// ListAll returns all positions ordered by opened_at ASC.
func (s *PositionStore) ListAll(ctx context.Context) ([]*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions ORDER BY opened_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

func scanPosition(row pgx.Row) (*domain.Position, error) {
	var p domain.Position

	err := row.Scan(
		&p.ID, &p.Address, &p.Symbol, &p.TokenAccount,
		&p.Qty, &p.BuyQty, &p.BuyPrice, &p.PeakPrice, &p.OpenedAt,
		&p.HighestPnLPct, &p.Closed, &p.ClosedAt, &p.ClosePrice, &p.ExitReason,
		&p.BuySignature, &p.SellSignature,
	)
	if err != nil {
		return nil, err
	}

	p.OpenedAt = p.OpenedAt.UTC()
	if p.ClosedAt != nil {
		t := p.ClosedAt.UTC()
		p.ClosedAt = &t
	}

	return &p, nil
}

func scanPositions(rows pgx.Rows) ([]*domain.Position, error) {
	var positions []*domain.Position

	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position row: %w", err)
		}
		positions = append(positions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate position rows: %w", err)
	}

	return positions, nil
}
