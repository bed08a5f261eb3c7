package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

// LedgerStore implements storage.LedgerStore using PostgreSQL.
type LedgerStore struct {
	pool *Pool
}

// NewLedgerStore creates a new LedgerStore.
func NewLedgerStore(pool *Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LedgerStore = (*LedgerStore)(nil)

// Add records a resolved address. Returns ErrDuplicateKey if already ledgered.
func (s *LedgerStore) Add(ctx context.Context, e *domain.LedgerEntry) error {
	if e == nil || e.Address == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO ledger (address, reason, attempts, ledgered_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, e.Address, e.Reason, e.Attempts, e.LedgeredAt)
	return mapError("insert ledger entry", err)
}

// Contains reports whether the address is ledgered.
func (s *LedgerStore) Contains(ctx context.Context, address string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM ledger WHERE address = $1)`, address).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check ledger: %w", err)
	}
	return exists, nil
}

// Get returns the ledger entry for an address. Returns ErrNotFound if not ledgered.
func (s *LedgerStore) Get(ctx context.Context, address string) (*domain.LedgerEntry, error) {
	query := `
		SELECT address, reason, attempts, ledgered_at
		FROM ledger
		WHERE address = $1
	`

	e, err := scanLedgerEntry(s.pool.QueryRow(ctx, query, address))
	if err != nil {
		return nil, mapError("get ledger entry", err)
	}

	return e, nil
}

// LoadAddresses returns every ledgered address ordered by ledgered_at ASC.
func (s *LedgerStore) LoadAddresses(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT address FROM ledger ORDER BY ledgered_at ASC, address ASC`)
	if err != nil {
		return nil, fmt.Errorf("query ledger addresses: %w", err)
	}
	defer rows.Close()

	var addresses []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("scan ledger address: %w", err)
		}
		addresses = append(addresses, addr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger rows: %w", err)
	}

	return addresses, nil
}

func scanLedgerEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	if err := row.Scan(&e.Address, &e.Reason, &e.Attempts, &e.LedgeredAt); err != nil {
		return nil, err
	}
	e.LedgeredAt = e.LedgeredAt.UTC()
	return &e, nil
}
