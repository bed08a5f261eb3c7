package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

// VerdictLogStore implements storage.VerdictLogStore using ClickHouse.
// The table is a plain MergeTree: the log is append-only and duplicates are not checked.
type VerdictLogStore struct {
	conn *Conn
}

// NewVerdictLogStore creates a new VerdictLogStore.
func NewVerdictLogStore(conn *Conn) *VerdictLogStore {
	return &VerdictLogStore{conn: conn}
}

// Compile-time interface check.
var _ storage.VerdictLogStore = (*VerdictLogStore)(nil)

// InsertBulk adds records in one batch.
func (s *VerdictLogStore) InsertBulk(ctx context.Context, records []*domain.VerdictRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO verdict_log (
			address, channel, verdict, reason, soft_score, attempts, source, decided_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range records {
		if r == nil || r.Address == "" {
			_ = batch.Abort()
			return storage.ErrInvalidInput
		}
		err = batch.Append(
			r.Address, string(r.Channel), r.Verdict, r.Reason,
			int32(r.SoftScore), int32(r.Attempts), r.Source, r.DecidedAt.UTC(),
		)
		if err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByAddress returns records for an address ordered by decided_at ASC.
func (s *VerdictLogStore) GetByAddress(ctx context.Context, address string) ([]*domain.VerdictRecord, error) {
	query := `
		SELECT address, channel, verdict, reason, soft_score, attempts, source, decided_at
		FROM verdict_log
		WHERE address = ?
		ORDER BY decided_at ASC
	`

	rows, err := s.conn.Query(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("query verdicts by address: %w", err)
	}
	defer rows.Close()

	return scanVerdicts(rows)
}

func scanVerdicts(rows driver.Rows) ([]*domain.VerdictRecord, error) {
	var records []*domain.VerdictRecord

	for rows.Next() {
		var (
			r                   domain.VerdictRecord
			channel             string
			softScore, attempts int32
			decidedAt           time.Time
		)

		if err := rows.Scan(
			&r.Address, &channel, &r.Verdict, &r.Reason,
			&softScore, &attempts, &r.Source, &decidedAt,
		); err != nil {
			return nil, fmt.Errorf("scan verdict row: %w", err)
		}

		r.Channel = domain.Channel(channel)
		r.SoftScore = int(softScore)
		r.Attempts = int(attempts)
		r.DecidedAt = decidedAt.UTC()
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verdict rows: %w", err)
	}

	return records, nil
}
