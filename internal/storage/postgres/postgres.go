package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"solana-sniper/internal/storage"
)

const (
	applicationName = "solana-sniper"
	pingTimeout     = 5 * time.Second

	pgErrUniqueViolation = "23505"
)

// Pool is the shared connection pool of all Postgres stores.
type Pool struct {
	*pgxpool.Pool
}

// NewPool connects and pings. The connection is tagged with the application
// name so sessions show up in pg_stat_activity.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if _, ok := config.ConnConfig.RuntimeParams["application_name"]; !ok {
		config.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// mapError turns driver errors into storage sentinels and wraps the rest with op.
func mapError(op string, err error) error {
	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return storage.ErrNotFound
	case errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation:
		return storage.ErrDuplicateKey
	}
	return fmt.Errorf("%s: %w", op, err)
}
