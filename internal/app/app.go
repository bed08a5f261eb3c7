// Package app wires configuration, stores and components for the CLI commands.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"solana-sniper/internal/config"
	"solana-sniper/internal/storage"
	chstore "solana-sniper/internal/storage/clickhouse"
	"solana-sniper/internal/storage/file"
	"solana-sniper/internal/storage/memory"
	"solana-sniper/internal/storage/migrations"
	pgstore "solana-sniper/internal/storage/postgres"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

// stores holds the selected persistence backends. Nil snapshot and verdict
// stores disable those records.
type stores struct {
	ledger    storage.LedgerStore
	positions storage.PositionStore
	snapshots storage.SnapshotStore
	verdicts  storage.VerdictLogStore

	// durable reports whether positions survive a restart.
	durable bool
}

// openStores connects the configured backends. Without a Postgres DSN the
// ledger is a local file and positions are kept in memory.
func (a *App) openStores(ctx context.Context) (*stores, func(), error) {
	cfg := a.Config.Storage
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	s := &stores{}

	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, pool.Close)

		if cfg.Migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				closeAll()
				return nil, nil, err
			}
		}

		s.ledger = pgstore.NewLedgerStore(pool)
		s.positions = pgstore.NewPositionStore(pool)
		s.snapshots = pgstore.NewSnapshotStore(pool)
		s.durable = true
	} else {
		ledger, err := file.OpenLedgerStore(cfg.LedgerPath)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = ledger.Close() })

		s.ledger = ledger
		s.positions = memory.NewPositionStore()
		a.Logger.Warn().Str("ledger_path", cfg.LedgerPath).Msg("storage.postgres_dsn not configured; positions are not durable")
	}

	if cfg.ClickhouseDSN != "" {
		var (
			conn *chstore.Conn
			err  error
		)
		if cfg.Migrate {
			conn, err = migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		} else {
			conn, err = chstore.NewConn(ctx, cfg.ClickhouseDSN)
		}
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("clickhouse: %w", err)
		}
		closers = append(closers, func() { _ = conn.Close() })
		s.verdicts = chstore.NewVerdictLogStore(conn)
	}

	return s, closeAll, nil
}
