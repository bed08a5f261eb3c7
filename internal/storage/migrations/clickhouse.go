package migrations

import (
	"context"
	"fmt"
	"strings"

	chstore "solana-sniper/internal/storage/clickhouse"
)

// RunClickhouseMigrations creates the DSN's database if needed, applies the
// embedded schema and returns a connection to that database.
// The native protocol takes one statement per Exec, so each file holds exactly one.
func RunClickhouseMigrations(ctx context.Context, dsn string) (*chstore.Conn, error) {
	files, err := load(ClickhouseFS, "clickhouse")
	if err != nil {
		return nil, err
	}

	database, err := chstore.DatabaseName(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	if database != "" {
		if err := createDatabase(ctx, dsn, database); err != nil {
			return nil, err
		}
	}

	conn, err := chstore.NewConn(ctx, dsn)
	if err != nil {
		return nil, err
	}
	for _, m := range files {
		if err := conn.Exec(ctx, strings.TrimSuffix(m.sql, ";")); err != nil {
			conn.Close()
			return nil, fmt.Errorf("apply migration %s: %w", m.name, err)
		}
	}
	return conn, nil
}

func createDatabase(ctx context.Context, dsn, database string) error {
	conn, err := chstore.NewConnWithDatabase(ctx, dsn, "")
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.Exec(ctx, "CREATE DATABASE IF NOT EXISTS "+database); err != nil {
		return fmt.Errorf("create database %s: %w", database, err)
	}
	return nil
}
