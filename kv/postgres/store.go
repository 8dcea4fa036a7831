// Package postgres implements a kv.Store backed by a Postgres table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bodgit/pixeloverlay/kv"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const defaultDSN = "postgres://localhost/pixeloverlay?sslmode=disable"

// Store implements kv.Store using a single Postgres table.
type Store struct {
	db *sql.DB
}

// New connects to dsn, falling back to a local database, and creates the
// table if needed.
func New(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	ddl := `CREATE TABLE IF NOT EXISTS overlay_kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure kv table: %w", err)
	}
	return &Store{db: db}, nil
}

// Driver returns the driver identifier.
func (s *Store) Driver() kv.Driver { return kv.DriverPostgres }

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM overlay_kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", kv.ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("select kv: %w", err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO overlay_kv (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	if err != nil {
		return fmt.Errorf("upsert kv: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
