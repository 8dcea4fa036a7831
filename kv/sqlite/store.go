// Package sqlite implements a kv.Store backed by a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bodgit/pixeloverlay/kv"
	_ "github.com/mattn/go-sqlite3"
)

// Store implements kv.Store using a single SQLite table.
type Store struct {
	db *sql.DB
}

// New opens or creates the database in file. Use ":memory:" for a private
// in-memory database.
func New(file string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY NOT NULL, value TEXT NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db: db,
	}, nil
}

// Driver returns the driver identifier.
func (s *Store) Driver() kv.Driver { return kv.DriverSQLite }

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	switch err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value); err {
	case sql.ErrNoRows:
		return "", fmt.Errorf("%w: %s", kv.ErrNotFound, key)
	case nil:
		return value, nil
	default:
		return "", err
	}
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, "INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)", key, value); err != nil {
		return err
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
