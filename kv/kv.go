// Package kv defines the persistent key-value store the overlay keeps its
// progress in. Every backend stores one text value per key with no
// transactions and no expiry.
package kv

import (
	"context"
	"errors"
)

// Driver identifies a concrete backend.
type Driver string

const (
	// DriverMemory keeps values in process memory, for tests.
	DriverMemory Driver = "memory"
	// DriverFile stores one file per key under a directory.
	DriverFile Driver = "file"
	// DriverSQLite stores values in a SQLite table.
	DriverSQLite Driver = "sqlite"
	// DriverPostgres stores values in a Postgres table.
	DriverPostgres Driver = "postgres"
	// DriverS3 stores one object per key in an S3 compatible bucket.
	DriverS3 Driver = "s3"
)

// ErrNotFound is returned by Get when nothing is stored under a key.
var ErrNotFound = errors.New("kv: not found")

// Store is a persistent string-to-string map.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Driver() Driver
	Close() error
}
