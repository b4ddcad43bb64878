// Package storage implements PostgreSQL persistence for dropskill using
// pgx. Each entity gets its own file (users.go, stores.go, products.go,
// orders.go); all queries go through a shared DB wrapping a pgxpool.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sentinel errors mapped by handlers onto HTTP statuses.
var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned on unique constraint violations
	// (e.g. email or SKU already registered, product already imported).
	ErrDuplicate = errors.New("already exists")
)

// uniqueViolation is the PostgreSQL error code for unique_violation.
const uniqueViolation = "23505"

// DB wraps a pgx connection pool with the application's queries.
// Safe for concurrent use.
type DB struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New wraps an existing pool. The pool's lifetime is owned by the caller.
func New(pool *pgxpool.Pool, logger *slog.Logger) *DB {
	if logger == nil {
		logger = slog.Default()
	}
	return &DB{pool: pool, logger: logger}
}

// Connect creates a pgx pool from a DSN and verifies connectivity.
func Connect(ctx context.Context, dsn string, logger *slog.Logger) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return New(pool, logger), nil
}

// Close releases the underlying pool.
func (d *DB) Close() {
	d.pool.Close()
}

// Pool exposes the underlying pool for health checks.
func (d *DB) Pool() *pgxpool.Pool {
	return d.pool
}

// mapRowErr converts pgx.ErrNoRows to ErrNotFound, wrapping anything else.
func mapRowErr(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// isUniqueViolation reports whether err is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
