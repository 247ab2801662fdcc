// Package database is the postgres implementation of store.Store, built on
// pgxpool. Multi-write operations (membership plus counter, rating plus
// rater counter) run inside pgx.BeginTxFunc transactions so partial
// application is never visible.
package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pitchrate/pitchrate/internal/store"
)

// Postgres implements store.Store over a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
	dsn  string
}

// DSNFromEnv assembles the connection string from the POSTGRES_* variables.
func DSNFromEnv() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("PG_HOST"),
		os.Getenv("PG_PORT"),
		os.Getenv("PG_DATABASE"),
	)
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return &Postgres{pool: pool, dsn: dsn}, nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// isUniqueViolation reports a 23505 unique-constraint error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// mapRowErr translates the no-rows sentinel to the store taxonomy.
func mapRowErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
