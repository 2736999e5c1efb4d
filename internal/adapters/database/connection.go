// Package database owns the Postgres connection pool, transactions and schema migrations.
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB represents a database connection pool.
type DB struct {
	*pgxpool.Pool
}

// NewConnection creates a connection pool pinned to UTC and verifies it with a ping.
func NewConnection(ctx context.Context, databaseURL string, opts ...Option) (*DB, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse database url: %v", ErrConnect, err)
	}
	config.ConnConfig.RuntimeParams["timezone"] = "UTC"
	if o.maxConns > 0 {
		config.MaxConns = o.maxConns
	}
	if o.maxConnIdle > 0 {
		config.MaxConnIdleTime = o.maxConnIdle
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%w: create pool: %v", ErrConnect, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrConnect, err)
	}
	return &DB{Pool: pool}, nil
}

// Close closes the pool.
func (db *DB) Close() {
	db.Pool.Close()
}
