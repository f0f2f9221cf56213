// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package sqlitedb provides the on-device SQLite connection pool used by the
local fallback store.

The kiosk keeps a copy of every slideshow collection on its own disk so a
session can start when the remote database is unreachable. The file is
opened in WAL mode; one writer and many readers share it without blocking.

Usage:

	pool, err := sqlitedb.Open(sqlitedb.Config{Path: "./data/hara.db", Logger: log})
	if err != nil {
	    return err
	}
	defer pool.Close()
*/
package sqlitedb

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// defaultPoolSize covers the coordinator writer plus a few concurrent readers.
const defaultPoolSize = 4

// # Pool Configuration

// Config holds the parameters for opening a [Pool].
type Config struct {
	// Path is the database file. Its parent directory must exist.
	// ":memory:" is accepted for tests only with PoolSize 1.
	Path string

	// PoolSize defaults to 4 when zero or negative.
	PoolSize int

	// Logger receives pool lifecycle events. Nil discards them.
	Logger *slog.Logger

	// OnConnect runs once per connection after the pragmas, typically
	// to create tables.
	OnConnect func(conn *sqlite.Conn) error
}

// Pool is a fixed-size pool of SQLite connections.
//
// # Concurrency
//
// Pool is safe for concurrent use; a borrowed *sqlite.Conn is not.
type Pool struct {
	inner  *sqlitex.Pool
	logger *slog.Logger
	path   string
}

// # Pool Lifecycle

// Open creates the pool. Connections are established lazily on first Take.
func Open(cfg Config) (*Pool, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlitedb: path is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}

	inner, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize: poolSize,
		PrepareConn: func(conn *sqlite.Conn) error {
			return prepareConnection(conn, cfg.OnConnect)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitedb: failed to open %s: %w", cfg.Path, err)
	}

	logger.Info("sqlite_pool_opened",
		slog.String("path", cfg.Path),
		slog.Int("pool_size", poolSize),
	)

	return &Pool{inner: inner, logger: logger, path: cfg.Path}, nil
}

// Take borrows a connection. The caller must Put it back.
func (pool *Pool) Take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := pool.inner.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlitedb: take: %w", err)
	}
	return conn, nil
}

// Put returns a connection to the pool. Nil is a no-op.
func (pool *Pool) Put(conn *sqlite.Conn) {
	pool.inner.Put(conn)
}

// Ping borrows a connection and runs a trivial query.
func (pool *Pool) Ping(ctx context.Context) error {
	conn, err := pool.Take(ctx)
	if err != nil {
		return err
	}
	defer pool.Put(conn)

	if err := sqlitex.ExecuteTransient(conn, "SELECT 1", nil); err != nil {
		return fmt.Errorf("sqlitedb: ping failed: %w", err)
	}
	return nil
}

// Close blocks until every borrowed connection is returned, then closes them.
func (pool *Pool) Close() error {
	if err := pool.inner.Close(); err != nil {
		pool.logger.Error("sqlite_pool_close_failed",
			slog.String("path", pool.path),
			slog.Any("error", err),
		)
		return fmt.Errorf("sqlitedb: failed to close %s: %w", pool.path, err)
	}
	pool.logger.Info("sqlite_pool_closed", slog.String("path", pool.path))
	return nil
}

// prepareConnection applies the pragmas and the optional OnConnect hook.
func prepareConnection(conn *sqlite.Conn, onConnect func(*sqlite.Conn) error) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlitedb: %s: %w", pragma, err)
		}
	}

	if onConnect != nil {
		if err := onConnect(conn); err != nil {
			return fmt.Errorf("sqlitedb: on connect: %w", err)
		}
	}

	return nil
}
