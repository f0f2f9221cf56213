// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package kv

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/taibuivan/hara/internal/platform/sqlitedb"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQLiteStore implements [Store] on a single SQLite table.
type SQLiteStore struct {
	pool *sqlitedb.Pool
}

// OpenSQLite opens (or creates) the database file at path and ensures the
// kv table exists on every connection.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	pool, err := sqlitedb.Open(sqlitedb.Config{
		Path:   path,
		Logger: logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteTransient(conn, createTableSQL, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("kv: %w", err)
	}
	return &SQLiteStore{pool: pool}, nil
}

// Get implements [Store].
func (store *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	conn, err := store.pool.Take(ctx)
	if err != nil {
		return "", false, err
	}
	defer store.pool.Put(conn)

	var (
		value string
		found bool
	)
	err = sqlitex.Execute(conn, `SELECT value FROM kv WHERE key = ?`, &sqlitex.ExecOptions{
		Args: []any{key},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			value = stmt.ColumnText(0)
			found = true
			return nil
		},
	})
	if err != nil {
		return "", false, fmt.Errorf("kv: failed to read %q: %w", key, err)
	}

	return value, found, nil
}

// Set implements [Store].
func (store *SQLiteStore) Set(ctx context.Context, key, value string) error {
	conn, err := store.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer store.pool.Put(conn)

	err = sqlitex.Execute(conn, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		&sqlitex.ExecOptions{Args: []any{key, value, time.Now().UTC().Format(time.RFC3339Nano)}},
	)
	if err != nil {
		return fmt.Errorf("kv: failed to write %q: %w", key, err)
	}
	return nil
}

// Remove implements [Store].
func (store *SQLiteStore) Remove(ctx context.Context, key string) error {
	conn, err := store.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer store.pool.Put(conn)

	if err := sqlitex.Execute(conn, `DELETE FROM kv WHERE key = ?`, &sqlitex.ExecOptions{Args: []any{key}}); err != nil {
		return fmt.Errorf("kv: failed to remove %q: %w", key, err)
	}
	return nil
}

// Ping implements [Store].
func (store *SQLiteStore) Ping(ctx context.Context) error {
	return store.pool.Ping(ctx)
}

// Close implements [Store].
func (store *SQLiteStore) Close() error {
	return store.pool.Close()
}
