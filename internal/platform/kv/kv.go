// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package kv defines the string key-value contract behind the local fallback
store and its backends.

Backends:

  - SQLiteStore: a single table in an on-device SQLite file (default).
  - RedisStore: a Redis instance reachable from the kiosk.
  - MemoryStore: process memory, for tests and throwaway sessions.

Values are opaque strings; callers serialize their own records.
*/
package kv

import "context"

// Store is a durable string key-value map.
type Store interface {
	// Get returns the value for key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Ping reports whether the backend is usable.
	Ping(ctx context.Context) error

	// Close releases the backend.
	Close() error
}
