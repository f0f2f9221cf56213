// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	redisclient "github.com/taibuivan/hara/internal/platform/redis"
)

// RedisPrefix namespaces every key this store writes.
const RedisPrefix = "hara:local:"

// RedisStore implements [Store] on plain Redis strings without expiry.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an already connected client. Close closes the client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get implements [Store].
func (store *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := store.client.Get(ctx, RedisPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis: failed to read %q: %w", key, err)
	}
	return value, true, nil
}

// Set implements [Store].
func (store *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := store.client.Set(ctx, RedisPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis: failed to write %q: %w", key, err)
	}
	return nil
}

// Remove implements [Store].
func (store *RedisStore) Remove(ctx context.Context, key string) error {
	if err := store.client.Del(ctx, RedisPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis: failed to remove %q: %w", key, err)
	}
	return nil
}

// Ping implements [Store].
func (store *RedisStore) Ping(ctx context.Context) error {
	return redisclient.Ping(ctx, store.client)
}

// Close implements [Store].
func (store *RedisStore) Close() error {
	return store.client.Close()
}
