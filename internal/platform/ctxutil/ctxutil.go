// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/hara/internal/platform/ctxkey"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// WithOrigin tags the context with the surface that triggered an edit.
func WithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyOrigin, origin)
}

// GetOrigin returns the edit origin, or "internal" when untagged.
func GetOrigin(ctx context.Context) string {
	if origin, ok := ctx.Value(ctxkey.KeyOrigin).(string); ok {
		return origin
	}
	return "internal"
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// # Background Work

// Detach returns a context that keeps ctx's values (logger, request ID)
// but is not cancelled with it, bounded by timeout instead.
//
// Remote replication outlives the request that triggered it.
func Detach(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}
