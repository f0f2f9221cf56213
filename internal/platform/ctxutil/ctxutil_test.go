// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/hara/internal/platform/ctxutil"
)

/*
TestContext_RequestID verifies that Request IDs can be injected and retrieved.
*/
func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()
	requestID := "test-request-id"

	// 1. Initially should be empty
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithRequestID(ctx, requestID)
	assert.Equal(t, requestID, ctxutil.GetRequestID(ctx))
}

/*
TestContext_Logger verifies that a custom logger can be stored in context.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// 1. Initially should return the default logger
	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestContext_Origin verifies the edit origin default and override.
*/
func TestContext_Origin(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "internal", ctxutil.GetOrigin(ctx))
	assert.Equal(t, "ws", ctxutil.GetOrigin(ctxutil.WithOrigin(ctx, "ws")))
}

/*
TestContext_Detach verifies that a detached context survives its parent's
cancellation while keeping the parent's values.
*/
func TestContext_Detach(t *testing.T) {
	parent, cancel := context.WithCancel(ctxutil.WithRequestID(context.Background(), "rid-1"))

	detached, stop := ctxutil.Detach(parent, time.Minute)
	defer stop()

	// 1. Cancel the parent
	cancel()
	assert.Error(t, parent.Err())

	// 2. The detached context lives on with the same values
	assert.NoError(t, detached.Err())
	assert.Equal(t, "rid-1", ctxutil.GetRequestID(detached))

	_, hasDeadline := detached.Deadline()
	assert.True(t, hasDeadline)
}
