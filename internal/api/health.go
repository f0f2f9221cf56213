// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package api contains the health check handlers for liveness and readiness probes.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/hara/internal/platform/constants"
	"github.com/taibuivan/hara/internal/platform/respond"
)

// readinessTimeout bounds each dependency ping.
const readinessTimeout = 2 * time.Second

// HealthDependencies holds the injectable dependency checkers for the /ready endpoint.
type HealthDependencies struct {
	// CheckDatabase pings the remote PostgreSQL pool. Nil when running local-only.
	CheckDatabase func(ctx context.Context) error

	// CheckLocalStore pings the local fallback store.
	CheckLocalStore func(ctx context.Context) error

	// Source reports where the slideshow was loaded from.
	Source func() string
}

type checkResult struct {
	Name  string `json:"name"`
	IsOK  bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type healthHandler struct {
	dependencies HealthDependencies
	logger       *slog.Logger
}

// NewHealthHandlers creates the /health and /ready http.HandlerFuncs.
func NewHealthHandlers(deps HealthDependencies, logger *slog.Logger) (liveness, readiness http.HandlerFunc) {
	handler := &healthHandler{dependencies: deps, logger: logger}
	return handler.liveness, handler.readiness
}

// liveness handles GET /health (Liveness probe).
func (handler *healthHandler) liveness(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, map[string]string{constants.FieldStatus: "ok"})
}

/*
readiness handles GET /ready (Readiness probe).

The local store is required. An unreachable remote only degrades the
report, the kiosk keeps running on local data.
*/
func (handler *healthHandler) readiness(writer http.ResponseWriter, request *http.Request) {
	results := make([]checkResult, 0, 2)
	isSystemReady := true
	isDegraded := false

	if handler.dependencies.CheckLocalStore != nil {
		result := handler.check(request.Context(), "local_store", handler.dependencies.CheckLocalStore)
		isSystemReady = result.IsOK
		results = append(results, result)
	}

	if handler.dependencies.CheckDatabase != nil {
		result := handler.check(request.Context(), "postgres", handler.dependencies.CheckDatabase)
		isDegraded = !result.IsOK
		results = append(results, result)
	}

	payload := map[string]any{constants.FieldChecks: results}
	if handler.dependencies.Source != nil {
		payload["source"] = handler.dependencies.Source()
	}

	switch {
	case !isSystemReady:
		payload[constants.FieldStatus] = "unavailable"
		respond.Status(writer, http.StatusServiceUnavailable, payload)
	case isDegraded:
		payload[constants.FieldStatus] = "degraded"
		respond.OK(writer, payload)
	default:
		payload[constants.FieldStatus] = "ready"
		respond.OK(writer, payload)
	}
}

func (handler *healthHandler) check(ctx context.Context, name string, ping func(context.Context) error) checkResult {
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	result := checkResult{Name: name, IsOK: true}
	if err := ping(ctx); err != nil {
		result.IsOK = false
		result.Error = err.Error()
		handler.logger.ErrorContext(ctx, "readiness_check_failed", slog.String("dependency", name), slog.Any("error", err))
	}
	return result
}
