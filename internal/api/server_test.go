// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/hara/internal/api"
	"github.com/taibuivan/hara/internal/imaging"
	"github.com/taibuivan/hara/internal/platform/clock"
	"github.com/taibuivan/hara/internal/platform/config"
	"github.com/taibuivan/hara/internal/platform/kv"
	"github.com/taibuivan/hara/internal/slideshow"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer wires the full router over an offline remote and a memory store.
func newTestServer(t *testing.T, cfg *config.Config, deps api.HealthDependencies) *httptest.Server {
	t.Helper()
	logger := quietLogger()

	store := kv.NewMemoryStore()
	coordinator := slideshow.NewCoordinator(slideshow.OfflineRemote{}, slideshow.NewLocalRepository(store, logger), logger)
	t.Cleanup(coordinator.Wait)
	engine := slideshow.NewEngine(clock.Fake(time.Unix(0, 0)), coordinator.Snapshot().EngineConfig(), logger)
	t.Cleanup(engine.Close)
	hub := slideshow.NewHub(engine, nil, logger)
	t.Cleanup(hub.Close)
	slideshow.Connect(coordinator, engine, hub)
	coordinator.Load(context.Background())

	if deps.CheckLocalStore == nil {
		deps.CheckLocalStore = store.Ping
	}
	liveness, readiness := api.NewHealthHandlers(deps, logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	server := api.NewServer(ctx, cfg, logger, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Slideshow: slideshow.NewHandler(coordinator, engine, hub),
		Uploads:   imaging.NewHandler(nil, logger),
	})

	httpServer := httptest.NewServer(server.Handler())
	t.Cleanup(httpServer.Close)
	return httpServer
}

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	response, err := http.Get(url)
	require.NoError(t, err)
	defer response.Body.Close()

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(response.Body).Decode(&envelope))
	return response.StatusCode, envelope.Data
}

/*
TestServer_Probes verifies liveness and the readiness states.
*/
func TestServer_Probes(t *testing.T) {
	failing := func(context.Context) error { return errors.New("down") }
	healthy := func(context.Context) error { return nil }

	tests := []struct {
		name       string
		deps       api.HealthDependencies
		wantCode   int
		wantStatus string
	}{
		{"local only", api.HealthDependencies{}, http.StatusOK, "ready"},
		{"remote healthy", api.HealthDependencies{CheckDatabase: healthy}, http.StatusOK, "ready"},
		{"remote down", api.HealthDependencies{CheckDatabase: failing}, http.StatusOK, "degraded"},
		{"local down", api.HealthDependencies{CheckLocalStore: failing}, http.StatusServiceUnavailable, "unavailable"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := newTestServer(t, &config.Config{Environment: "development"}, tc.deps)

			code, body := getJSON(t, server.URL+"/health")
			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, "ok", body["status"])

			code, body = getJSON(t, server.URL+"/ready")
			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantStatus, body["status"])
		})
	}
}

/*
TestServer_SlideshowRoutes verifies the slideshow API is mounted under /api/v1.
*/
func TestServer_SlideshowRoutes(t *testing.T) {
	server := newTestServer(t, &config.Config{Environment: "development"}, api.HealthDependencies{})

	code, body := getJSON(t, server.URL+"/api/v1/slideshow")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, string(slideshow.SourceLocal), body["source"])

	response, err := http.Post(server.URL+"/api/v1/slideshow/next", "application/json", nil)
	require.NoError(t, err)
	_ = response.Body.Close()
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.NotEmpty(t, response.Header.Get("X-Request-ID"))
}

/*
TestServer_Stream verifies the WebSocket endpoint bypasses the request timeout group.
*/
func TestServer_Stream(t *testing.T) {
	server := newTestServer(t, &config.Config{Environment: "development"}, api.HealthDependencies{})

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var message slideshow.Message
	require.NoError(t, conn.ReadJSON(&message))
	assert.NotEmpty(t, message.Type)
}

/*
TestServer_StaticBundle verifies the kiosk page is served when STATIC_DIR is set.
*/
func TestServer_StaticBundle(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>hara</h1>"), 0o644))

	server := newTestServer(t, &config.Config{Environment: "development", StaticDir: dir}, api.HealthDependencies{})

	response, err := http.Get(server.URL + "/hara/")
	require.NoError(t, err)
	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Contains(t, string(body), "hara")
}

/*
TestServer_CORS verifies configured origins are echoed outside development.
*/
func TestServer_CORS(t *testing.T) {
	server := newTestServer(t, &config.Config{Environment: "production", ExtraOrigins: "http://kiosk.local"}, api.HealthDependencies{})

	request, err := http.NewRequest(http.MethodOptions, server.URL+"/api/v1/settings", nil)
	require.NoError(t, err)
	request.Header.Set("Origin", "http://kiosk.local")
	response, err := http.DefaultClient.Do(request)
	require.NoError(t, err)
	_ = response.Body.Close()

	assert.Equal(t, http.StatusNoContent, response.StatusCode)
	assert.Equal(t, "http://kiosk.local", response.Header.Get("Access-Control-Allow-Origin"))
}
