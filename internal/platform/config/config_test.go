// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/hara/internal/platform/config"
)

/*
TestLoad_Defaults verifies a bare environment yields a local-only sqlite kiosk.
*/
func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, "SERVER_PORT", "ENVIRONMENT", "LOCAL_STORE", "LOCAL_STORE_PATH", "DATABASE_URL",
		"DROPBOX_APP_KEY", "DROPBOX_APP_SECRET", "DROPBOX_REFRESH_TOKEN", "DROPBOX_FOLDER")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, config.LocalStoreSQLite, cfg.LocalStore)
	assert.Equal(t, "./data/hara.db", cfg.LocalStorePath)
	assert.Equal(t, "/hara", cfg.DropboxFolder)
	assert.False(t, cfg.RemoteEnabled())
	assert.False(t, cfg.BlobEnabled())
	assert.True(t, cfg.IsDevelopment())
}

/*
TestValidate covers the combination rules.
*/
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{"sqlite_ok", config.Config{LocalStore: "sqlite", LocalStorePath: "x.db"}, false},
		{"sqlite_without_path", config.Config{LocalStore: "sqlite"}, true},
		{"redis_without_url", config.Config{LocalStore: "redis"}, true},
		{"redis_ok", config.Config{LocalStore: "redis", RedisURL: "redis://localhost:6379/0"}, false},
		{"memory_ok", config.Config{LocalStore: "memory"}, false},
		{"memory_in_production", config.Config{Environment: "production", LocalStore: "memory"}, true},
		{"unknown_backend", config.Config{LocalStore: "file"}, true},
		{"partial_dropbox", config.Config{LocalStore: "memory", DropboxAppKey: "k"}, true},
		{"full_dropbox", config.Config{LocalStore: "memory", DropboxAppKey: "k", DropboxAppSecret: "s", DropboxRefreshToken: "r"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAllowedOrigins(t *testing.T) {
	cfg := config.Config{ExtraOrigins: " https://kiosk.local, ,http://10.0.0.5:3000"}
	assert.Equal(t, []string{"https://kiosk.local", "http://10.0.0.5:3000"}, cfg.AllowedOrigins())
}

// unsetEnv clears keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}
