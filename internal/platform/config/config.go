// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Only the local store is mandatory. An empty DATABASE_URL runs the kiosk
local-only; empty Dropbox credentials keep uploads as inline data URLs.
*/
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Local store backends accepted by LOCAL_STORE.
const (
	LocalStoreSQLite = "sqlite"
	LocalStoreRedis  = "redis"
	LocalStoreMemory = "memory"
)

// # Configuration Schema

// Config holds all runtime configuration for the Hara kiosk service.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Remote store (PostgreSQL). Empty disables the remote.
	DatabaseURL string `env:"DATABASE_URL"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`

	// Local fallback store
	LocalStore     string `env:"LOCAL_STORE"      envDefault:"sqlite"`
	LocalStorePath string `env:"LOCAL_STORE_PATH" envDefault:"./data/hara.db"`
	RedisURL       string `env:"REDIS_URL"`

	// Blob host (Dropbox). All three credentials or none.
	DropboxAppKey       string `env:"DROPBOX_APP_KEY"`
	DropboxAppSecret    string `env:"DROPBOX_APP_SECRET"`
	DropboxRefreshToken string `env:"DROPBOX_REFRESH_TOKEN"`
	DropboxFolder       string `env:"DROPBOX_FOLDER" envDefault:"/hara"`

	// Cross-Origin Resource Sharing, comma separated.
	ExtraOrigins string `env:"EXTRA_ORIGINS"`

	// StaticDir serves the kiosk page bundle at /hara when set.
	StaticDir string `env:"STATIC_DIR"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates it.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks combinations the struct tags cannot express.
func (c *Config) Validate() error {
	switch c.LocalStore {
	case LocalStoreSQLite:
		if c.LocalStorePath == "" {
			return fmt.Errorf("config: LOCAL_STORE_PATH is required for the sqlite local store")
		}
	case LocalStoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("config: REDIS_URL is required for the redis local store")
		}
	case LocalStoreMemory:
		if c.IsProduction() {
			return fmt.Errorf("config: the memory local store loses edits on restart and is refused in production")
		}
	default:
		return fmt.Errorf("config: LOCAL_STORE must be one of %s, %s, %s (got %q)",
			LocalStoreSQLite, LocalStoreRedis, LocalStoreMemory, c.LocalStore)
	}

	set := 0
	for _, v := range []string{c.DropboxAppKey, c.DropboxAppSecret, c.DropboxRefreshToken} {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != 3 {
		return fmt.Errorf("config: DROPBOX_APP_KEY, DROPBOX_APP_SECRET and DROPBOX_REFRESH_TOKEN must be set together")
	}

	return nil
}

// RemoteEnabled reports whether a remote store is configured.
func (c *Config) RemoteEnabled() bool {
	return c.DatabaseURL != ""
}

// BlobEnabled reports whether uploads go to the blob host.
func (c *Config) BlobEnabled() bool {
	return c.DropboxRefreshToken != ""
}

// AllowedOrigins returns EXTRA_ORIGINS split on commas, blanks dropped.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
