// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Hara kiosk slideshow service.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Open the local fallback store (SQLite, Redis or memory).
//  4. Connect to PostgreSQL when configured and run migrations.
//  5. Build the coordinator, engine and live hub, then load the slideshow.
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/hara/internal/api"
	"github.com/taibuivan/hara/internal/blob"
	"github.com/taibuivan/hara/internal/imaging"
	"github.com/taibuivan/hara/internal/platform/clock"
	"github.com/taibuivan/hara/internal/platform/config"
	"github.com/taibuivan/hara/internal/platform/constants"
	"github.com/taibuivan/hara/internal/platform/kv"
	"github.com/taibuivan/hara/internal/platform/migration"
	pgstore "github.com/taibuivan/hara/internal/platform/postgres"
	redisstore "github.com/taibuivan/hara/internal/platform/redis"
	"github.com/taibuivan/hara/internal/slideshow"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("local_store", cfg.LocalStore),
		slog.Bool("remote_enabled", cfg.RemoteEnabled()),
		slog.Bool("blob_enabled", cfg.BlobEnabled()),
	)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), constants.StartupTimeout)
	defer startupCancel()

	// ── 3. Local Store ────────────────────────────────────────────────────
	store, err := openLocalStore(startupCtx, cfg, log)
	must(log, err, "open local store")
	defer func() {
		log.Info("closing_local_store")
		if cerr := store.Close(); cerr != nil {
			log.Error("local_store_close_failed", slog.Any("error", cerr))
		}
	}()

	// ── 4. Remote Store ───────────────────────────────────────────────────
	// The kiosk must start without a network, so remote failures only warn.
	var (
		remote slideshow.RemoteStore = slideshow.OfflineRemote{}
		pool   *pgxpool.Pool
	)
	if cfg.RemoteEnabled() {
		pool, err = pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
		must(log, err, "configure postgres")
		defer func() {
			log.Info("closing_postgres_pool")
			pool.Close()
		}()

		if cfg.RunMigrations {
			if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
				log.Warn("migration_skipped", slog.Any("error", err))
			}
		}
		remote = slideshow.NewPostgresRepository(pool)
	}

	// ── 5. Slideshow ──────────────────────────────────────────────────────
	coordinator := slideshow.NewCoordinator(remote, slideshow.NewLocalRepository(store, log), log)
	engine := slideshow.NewEngine(clock.Real(), coordinator.Snapshot().EngineConfig(), log)
	hub := slideshow.NewHub(engine, cfg.AllowedOrigins(), log)
	slideshow.Connect(coordinator, engine, hub)

	source := coordinator.Load(startupCtx)
	log.Info("slideshow_ready",
		slog.String("source", string(source)),
		slog.Int("slide_count", coordinator.SlideCount()),
	)

	// ── 6. Handlers ───────────────────────────────────────────────────────
	health := api.HealthDependencies{
		CheckLocalStore: store.Ping,
		Source:          func() string { return string(coordinator.Source()) },
	}
	if pool != nil {
		health.CheckDatabase = func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		}
	}
	liveness, readiness := api.NewHealthHandlers(health, log)

	var uploader imaging.Uploader
	if cfg.BlobEnabled() {
		uploader = blob.New(blob.Config{
			Credentials: blob.Credentials{
				AppKey:       cfg.DropboxAppKey,
				AppSecret:    cfg.DropboxAppSecret,
				RefreshToken: cfg.DropboxRefreshToken,
			},
			Folder: cfg.DropboxFolder,
		}, log)
	}

	// ── 7. HTTP Server ────────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Slideshow: slideshow.NewHandler(coordinator, engine, hub),
		Uploads:   imaging.NewHandler(uploader, log),
	})

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting_down_server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
	}

	// Stop pushing to pages, stop the timers, then let pending remote writes land.
	hub.Close()
	engine.Close()
	coordinator.Wait()

	log.Info("server_stopped")
}

// openLocalStore opens the backend selected by LOCAL_STORE.
func openLocalStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (kv.Store, error) {
	switch cfg.LocalStore {
	case config.LocalStoreRedis:
		client, err := redisstore.NewClient(ctx, cfg.RedisURL, log)
		if err != nil {
			return nil, err
		}
		return kv.NewRedisStore(client), nil
	case config.LocalStoreMemory:
		log.Warn("local_store_volatile")
		return kv.NewMemoryStore(), nil
	default:
		store, err := kv.OpenSQLite(cfg.LocalStorePath, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned
// and handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
