// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

// Command api is the entry point for the Tabulo query API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Open the embedded DuckDB mirror (optional, enables pivoting).
//  6. Run database migrations (idempotent).
//  7. Wire HTTP handlers.
//  8. Start HTTP server with graceful shutdown.
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
	"time"

	"github.com/tabulo-data/tabulo/internal/api"
	"github.com/tabulo-data/tabulo/internal/cube"
	"github.com/tabulo-data/tabulo/internal/filtertree"
	"github.com/tabulo-data/tabulo/internal/pivot"
	"github.com/tabulo-data/tabulo/internal/platform/config"
	"github.com/tabulo-data/tabulo/internal/platform/constants"
	"github.com/tabulo-data/tabulo/internal/platform/duckdb"
	"github.com/tabulo-data/tabulo/internal/platform/migration"
	pgstore "github.com/tabulo-data/tabulo/internal/platform/postgres"
	redisstore "github.com/tabulo-data/tabulo/internal/platform/redis"
	"github.com/tabulo-data/tabulo/internal/querystore"
	"github.com/tabulo-data/tabulo/internal/stream"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "tabulo"))
	slog.SetDefault(log)

	log.Info("[Tabulo] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "tabulo"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. DuckDB mirror ──────────────────────────────────────────────────
	// The pivot endpoints are only registered when a mirror file is
	// configured; the rest of the API runs fine without one.
	var engine *duckdb.Engine
	if cfg.DuckDBPath != "" {
		engine, err = duckdb.Open(startupCtx, cfg.DuckDBPath, cfg.DuckDBCatalog, log)
		must(log, err, "open duckdb mirror")
		defer func() {
			log.Info("closing duckdb engine")
			if cerr := engine.Close(); cerr != nil {
				log.Error("duckdb close error", slog.Any("error", cerr))
			}
		}()
	} else {
		log.Info("duckdb_mirror_disabled")
	}

	// ── 6. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	healthDeps := api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}
	if engine != nil {
		healthDeps.CheckEngine = func() error {
			return engine.DB.PingContext(context.Background())
		}
	}
	liveness, readiness := api.NewHealthHandlers(healthDeps, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	cubeRepository := cube.NewPostgresRepository(pool)

	entryRepository := querystore.NewPostgresRepository(pool)
	queryService := querystore.NewService(entryRepository, cubeRepository, log)
	queryHandler := querystore.NewHandler(queryService)

	streamService := stream.NewService(pool, queryService, cubeRepository, rdb, log)
	streamHandler := stream.NewHandler(streamService)

	var pivotHandler *pivot.Handler
	if engine != nil {
		pivotService := pivot.NewService(engine, queryService, streamService, log)
		pivotHandler = pivot.NewHandler(pivotService)
	}

	filterTreeService := filtertree.NewService(cubeRepository, rdb, log)
	filterTreeHandler := filtertree.NewHandler(filterTreeService)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:   liveness,
		Readiness:  readiness,
		QueryStore: queryHandler,
		Stream:     streamHandler,
		Pivot:      pivotHandler,
		FilterTree: filterTreeHandler,
	}

	server := api.NewServer(context.Background(), cfg, log, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
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
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
