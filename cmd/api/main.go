// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

// Command api is the entry point for the Fieldbook HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire domain services and HTTP handlers.
//  7. Start the rate-limit window janitor.
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

	"github.com/physai/fieldbook/internal/api"
	"github.com/physai/fieldbook/internal/audit"
	"github.com/physai/fieldbook/internal/auth"
	"github.com/physai/fieldbook/internal/platform/config"
	"github.com/physai/fieldbook/internal/platform/constants"
	"github.com/physai/fieldbook/internal/platform/migration"
	pgstore "github.com/physai/fieldbook/internal/platform/postgres"
	redisstore "github.com/physai/fieldbook/internal/platform/redis"
	"github.com/physai/fieldbook/internal/platform/sec"
	"github.com/physai/fieldbook/internal/profile"
	"github.com/physai/fieldbook/internal/ratelimit"
)

// janitorInterval is how often stale rate-limit windows are garbage-collected.
const janitorInterval = time.Hour

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing")

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

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Token Service ──────────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTSecret, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	auditSink := audit.NewPostgresSink(pool, log)

	accountStore := auth.NewPostgresAccountStore(pool)
	revocationList := auth.NewRedisRevocationList(rdb)
	authService := auth.NewService(accountStore, revocationList, jwtSvc, auditSink, auth.Policy{
		LockoutThreshold: cfg.LockoutThreshold,
		LockoutDuration:  cfg.LockoutDuration,
		AccessTokenTTL:   cfg.AccessTokenTTL,
		RefreshTokenTTL:  cfg.RefreshTokenTTL,
	})

	profileStore := profile.NewPostgresStore(pool)
	profileService := profile.NewService(profileStore, auditSink)

	rateLimitStore := ratelimit.NewPostgresStore(pool)
	rateLimitService := ratelimit.NewService(rateLimitStore, ratelimit.Policy{
		Quota:  cfg.AnonRateLimit,
		Window: cfg.RateLimitWindow,
	})

	authHandler := auth.NewHandler(authService, profileService, cfg.IsProduction())
	profileHandler := profile.NewHandler(profileService)
	rateLimitHandler := ratelimit.NewHandler(rateLimitService)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Profile:   profileHandler,
		RateLimit: rateLimitHandler,
	}

	// Lifecycle context for background work (throttle cleanup, janitor).
	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	server := api.NewServer(runCtx, cfg, log, jwtSvc, handlers)

	// ── 10. Rate-Limit Janitor ────────────────────────────────────────────
	// Best-effort garbage collection of aged-out windows. Losing a run is
	// harmless; correctness lives in the window expiry check itself.
	go runJanitor(runCtx, rateLimitService, log)

	// ── 11. Graceful Shutdown ─────────────────────────────────────────────
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

	// Stop background work, then give in-flight requests time to complete.
	runCancel()

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// runJanitor periodically deletes stale rate-limit windows until ctx is done.
func runJanitor(ctx context.Context, service *ratelimit.Service, log *slog.Logger) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := service.DeleteStale(ctx)
			if err != nil {
				log.Error("ratelimit_janitor_failed", slog.Any("error", err))
				continue
			}
			if deleted > 0 {
				log.Info("ratelimit_janitor_swept", slog.Int64("deleted", deleted))
			}
		}
	}
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
