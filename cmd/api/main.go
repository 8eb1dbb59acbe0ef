// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Trekora HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration (.env, then environment variables).
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Connect the event publisher (Noop when no broker is configured).
//  7. Wire domain services and HTTP handlers.
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

	"github.com/joho/godotenv"

	"github.com/taibuivan/trekora/internal/api"
	"github.com/taibuivan/trekora/internal/auth"
	"github.com/taibuivan/trekora/internal/booking"
	"github.com/taibuivan/trekora/internal/platform/config"
	"github.com/taibuivan/trekora/internal/platform/constants"
	"github.com/taibuivan/trekora/internal/platform/middleware"
	"github.com/taibuivan/trekora/internal/platform/migration"
	pgstore "github.com/taibuivan/trekora/internal/platform/postgres"
	"github.com/taibuivan/trekora/internal/platform/queue"
	redisstore "github.com/taibuivan/trekora/internal/platform/redis"
	"github.com/taibuivan/trekora/internal/platform/respond"
	"github.com/taibuivan/trekora/internal/platform/sec"
	"github.com/taibuivan/trekora/internal/review"
	"github.com/taibuivan/trekora/internal/tour"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	// A missing .env is fine; containers inject the environment directly.
	_ = godotenv.Load()

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
	respond.SetDebug(cfg.Debug)

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

	// ── 6. Event Publisher ────────────────────────────────────────────────
	var events queue.Publisher
	if cfg.AMQPURL == "" {
		log.Warn("no broker configured, events will be discarded")
		events = queue.NewNoop()
	} else {
		events, err = queue.NewRabbit(cfg.AMQPURL, cfg.EventsExchange)
		must(log, err, "connect to message broker")
	}
	defer func() {
		if cerr := events.Close(); cerr != nil {
			log.Error("publisher close error", slog.Any("error", cerr))
		}
	}()

	// ── 7. Token Service ──────────────────────────────────────────────────
	tokenService, err := sec.NewTokenService(cfg.JWTSecret, constants.AuthIssuer, cfg.JWTTTL)
	must(log, err, "initialize token service")

	// ── 8. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 9. Domain Wiring ──────────────────────────────────────────────────
	userRepository := auth.NewPostgresRepository(pool)
	resetTokenRepository := auth.NewResetTokenRepository(rdb)
	authService := auth.NewService(userRepository, resetTokenRepository, tokenService, events)

	// Protect resolves the principal fresh on every request, so role and
	// password changes take effect immediately.
	protect := middleware.Protect(tokenService, authService)

	authHandler := auth.NewHandler(authService, protect, cfg.JWTTTL, cfg.IsProduction())

	reviewRepository := review.NewPostgresRepository(pool)
	reviewHandler := review.NewHandler(reviewRepository, protect)

	tourRepository := tour.NewPostgresRepository(pool)
	tourHandler := tour.NewHandler(tourRepository, protect, reviewHandler.NestedRoutes)

	paymentProvider := booking.NewHMACProvider(cfg.PaymentSigningSecret)
	bookingRepository := booking.NewPostgresRepository(pool)
	bookingService := booking.NewService(bookingRepository, tourRepository, paymentProvider, events)
	bookingHandler := booking.NewHandler(bookingService, bookingRepository, protect)

	// ── 10. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Tour:      tourHandler,
		Booking:   bookingHandler,
	}

	// The server context outlives startup: the rate limiter's cleanup loop
	// runs on it for the whole process lifetime.
	server := api.NewServer(context.Background(), cfg, log, tokenService, authService, handlers)

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
