// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the StyleAI HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables (and an optional .env).
//  3. Open the user directory (PostgreSQL + migrations, MongoDB, or memory).
//  4. Open the session store (Redis or memory).
//  5. Wire services, handlers, metrics and the HTTP server.
//  6. Serve until SIGINT/SIGTERM, then shut down gracefully.
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

	"github.com/lmittmann/tint"

	"github.com/taibuivan/styleai/internal/api"
	"github.com/taibuivan/styleai/internal/platform/config"
	"github.com/taibuivan/styleai/internal/platform/constants"
	"github.com/taibuivan/styleai/internal/platform/metrics"
	"github.com/taibuivan/styleai/internal/platform/middleware"
	"github.com/taibuivan/styleai/internal/platform/migration"
	mongostore "github.com/taibuivan/styleai/internal/platform/mongodb"
	pgstore "github.com/taibuivan/styleai/internal/platform/postgres"
	redisstore "github.com/taibuivan/styleai/internal/platform/redis"
	"github.com/taibuivan/styleai/internal/platform/sec"
	"github.com/taibuivan/styleai/internal/users/account"
	"github.com/taibuivan/styleai/internal/users/auth"
	"github.com/taibuivan/styleai/web"
)

// memorySessionSweep is how often the in-memory session store drops expired entries.
const memorySessionSweep = 10 * time.Minute

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// JSON until the environment is known, so early failures stay structured.
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	log = newLogger(cfg)
	slog.SetDefault(log)

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("directory_driver", cfg.DirectoryDriver),
		slog.String("session_driver", cfg.SessionDriver),
	)

	// Root context for the process lifetime; cancelled on shutdown.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Startup deadline so misconfiguration fails fast instead of hanging.
	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	var checks []api.HealthCheck

	// ── 3. User Directory ─────────────────────────────────────────────────
	directory, closeDirectory, directoryCheck := openDirectory(startupCtx, cfg, log)
	defer closeDirectory()
	if directoryCheck != nil {
		checks = append(checks, *directoryCheck)
	}

	// ── 4. Session Store ──────────────────────────────────────────────────
	sessions, closeSessions, sessionCheck := openSessions(startupCtx, cfg, log)
	defer closeSessions()
	if sessionCheck != nil {
		checks = append(checks, *sessionCheck)
	}

	// ── 5. Domain Wiring ──────────────────────────────────────────────────
	collector := metrics.New()

	signer, err := sec.NewCookieSigner(cfg.SessionSecret, constants.SessionIssuer)
	must(log, err, "initialize cookie signer")

	authService, err := auth.NewService(directory, sessions, sec.NewBcryptHasher(cfg.BcryptCost), cfg.SessionTTL, collector)
	must(log, err, "initialize auth service")

	authHandler := auth.NewHandler(authService, signer, auth.CookieSettings{
		Name:   constants.SessionCookieName,
		Path:   constants.SessionCookiePath,
		TTL:    cfg.SessionTTL,
		Secure: cfg.IsProduction(),
	}, middleware.LoginRateLimit(cfg.LoginRateLimit, cfg.LoginRateWindow))

	accountHandler := account.NewHandler(account.NewService(directory))

	liveness, readiness := api.NewHealthHandlers(checks, log)

	// ── 6. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(rootCtx, cfg, log,
		api.Sessions{Verifier: signer, Resolver: authService},
		collector,
		api.Handlers{
			Liveness:  liveness,
			Readiness: readiness,
			Metrics:   collector.Handler(),
			Static:    web.Handler(),
			Auth:      authHandler,
			Account:   accountHandler,
		},
	)

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	log.Info("server_shutting_down", slog.Duration("timeout", constants.ShutdownTimeout))

	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
	}

	log.Info("server_stopped")
}

// newLogger builds the process logger: colourised text in development,
// JSON everywhere else.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = tint.NewHandler(os.Stderr, &tint.Options{Level: level, TimeFormat: time.Kitchen})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// openDirectory connects the configured user directory backend.
func openDirectory(ctx context.Context, cfg *config.Config, log *slog.Logger) (auth.UserDirectory, func(), *api.HealthCheck) {
	switch cfg.DirectoryDriver {
	case config.DirectoryPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, log)
		must(log, err, "connect to postgres")
		must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

		closer := func() {
			log.Info("closing_postgres_pool")
			pool.Close()
		}
		check := &api.HealthCheck{Name: "postgres", Check: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		}}
		return auth.NewPostgresUserDirectory(pool), closer, check

	case config.DirectoryMongo:
		client, database, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
		must(log, err, "connect to mongodb")

		directory := auth.NewMongoUserDirectory(database.Collection(constants.CollectionUsers))
		must(log, directory.EnsureIndexes(ctx), "create mongodb indexes")

		closer := func() {
			log.Info("closing_mongo_client")
			if err := mongostore.Disconnect(client); err != nil {
				log.Error("mongo_close_error", slog.Any("error", err))
			}
		}
		check := &api.HealthCheck{Name: "mongodb", Check: func(ctx context.Context) error {
			return mongostore.Ping(ctx, client)
		}}
		return directory, closer, check

	default:
		log.Warn("using_in_memory_directory", slog.String("note", "users are lost on restart"))
		return auth.NewMemoryUserDirectory(), func() {}, nil
	}
}

// openSessions connects the configured session store backend.
func openSessions(ctx context.Context, cfg *config.Config, log *slog.Logger) (auth.SessionStore, func(), *api.HealthCheck) {
	if cfg.SessionDriver != config.SessionRedis {
		log.Warn("using_in_memory_sessions", slog.String("note", "sessions are lost on restart"))
		return auth.NewMemorySessionStore(memorySessionSweep), func() {}, nil
	}

	client, err := redisstore.NewClient(ctx, cfg.RedisURL, log)
	must(log, err, "connect to redis")

	closer := func() {
		log.Info("closing_redis_client")
		if err := client.Close(); err != nil {
			log.Error("redis_close_error", slog.Any("error", err))
		}
	}
	check := &api.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
		return redisstore.Ping(ctx, client)
	}}
	return auth.NewRedisSessionStore(client), closer, check
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned
// and handled explicitly.
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("step", step),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
