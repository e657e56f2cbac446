// Package main is the entry point for the trip sync daemon.
// Its sole responsibility is wiring dependencies together and starting the
// facade server. No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for goose
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/wellsfam/tripsync/internal/auth"
	"github.com/wellsfam/tripsync/internal/cache"
	"github.com/wellsfam/tripsync/internal/config"
	"github.com/wellsfam/tripsync/internal/engine"
	"github.com/wellsfam/tripsync/internal/handler"
	"github.com/wellsfam/tripsync/internal/hydrate"
	"github.com/wellsfam/tripsync/internal/middleware"
	"github.com/wellsfam/tripsync/internal/realtime"
	"github.com/wellsfam/tripsync/internal/store"
	"github.com/wellsfam/tripsync/migrations"
)

// maxBodySize caps incoming request bodies. The largest legitimate payload
// is a full budget or packing collection, well under a megabyte.
const maxBodySize = 1 << 20

func main() {
	// --- Config -----------------------------------------------------------
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Overload()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately, the first query does.
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before logging in.
	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	// --- Migrations -------------------------------------------------------
	// goose drives database/sql, not pgx, so it gets its own connection.
	if err := runMigrations(cfg.DatabaseURL); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}
	slog.Info("schema up to date")

	// --- Auth -------------------------------------------------------------
	// Pass the device gate on first start, then log in. The access token's
	// subject claim is the user identity everything downstream is keyed by.
	authClient := auth.NewClient(cfg.AuthURL)

	deviceToken := cfg.DeviceToken
	if deviceToken == "" {
		if cfg.GateCode == "" {
			slog.Error("no DEVICE_TOKEN and no GATE_CODE; cannot authenticate")
			os.Exit(1)
		}
		deviceToken, err = authClient.PassGate(context.Background(), cfg.GateCode, cfg.DeviceID)
		if err != nil {
			slog.Error("device gate failed", "error", err)
			os.Exit(1)
		}
		slog.Info("device admitted", "device_id", cfg.DeviceID)
	}

	session, err := authClient.Login(context.Background(), cfg.Username, cfg.Password, cfg.DeviceID, deviceToken)
	if err != nil {
		slog.Error("login failed", "error", err)
		os.Exit(1)
	}
	userID, err := auth.UserID(session.AccessToken)
	if err != nil {
		slog.Error("bad access token", "error", err)
		os.Exit(1)
	}
	slog.Info("logged in", "user_id", userID)

	// --- Cache ------------------------------------------------------------
	// The cache is best-effort; a failure to open it is the one loud error,
	// everything after degrades silently.
	cacheStore, err := cache.Open(cfg.CachePath, logger)
	if err != nil {
		slog.Error("failed to open cache", "error", err)
		os.Exit(1)
	}
	defer cacheStore.Close()

	// --- Engine -----------------------------------------------------------
	remote := store.New(pool)
	eng := engine.New(
		remote,
		hydrate.New(remote),
		realtime.NewManager(cfg.DatabaseURL, logger),
		cacheStore,
		userID,
		logger,
	)
	if err := eng.Start(context.Background()); err != nil {
		// Start degrades to an error status rather than exiting: the cache
		// may have painted a stale view worth serving while the backend
		// comes back.
		slog.Warn("bootstrap incomplete", "error", err)
	}

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(maxBodySize))

	r.Mount("/", handler.NewServer(eng).Routes())

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	// Tear the realtime channel down before exit so the Postgres session
	// is not left holding the LISTEN.
	eng.Stop()
	slog.Info("server stopped")
}

// runMigrations brings the schema to the latest version using the embedded
// migration files.
func runMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, ".")
}
