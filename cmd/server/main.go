// Package main is the entry point for the schoolbook HTTP server. It opens
// the dataset store and the load ledger, wires the services, and serves the
// HTML pages and the JSON API until SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	_ "github.com/mattn/go-sqlite3"

	"schoolbook/internal/api"
	"schoolbook/internal/app"
	"schoolbook/internal/config"
	"schoolbook/internal/db"
	"schoolbook/internal/middleware"
	"schoolbook/internal/service/refresh"
	"schoolbook/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file (if present); real environment variables win.
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	for _, warning := range cfg.Warnings {
		logger.Warn(warning)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// Open the DuckDB dataset store.
	dataDB, err := db.OpenDuckDB(cfg.DataDBPath)
	if err != nil {
		return err
	}
	defer dataDB.Close() //nolint:errcheck
	logger.Info("dataset store open", "path", cfg.DataDBPath)

	// Open the SQLite load ledger: single-connection write pool for the
	// loader, wider read pool for the serving path.
	writeDB, readDB, err := db.OpenSQLitePair(cfg.MetaDBPath, 4)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer writeDB.Close() //nolint:errcheck
	defer readDB.Close()  //nolint:errcheck

	if err := db.RunMigrations(writeDB); err != nil {
		return fmt.Errorf("migrate ledger: %w", err)
	}

	application, err := app.New(ctx, app.Deps{
		Cfg:     cfg,
		DataDB:  dataDB,
		WriteDB: writeDB,
		ReadDB:  readDB,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	// Optional refresh before serving. A failed load leaves the previous
	// table contents in place, so the server starts regardless.
	if cfg.RefreshOnStart && len(application.Datasets) > 0 {
		logger.Info("refreshing datasets before serving", "datasets", len(application.Datasets))
		if _, err := application.Ingestion.LoadAll(ctx, application.Datasets); err != nil {
			logger.Error("startup refresh failed", "error", err)
		}
	}

	// Optional scheduled refresh.
	if cfg.RefreshCron != "" && len(application.Datasets) > 0 {
		sched := refresh.NewScheduler(
			application.Ingestion,
			application.Datasets,
			logger.With("component", "refresh"),
		)
		if err := sched.Start(ctx, cfg.RefreshCron); err != nil {
			return err
		}
		defer sched.Stop()
	}

	// Router: request logging and panic recovery first, then request IDs
	// and the per-client rate limit.
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))

	ui.MountRoutes(r, ui.NewHandler(application.Query, cfg.Dataset))
	api.MountRoutes(r, api.NewHandler(
		application.Query,
		cfg.Dataset,
		application.Health,
		logger.With("component", "api"),
	), cfg.CORSAllowedOrigins)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown: stop accepting connections, give in-flight
	// requests 10 seconds to finish.
	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("listening",
		"addr", cfg.ListenAddr,
		"dataset", cfg.Dataset,
		"env", cfg.Env,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
