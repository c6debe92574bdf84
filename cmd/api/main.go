// Command api is the Padwatch matching service.
//
// Usage:
//
//	padwatch-api
//	API_PORT=8080 padwatch-api

// @title Padwatch Matching API
// @version 1.0.0
// @description Apartment alert matching service: evaluates new listings against saved searches, records at-most-once notifications, and exposes delivery callbacks for the notifier.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name Padwatch
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/padwatch/padwatch-data/internal/api"
	"github.com/padwatch/padwatch-data/internal/api/handler"
	"github.com/padwatch/padwatch-data/internal/commute"
	"github.com/padwatch/padwatch-data/internal/config"
	"github.com/padwatch/padwatch-data/internal/db"
	"github.com/padwatch/padwatch-data/internal/geo"
	"github.com/padwatch/padwatch-data/internal/ledger"
	"github.com/padwatch/padwatch-data/internal/maintenance"
	"github.com/padwatch/padwatch-data/internal/match"
	"github.com/padwatch/padwatch-data/internal/metrics"
	"github.com/padwatch/padwatch-data/internal/notify"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Apply migrations before opening the pool; the ledger depends on the
	// unique constraint they create.
	if cfg.MigrateOnStart {
		if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("Migrations applied")
	}

	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Metrics registry
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// Area table
	areas, err := geo.LoadAreaTable(cfg.AreaTablePath)
	if err != nil {
		logger.Error("Failed to load area table", "error", err)
		os.Exit(1)
	}
	logger.Info("Area table loaded", "areas", areas.Len())

	// Commute estimator (disabled without a routing API key; the predicate
	// then passes commute checks permissively)
	var estimator match.CommuteEstimator
	commuteCache := commute.NewTTLCache(cfg.CommuteCacheTTL)
	if cfg.RoutingAPIKey != "" {
		router := commute.NewRoutingClient(cfg.RoutingBaseURL, cfg.RoutingAPIKey, cfg.RoutingPerMinute, logger)
		estimator = commute.NewEstimator(router, commuteCache, collector, logger)
		logger.Info("Commute estimator enabled", "cache_ttl", cfg.CommuteCacheTTL)
	} else {
		logger.Info("Commute estimator disabled (no ROUTING_API_KEY)")
	}

	// Matching pipeline
	predicate := match.NewPredicate(areas, estimator, collector, logger)
	matcher := match.NewMatcher(predicate, collector, logger)
	led := ledger.New(pool.Pool, collector, logger)
	runner := notify.NewRunner(pool.Pool, collector, matcher, led, notify.RunOptions{
		Limit: cfg.MatchLimit,
		Match: match.Options{
			MaxPerAlert: cfg.MaxPerAlert,
			Workers:     cfg.MatchWorkers,
		},
	}, cfg.MatchSince, logger)

	// Built-in email dispatch worker (if SMTP is configured)
	sender := notify.NewEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	if sender != nil {
		go notify.StartWorker(ctx, led, sender, cfg.DispatchInterval, cfg.DispatchBatchSize, logger)
	} else {
		logger.Info("Email dispatch worker disabled (no SMTP_HOST); external notifier owns delivery")
	}

	// Maintenance tickers: scheduled match runs + ledger retention sweep
	go maintenance.Start(ctx, maintenance.Config{
		MatchInterval: cfg.MatchInterval,
		SweepInterval: cfg.SweepInterval,
		RetentionDays: cfg.RetentionDays,
	}, func(ctx context.Context) error {
		_, err := runner.Run(ctx)
		return err
	}, led, logger)

	// Router
	h := handler.New(pool.Pool, led, runner, commuteCache, cfg)
	router := api.NewRouter(h, registry, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Padwatch Matching API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
