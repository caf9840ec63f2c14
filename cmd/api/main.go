// Command api is the document-expiry notification engine service.
//
// Usage:
//
//	expiry-api
//	API_PORT=8080 expiry-api

// @title Expiry Engine API
// @version 1.0.0
// @description Document-expiry monitoring and notification engine. Evaluates visa/passport/labour-card expiry dates against fixed thresholds, dispatches rate-limited alert emails, and maintains refreshed dashboard snapshots.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
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

	"github.com/talentdesk/expiry-engine/internal/api"
	"github.com/talentdesk/expiry-engine/internal/cache"
	"github.com/talentdesk/expiry-engine/internal/config"
	"github.com/talentdesk/expiry-engine/internal/db"
	"github.com/talentdesk/expiry-engine/internal/mailer"
	"github.com/talentdesk/expiry-engine/internal/notify"
	"github.com/talentdesk/expiry-engine/internal/refresh"

	_ "github.com/talentdesk/expiry-engine/docs" // swagger docs
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
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

	// Email transport
	sender, err := mailer.New(cfg, logger)
	if err != nil {
		logger.Error("Failed to configure email transport", "error", err)
		os.Exit(1)
	}
	logger.Info("Email transport configured", "provider", cfg.EmailProvider, "from", cfg.EmailFrom)

	// Notification engine wiring
	flags := notify.NewStore(pool.Pool)
	audit := notify.NewAuditStore(pool.Pool)
	dispatcher := notify.NewDispatcher(flags, audit, sender, cfg.SendInterval, cfg.SendTimeout, logger)
	orch := notify.NewOrchestrator(dispatcher, cfg.CycleTimeout, logger)

	// Initialize cache
	appCache := cache.New(true)

	// Start snapshot refresh tickers — independent of notification cycles
	go refresh.Start(ctx, pool.Pool, refresh.Config{
		OverviewInterval:   cfg.OverviewRefreshInterval,
		StatisticsInterval: cfg.StatisticsRefreshInterval,
	}, logger)

	// Create router
	router := api.NewRouter(pool.Pool, appCache, cfg, orch, audit, logger)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Minute, // POST /cycle blocks for the whole cycle
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Expiry Engine API",
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

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
