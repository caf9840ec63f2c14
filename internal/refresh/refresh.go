// Package refresh rebuilds the read-optimized aggregate snapshots on fixed
// intervals as Go tickers. Replaces pg_cron — the engine is already a
// persistent, long-running service, so scheduling lives in Go and stays
// portable across storage engines.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is the single database capability a refresh needs. *pgxpool.Pool
// satisfies it.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Views lists every materialized view the engine maintains, in refresh order.
// Each carries a unique index so CONCURRENTLY works and readers always see
// either the old or the new complete snapshot.
var Views = []string{
	"mv_company_overview",
	"mv_document_expiry_stats",
}

// Config controls refresh intervals. Zero duration disables a ticker.
type Config struct {
	OverviewInterval   time.Duration // fast-changing dashboard counts
	StatisticsInterval time.Duration // heavier document statistics
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		OverviewInterval:   10 * time.Minute,
		StatisticsInterval: 2 * time.Hour,
	}
}

// Start launches the refresh tickers. Blocks until ctx is cancelled.
// Intended to be called with `go`. Refresh failures are logged and retried
// on the next tick; they never affect notification cycles.
func Start(ctx context.Context, db Execer, cfg Config, logger *slog.Logger) {
	logger.Info("Snapshot refresh tickers started",
		"overview", cfg.OverviewInterval,
		"statistics", cfg.StatisticsInterval)

	tickers := make([]*time.Ticker, 0, 2)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	if cfg.OverviewInterval > 0 {
		t := time.NewTicker(cfg.OverviewInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() {
			_ = RefreshView(ctx, db, "mv_company_overview", logger)
		})
	}

	if cfg.StatisticsInterval > 0 {
		t := time.NewTicker(cfg.StatisticsInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() {
			_ = RefreshView(ctx, db, "mv_document_expiry_stats", logger)
		})
	}

	<-ctx.Done()
	logger.Info("Snapshot refresh tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// RefreshView rebuilds one snapshot. CONCURRENTLY swaps the view in without
// blocking concurrent readers; re-running against unchanged base data is a
// no-op observable only in the duration log.
func RefreshView(ctx context.Context, db Execer, view string, logger *slog.Logger) error {
	if !known(view) {
		return fmt.Errorf("unknown view %q", view)
	}

	start := time.Now()
	_, err := db.Exec(ctx, fmt.Sprintf("REFRESH MATERIALIZED VIEW CONCURRENTLY %s", view))
	dur := time.Since(start).Round(time.Millisecond)

	if err != nil {
		logger.Warn("Failed to refresh snapshot view",
			"view", view, "duration", dur, "error", err)
		return fmt.Errorf("refresh %s: %w", view, err)
	}
	logger.Info("Refreshed snapshot view", "view", view, "duration", dur)
	return nil
}

// RefreshAll rebuilds every snapshot in order, continuing past failures and
// returning the first error encountered.
func RefreshAll(ctx context.Context, db Execer, logger *slog.Logger) error {
	var firstErr error
	for _, v := range Views {
		if err := RefreshView(ctx, db, v, logger); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func known(view string) bool {
	for _, v := range Views {
		if v == view {
			return true
		}
	}
	return false
}
