// Command expiryctl is the notification engine operations CLI.
//
// Usage:
//
//	expiryctl cycle run
//	expiryctl views refresh
//	expiryctl views refresh --view mv_company_overview
//	expiryctl stats
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/talentdesk/expiry-engine/internal/config"
	"github.com/talentdesk/expiry-engine/internal/db"
	"github.com/talentdesk/expiry-engine/internal/mailer"
	"github.com/talentdesk/expiry-engine/internal/notify"
	"github.com/talentdesk/expiry-engine/internal/refresh"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "expiryctl",
		Short: "Expiry engine operations CLI",
	}

	root.AddCommand(cycleCmd())
	root.AddCommand(viewsCmd())
	root.AddCommand(statsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// withPool loads config, connects, runs fn, and closes the pool.
func withPool(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}

// --------------------------------------------------------------------------
// cycle command
// --------------------------------------------------------------------------

func cycleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Notification cycle operations",
	}
	cmd.AddCommand(cycleRunCmd())
	return cmd
}

func cycleRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one full notification cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				sender, err := mailer.New(cfg, logger)
				if err != nil {
					return err
				}

				flags := notify.NewStore(pool.Pool)
				audit := notify.NewAuditStore(pool.Pool)
				dispatcher := notify.NewDispatcher(flags, audit, sender, cfg.SendInterval, cfg.SendTimeout, logger)
				orch := notify.NewOrchestrator(dispatcher, cfg.CycleTimeout, logger)

				summary, err := orch.Run(ctx)
				if err != nil {
					return err
				}
				logger.Info("Cycle finished",
					"sent", summary.NotificationsSent,
					"failed", summary.Failed,
					"batches", summary.BatchesRun,
					"duration", summary.Duration.Round(time.Millisecond))
				for _, e := range summary.ErrorsByEmployee {
					logger.Error("employee error", "employee_id", e.EmployeeID, "error", e.Error)
				}
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// views command
// --------------------------------------------------------------------------

func viewsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "views",
		Short: "Aggregate snapshot operations",
	}
	cmd.AddCommand(viewsRefreshCmd())
	return cmd
}

func viewsRefreshCmd() *cobra.Command {
	var view string
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh aggregate snapshot views",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				if view != "" {
					return refresh.RefreshView(ctx, pool.Pool, view, logger)
				}
				return refresh.RefreshAll(ctx, pool.Pool, logger)
			})
		},
	}
	cmd.Flags().StringVar(&view, "view", "", "Refresh a single view instead of all")
	return cmd
}

// --------------------------------------------------------------------------
// stats command
// --------------------------------------------------------------------------

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print notification audit counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				audit := notify.NewAuditStore(pool.Pool)

				byStatus, err := audit.CountByStatus(ctx)
				if err != nil {
					return err
				}
				byCategory, err := audit.CountByCategory(ctx)
				if err != nil {
					return err
				}
				now := time.Now().UTC()
				last24h, err := audit.CountInRange(ctx, now.Add(-24*time.Hour), now)
				if err != nil {
					return err
				}

				fmt.Println("Notifications by status:")
				for status, n := range byStatus {
					fmt.Printf("  %-8s %d\n", status, n)
				}
				fmt.Println("Notifications by category:")
				for category, n := range byCategory {
					fmt.Printf("  %-10s %d\n", category, n)
				}
				fmt.Printf("Created in last 24h: %d\n", last24h)
				return nil
			})
		},
	}
}
