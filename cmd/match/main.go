// Command match is the Padwatch matching CLI.
//
// Usage:
//
//	padwatch-match run --since-hours 24 --limit 1000
//	padwatch-match run --max-per-alert 5 --workers 4
//	padwatch-match dispatch --batch 100
//	padwatch-match sweep --days 90
//	padwatch-match migrate
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

	"github.com/padwatch/padwatch-data/internal/commute"
	"github.com/padwatch/padwatch-data/internal/config"
	"github.com/padwatch/padwatch-data/internal/db"
	"github.com/padwatch/padwatch-data/internal/geo"
	"github.com/padwatch/padwatch-data/internal/ledger"
	"github.com/padwatch/padwatch-data/internal/match"
	"github.com/padwatch/padwatch-data/internal/notify"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "padwatch-match",
		Short: "Padwatch matching CLI",
	}

	root.AddCommand(runCmd())
	root.AddCommand(dispatchCmd())
	root.AddCommand(sweepCmd())
	root.AddCommand(migrateCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// run command
// --------------------------------------------------------------------------

func runCmd() *cobra.Command {
	var (
		sinceHours  int
		limit       int
		maxPerAlert int
		workers     int
		nonMatches  bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the matching pipeline once over recent listings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				areas, err := geo.LoadAreaTable(cfg.AreaTablePath)
				if err != nil {
					return fmt.Errorf("load area table: %w", err)
				}

				var estimator match.CommuteEstimator
				if cfg.RoutingAPIKey != "" {
					router := commute.NewRoutingClient(cfg.RoutingBaseURL, cfg.RoutingAPIKey, cfg.RoutingPerMinute, logger)
					estimator = commute.NewEstimator(router, commute.NewTTLCache(cfg.CommuteCacheTTL), nil, logger)
				}

				predicate := match.NewPredicate(areas, estimator, nil, logger)
				matcher := match.NewMatcher(predicate, nil, logger)
				led := ledger.New(pool.Pool, nil, logger)

				opts := notify.RunOptions{
					Since: time.Now().UTC().Add(-time.Duration(sinceHours) * time.Hour),
					Limit: limit,
					Match: match.Options{
						MaxPerAlert:       maxPerAlert,
						IncludeNonMatches: nonMatches,
						Workers:           workers,
					},
				}

				start := time.Now()
				result, err := notify.RunFromStore(ctx, pool.Pool, nil, matcher, led, opts, logger)
				if err != nil {
					return err
				}
				logger.Info("Match run finished",
					"duration", time.Since(start).Round(time.Millisecond),
					"summary", result.Stats.Summary(),
					"recorded", result.Recorded,
					"duplicates", result.Duplicates)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&sinceHours, "since-hours", 24, "Listing snapshot window in hours")
	cmd.Flags().IntVar(&limit, "limit", 1000, "Maximum listings in the snapshot")
	cmd.Flags().IntVar(&maxPerAlert, "max-per-alert", 0, "Cap matches per alert per run (0 = unlimited)")
	cmd.Flags().IntVar(&workers, "workers", 1, "Concurrent evaluation workers")
	cmd.Flags().BoolVar(&nonMatches, "include-non-matches", false, "Report failed pairs with per-check diagnostics")
	return cmd
}

// --------------------------------------------------------------------------
// dispatch command
// --------------------------------------------------------------------------

func dispatchCmd() *cobra.Command {
	var batch int
	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Send one batch of pending notifications via SMTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				sender := notify.NewEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
				if sender == nil {
					return fmt.Errorf("SMTP_HOST is required")
				}
				led := ledger.New(pool.Pool, nil, logger)
				sent, failed, err := led.DispatchPending(ctx, batch, func(ctx context.Context, d ledger.PendingDelivery) error {
					return sender.Send(d)
				})
				if err != nil {
					return err
				}
				logger.Info("Dispatch finished", "sent", sent, "failed", failed)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&batch, "batch", 100, "Maximum notifications to claim")
	return cmd
}

// --------------------------------------------------------------------------
// sweep command
// --------------------------------------------------------------------------

func sweepCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete notification records older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				led := ledger.New(pool.Pool, nil, logger)
				deleted, err := led.RetentionSweep(ctx, days)
				if err != nil {
					return err
				}
				logger.Info("Retention sweep finished", "days", days, "deleted", deleted)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 90, "Keep records newer than this many days")
	return cmd
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
				return err
			}
			logger.Info("Migrations applied")
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// withPool handles config loading, DB connection, and context cancellation.
func withPool(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}
