// Package maintenance runs periodic background tasks as Go tickers: the
// scheduled match run over fresh listings and the ledger retention sweep.
// All scheduled work is driven from Go since the API is already a
// persistent, long-running service.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/padwatch/padwatch-data/internal/ledger"
)

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	MatchInterval time.Duration // Periodic match run over recent listings
	SweepInterval time.Duration // Ledger retention sweep
	RetentionDays int
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`. runMatch is the pipeline
// trigger; its errors are logged, never fatal.
func Start(ctx context.Context, cfg Config, runMatch func(context.Context) error, led *ledger.Ledger, logger *slog.Logger) {
	logger.Info("Maintenance tickers started",
		"match", cfg.MatchInterval,
		"sweep", cfg.SweepInterval,
		"retention_days", cfg.RetentionDays)

	tickers := make([]*time.Ticker, 0, 2)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	if cfg.MatchInterval > 0 {
		t := time.NewTicker(cfg.MatchInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() {
			if err := runMatch(ctx); err != nil {
				logger.Warn("Scheduled match run failed", "error", err)
			}
		})
	}

	if cfg.SweepInterval > 0 {
		t := time.NewTicker(cfg.SweepInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() {
			deleted, err := led.RetentionSweep(ctx, cfg.RetentionDays)
			if err != nil {
				logger.Warn("Retention sweep failed", "error", err)
			} else if deleted > 0 {
				logger.Info("Retention sweep purged old notifications", "count", deleted)
			}
		})
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
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
