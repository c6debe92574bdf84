package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/padwatch/padwatch-data/internal/match"
	"github.com/padwatch/padwatch-data/internal/metrics"
	"github.com/padwatch/padwatch-data/internal/store"
)

// RunOptions controls one pipeline run.
type RunOptions struct {
	Since time.Time // listing snapshot cutoff
	Limit int       // max listings in the snapshot
	Match match.Options
}

// Run evaluates listings against alerts and records every match in the
// ledger. Duplicate triples resolve to the existing record and are counted,
// not surfaced as errors. A per-pair ledger failure is logged and the run
// continues; nothing in the pipeline is fatal to the batch.
func Run(ctx context.Context, listings []match.Listing, alerts []match.Alert, matcher *match.Matcher, recorder Recorder, opts RunOptions, logger *slog.Logger) Result {
	if logger == nil {
		logger = slog.Default()
	}

	pairs, stats := matcher.Run(ctx, listings, alerts, opts.Match)

	result := Result{Stats: stats}
	for _, p := range pairs {
		if !p.Evaluation.IsMatch {
			continue // diagnostics-only pair
		}
		rec, existed, err := recorder.RecordIfAbsent(ctx,
			p.Alert.UserID, p.Alert.ID, p.Listing.ID, "", "")
		if err != nil {
			logger.Warn("ledger record failed",
				"run_id", stats.RunID,
				"user_id", p.Alert.UserID, "alert_id", p.Alert.ID,
				"listing_id", p.Listing.ID, "error", err)
			continue
		}
		if existed {
			result.Duplicates++
			continue
		}
		result.Recorded++
		result.Records = append(result.Records, rec)
	}

	logger.Info("Pipeline run complete",
		"run_id", stats.RunID,
		"matched", stats.Matched,
		"recorded", result.Recorded,
		"duplicates", result.Duplicates)
	return result
}

// RunFromStore loads the listing and alert snapshots and runs the pipeline
// over them.
func RunFromStore(ctx context.Context, pool *pgxpool.Pool, collector *metrics.Collector, matcher *match.Matcher, recorder Recorder, opts RunOptions, logger *slog.Logger) (Result, error) {
	listings, err := store.LoadListings(ctx, pool, opts.Since, opts.Limit)
	if err != nil {
		return Result{}, fmt.Errorf("load listing snapshot: %w", err)
	}
	alerts, err := store.LoadAlerts(ctx, pool, collector, logger)
	if err != nil {
		return Result{}, fmt.Errorf("load alert snapshot: %w", err)
	}
	return Run(ctx, listings, alerts, matcher, recorder, opts, logger), nil
}
