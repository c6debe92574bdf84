package match

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/padwatch/padwatch-data/internal/metrics"
)

// Options controls a batch run.
type Options struct {
	// MaxPerAlert caps matches per alert; 0 means unlimited. Once an alert
	// hits its cap, remaining pairs for it are skipped, not evaluated.
	// Which matches survive a cap depends on input order, so callers
	// needing deterministic capped output must pre-sort their inputs.
	MaxPerAlert int

	// IncludeNonMatches retains failing pairs for diagnostics.
	IncludeNonMatches bool

	// Workers bounds concurrent pair evaluation. Values <= 1 run the loop
	// sequentially. Only the commute call suspends, so parallelism is only
	// worth it for commute-heavy runs; the routing client's token bucket
	// still bounds the request rate.
	Workers int
}

// Pair is one evaluated (listing, alert) combination.
type Pair struct {
	Listing    Listing
	Alert      Alert
	Evaluation Evaluation
}

// RunStats aggregates a batch run for logs and the ops API.
type RunStats struct {
	RunID           string         `json:"run_id"`
	Listings        int            `json:"listings"`
	Alerts          int            `json:"alerts"`
	InvalidListings int            `json:"invalid_listings"`
	InvalidAlerts   int            `json:"invalid_alerts"`
	PairsEvaluated  int            `json:"pairs_evaluated"`
	PairsSkipped    int            `json:"pairs_skipped"`
	Matched         int            `json:"matched"`
	NotMatched      int            `json:"not_matched"`
	FailuresByCheck map[string]int `json:"failures_by_check"`
	StartedAt       time.Time      `json:"started_at"`
	Duration        time.Duration  `json:"duration"`
}

// Summary returns a one-line human-readable summary.
func (s *RunStats) Summary() string {
	return fmt.Sprintf(
		"listings=%d alerts=%d evaluated=%d matched=%d skipped=%d invalid=%d",
		s.Listings, s.Alerts, s.PairsEvaluated, s.Matched,
		s.PairsSkipped, s.InvalidListings+s.InvalidAlerts,
	)
}

// MatchRate returns matched / evaluated, or 0 for an empty run.
func (s *RunStats) MatchRate() float64 {
	if s.PairsEvaluated == 0 {
		return 0
	}
	return float64(s.Matched) / float64(s.PairsEvaluated)
}

// Matcher drives the predicate over a listing/alert cross-product.
type Matcher struct {
	predicate *Predicate
	metrics   *metrics.Collector
	logger    *slog.Logger
}

// NewMatcher creates a batch matcher around a predicate.
func NewMatcher(predicate *Predicate, collector *metrics.Collector, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{
		predicate: predicate,
		metrics:   collector,
		logger:    logger,
	}
}

// Run evaluates every valid (listing, alert) pair and returns matched pairs
// (plus non-matches when requested) with run statistics. The run aborts
// between pairs when ctx is cancelled; partial results are returned since
// each pair is independent and nothing needs rollback.
func (m *Matcher) Run(ctx context.Context, listings []Listing, alerts []Alert, opts Options) ([]Pair, RunStats) {
	stats := RunStats{
		RunID:           uuid.NewString(),
		Listings:        len(listings),
		Alerts:          len(alerts),
		FailuresByCheck: make(map[string]int),
		StartedAt:       time.Now(),
	}

	validListings := listings[:0:0]
	for _, l := range listings {
		if err := ValidateListing(l); err != nil {
			m.logger.Warn("skipping invalid listing", "run_id", stats.RunID, "error", err)
			m.metrics.RecordPair("invalid")
			stats.InvalidListings++
			continue
		}
		validListings = append(validListings, l)
	}

	validAlerts := alerts[:0:0]
	for _, a := range alerts {
		if err := ValidateAlert(a); err != nil {
			m.logger.Warn("skipping invalid alert", "run_id", stats.RunID, "error", err)
			m.metrics.RecordPair("invalid")
			stats.InvalidAlerts++
			continue
		}
		validAlerts = append(validAlerts, a)
	}

	var pairs []Pair
	if opts.Workers > 1 {
		pairs = m.runParallel(ctx, validListings, validAlerts, opts, &stats)
	} else {
		pairs = m.runSequential(ctx, validListings, validAlerts, opts, &stats)
	}

	stats.Duration = time.Since(stats.StartedAt)
	m.logger.Info("Match run complete",
		"run_id", stats.RunID, "summary", stats.Summary(),
		"duration", stats.Duration.Round(time.Millisecond))
	return pairs, stats
}

func (m *Matcher) runSequential(ctx context.Context, listings []Listing, alerts []Alert, opts Options, stats *RunStats) []Pair {
	var pairs []Pair
	counts := make(map[int64]int, len(alerts))

	for _, listing := range listings {
		for _, alert := range alerts {
			if ctx.Err() != nil {
				return pairs
			}
			if opts.MaxPerAlert > 0 && counts[alert.ID] >= opts.MaxPerAlert {
				stats.PairsSkipped++
				m.metrics.RecordPair("skipped")
				continue
			}
			pairs = m.evaluatePair(ctx, listing, alert, opts, counts, stats, pairs)
		}
	}
	return pairs
}

// runParallel fans listings out to a bounded worker pool. Shared state
// (results, caps, stats) is guarded by one mutex; the cap check remains
// best-effort under concurrency, which only affects which matches are
// dropped once a cap is hit, never correctness.
func (m *Matcher) runParallel(ctx context.Context, listings []Listing, alerts []Alert, opts Options, stats *RunStats) []Pair {
	workers := opts.Workers
	if workers > len(listings) {
		workers = len(listings)
	}

	ch := make(chan Listing, len(listings))
	for _, l := range listings {
		ch <- l
	}
	close(ch)

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		pairs []Pair
	)
	counts := make(map[int64]int, len(alerts))

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for listing := range ch {
				for _, alert := range alerts {
					if ctx.Err() != nil {
						return
					}
					mu.Lock()
					if opts.MaxPerAlert > 0 && counts[alert.ID] >= opts.MaxPerAlert {
						stats.PairsSkipped++
						mu.Unlock()
						m.metrics.RecordPair("skipped")
						continue
					}
					mu.Unlock()

					eval := m.predicate.Evaluate(ctx, listing, alert)

					mu.Lock()
					pairs = m.recordEvaluation(listing, alert, eval, opts, counts, stats, pairs)
					mu.Unlock()
				}
			}
		}()
	}

	wg.Wait()
	return pairs
}

func (m *Matcher) evaluatePair(ctx context.Context, listing Listing, alert Alert, opts Options, counts map[int64]int, stats *RunStats, pairs []Pair) []Pair {
	eval := m.predicate.Evaluate(ctx, listing, alert)
	return m.recordEvaluation(listing, alert, eval, opts, counts, stats, pairs)
}

func (m *Matcher) recordEvaluation(listing Listing, alert Alert, eval Evaluation, opts Options, counts map[int64]int, stats *RunStats, pairs []Pair) []Pair {
	stats.PairsEvaluated++
	for _, c := range eval.Checks {
		if !c.Passed {
			stats.FailuresByCheck[c.Name]++
		}
	}

	if eval.IsMatch {
		stats.Matched++
		counts[alert.ID]++
		m.metrics.RecordPair("match")
		return append(pairs, Pair{Listing: listing, Alert: alert, Evaluation: eval})
	}

	stats.NotMatched++
	m.metrics.RecordPair("no_match")
	if opts.IncludeNonMatches {
		return append(pairs, Pair{Listing: listing, Alert: alert, Evaluation: eval})
	}
	return pairs
}
