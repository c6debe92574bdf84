package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/padwatch/padwatch-data/internal/match"
	"github.com/padwatch/padwatch-data/internal/metrics"
)

// Runner triggers pipeline runs over the stored snapshots and keeps the
// last result for the ops API. Safe for concurrent use; runs themselves
// are serialized.
type Runner struct {
	pool      *pgxpool.Pool
	collector *metrics.Collector
	matcher   *match.Matcher
	recorder  Recorder
	opts      RunOptions
	window    time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	last    Result
	hasRun  bool
	running bool
}

// ErrRunInProgress is returned when a trigger overlaps a running pipeline.
var ErrRunInProgress = errors.New("match run already in progress")

// NewRunner creates a Runner. opts.Since is treated as a relative window:
// each run snapshots listings created within the window ending now.
func NewRunner(pool *pgxpool.Pool, collector *metrics.Collector, matcher *match.Matcher, recorder Recorder, opts RunOptions, window time.Duration, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		pool:      pool,
		collector: collector,
		matcher:   matcher,
		recorder:  recorder,
		opts:      opts,
		window:    window,
		logger:    logger,
	}
}

// Run executes one pipeline run. Concurrent triggers are rejected so two
// schedulers cannot double-process the same snapshot window.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return Result{}, ErrRunInProgress
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	opts := r.opts
	opts.Since = time.Now().Add(-r.window)

	result, err := RunFromStore(ctx, r.pool, r.collector, r.matcher, r.recorder, opts, r.logger)
	if err != nil {
		return Result{}, err
	}

	r.mu.Lock()
	r.last = result
	r.hasRun = true
	r.mu.Unlock()
	return result, nil
}

// Last returns the most recent run result, if any run has completed.
func (r *Runner) Last() (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.hasRun
}
