// Package commute estimates transit times between listing and alert
// destination coordinates, with a TTL cache in front of the routing API.
package commute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/padwatch/padwatch-data/internal/geo"
	"github.com/padwatch/padwatch-data/internal/metrics"
)

// ErrUnavailable signals that no estimate could be produced: the routing
// API failed or found no transit route. Callers treat this permissively —
// a listing is never filtered out because the estimator is down.
var ErrUnavailable = errors.New("commute estimate unavailable")

// Router is the one network-bound dependency of the estimator.
type Router interface {
	TransitSeconds(ctx context.Context, origin, destination geo.Coordinate) (int, error)
}

// Estimator returns transit-time estimates in minutes, consulting the cache
// before the routing API. Failures are never cached, so a later retry can
// succeed once the remote service recovers.
type Estimator struct {
	router  Router
	cache   Cache
	metrics *metrics.Collector
	logger  *slog.Logger
}

// NewEstimator creates an estimator. cache may not be nil; pass a fresh
// TTLCache (or a test stub) rather than relying on hidden process state.
func NewEstimator(router Router, cache Cache, collector *metrics.Collector, logger *slog.Logger) *Estimator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Estimator{
		router:  router,
		cache:   cache,
		metrics: collector,
		logger:  logger,
	}
}

// Estimate returns the transit time in whole minutes from origin to
// destination, or ErrUnavailable.
func (e *Estimator) Estimate(ctx context.Context, origin, destination geo.Coordinate) (int, error) {
	key := cacheKey(origin, destination)

	if minutes, ok := e.cache.Get(key); ok {
		e.metrics.RecordCommuteLookup("hit")
		return minutes, nil
	}
	e.metrics.RecordCommuteLookup("miss")

	seconds, err := e.router.TransitSeconds(ctx, origin, destination)
	if err != nil {
		e.metrics.RecordCommuteLookup("error")
		e.logger.Warn("commute estimate unavailable",
			"origin", origin.String(), "destination", destination.String(), "error", err)
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	minutes := int(math.Round(float64(seconds) / 60.0))
	e.cache.Set(key, minutes)
	return minutes, nil
}

// cacheKey is the literal coordinate-pair combination. No geographic
// rounding is applied, so nearby listings do not share entries.
func cacheKey(origin, destination geo.Coordinate) string {
	return origin.String() + "|" + destination.String()
}
