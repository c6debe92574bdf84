// Package handler provides HTTP handlers for the ops API: health checks,
// match-run stats and triggers, and the notification delivery callback.
package handler

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/padwatch/padwatch-data/internal/api/respond"
	"github.com/padwatch/padwatch-data/internal/commute"
	"github.com/padwatch/padwatch-data/internal/config"
	"github.com/padwatch/padwatch-data/internal/ledger"
	"github.com/padwatch/padwatch-data/internal/notify"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	pool   *pgxpool.Pool
	ledger *ledger.Ledger
	runner *notify.Runner
	cache  *commute.TTLCache
	cfg    *config.Config
}

// New creates a Handler with shared dependencies.
func New(pool *pgxpool.Pool, led *ledger.Ledger, runner *notify.Runner, cache *commute.TTLCache, cfg *config.Config) *Handler {
	return &Handler{
		pool:   pool,
		ledger: led,
		runner: runner,
		cache:  cache,
		cfg:    cfg,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, and status.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Padwatch Matching API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	var n int
	err := h.pool.QueryRow(r.Context(), "health_check").Scan(&n)
	if err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache reports commute cache statistics.
// @Summary Commute cache health
// @Description Returns commute cache key counts and TTL.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{"enabled": false}
	if h.cache != nil {
		stats = h.cache.Stats()
	}
	respond.WriteJSONObject(w, http.StatusOK, stats)
}
