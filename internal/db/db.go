// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/padwatch/padwatch-data/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers all statements the ledger and
// snapshot layers use. Prepared statements eliminate parse overhead on the
// hot match-run path.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Ledger: at-most-once notification records
		"ledger_exists": `
			SELECT 1 FROM notifications
			WHERE user_id = $1 AND alert_id = $2 AND listing_id = $3`,
		"ledger_insert": `
			INSERT INTO notifications (user_id, alert_id, listing_id, kind, status)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT ON CONSTRAINT notifications_user_alert_listing_key DO NOTHING
			RETURNING id, user_id, alert_id, listing_id, kind, status, created_at`,
		"ledger_get_by_triple": `
			SELECT id, user_id, alert_id, listing_id, kind, status, created_at
			FROM notifications
			WHERE user_id = $1 AND alert_id = $2 AND listing_id = $3`,
		"ledger_get_status": "SELECT status FROM notifications WHERE id = $1",
		"ledger_update_status": `
			UPDATE notifications SET status = $2, updated_at = NOW()
			WHERE id = $1`,
		"ledger_list_pending": `
			SELECT id, user_id, alert_id, listing_id, kind, status, created_at
			FROM notifications
			WHERE status = 'pending'
			ORDER BY created_at
			LIMIT $1`,

		// Snapshots: match-run inputs
		"snapshot_listings": `
			SELECT id, external_id, price, bedrooms, area, latitude, longitude, pets_allowed
			FROM listings
			WHERE created_at >= $1
			ORDER BY created_at DESC
			LIMIT $2`,
		"snapshot_alerts": `
			SELECT a.id, a.user_id, u.email, a.areas,
			       a.min_price, a.max_price, a.bedrooms, a.pets_required,
			       a.max_commute_minutes, a.destination_lat, a.destination_lng
			FROM alerts a
			JOIN users u ON u.id = a.user_id
			WHERE a.active = true`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
