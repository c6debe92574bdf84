// Package store loads the listing and alert snapshots a match run operates
// on. Listings come from the ingestion pipeline's table and are read-only
// here; alerts are joined with their owning user's email.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/padwatch/padwatch-data/internal/geo"
	"github.com/padwatch/padwatch-data/internal/match"
	"github.com/padwatch/padwatch-data/internal/metrics"
)

// LoadListings returns listings ingested since the cutoff, newest first,
// up to limit.
func LoadListings(ctx context.Context, pool *pgxpool.Pool, since time.Time, limit int) ([]match.Listing, error) {
	rows, err := pool.Query(ctx, "snapshot_listings", since, limit)
	if err != nil {
		return nil, fmt.Errorf("load listings: %w", err)
	}
	defer rows.Close()

	var listings []match.Listing
	for rows.Next() {
		var (
			l        match.Listing
			lat, lng *float64
		)
		if err := rows.Scan(&l.ID, &l.ExternalID, &l.Price, &l.Bedrooms, &l.Area, &lat, &lng, &l.PetsAllowed); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		if lat != nil && lng != nil {
			l.Coordinates = &geo.Coordinate{Lat: *lat, Lng: *lng}
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// LoadAlerts returns all active alerts joined with the owning user's email.
// The areas column is JSON-encoded text (an upstream encoding detail); a
// malformed value decodes to an empty list — no area restriction — and is
// counted as a diagnostic rather than failing the batch, since the
// alternative silently drops the user's notifications entirely.
func LoadAlerts(ctx context.Context, pool *pgxpool.Pool, collector *metrics.Collector, logger *slog.Logger) ([]match.Alert, error) {
	if logger == nil {
		logger = slog.Default()
	}

	rows, err := pool.Query(ctx, "snapshot_alerts")
	if err != nil {
		return nil, fmt.Errorf("load alerts: %w", err)
	}
	defer rows.Close()

	var alerts []match.Alert
	for rows.Next() {
		var (
			a        match.Alert
			rawAreas string
			lat, lng *float64
		)
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.UserEmail, &rawAreas,
			&a.MinPrice, &a.MaxPrice, &a.Bedrooms, &a.PetsRequired,
			&a.MaxCommuteMinutes, &lat, &lng,
		); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		if lat != nil && lng != nil {
			a.Destination = &geo.Coordinate{Lat: *lat, Lng: *lng}
		}
		a.Areas = decodeAreas(a.ID, rawAreas, collector, logger)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func decodeAreas(alertID int64, raw string, collector *metrics.Collector, logger *slog.Logger) []string {
	if raw == "" {
		return nil
	}
	var areas []string
	if err := json.Unmarshal([]byte(raw), &areas); err != nil {
		collector.RecordAreaDecodeFailure()
		logger.Warn("alert area list failed to decode, treating as unrestricted",
			"alert_id", alertID, "error", err)
		return nil
	}
	return areas
}
