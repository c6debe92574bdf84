// Package ledger is the durable notification record preventing duplicate
// notification of the same user for the same alert-listing combination.
//
// The at-most-once guarantee rests on the UNIQUE (user_id, alert_id,
// listing_id) constraint in Postgres, not on application-level checks: two
// callers racing to record the same triple resolve to exactly one row.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/padwatch/padwatch-data/internal/metrics"
)

// Record is one ledger row.
type Record struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	AlertID   int64     `json:"alert_id"`
	ListingID int64     `json:"listing_id"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// PendingDelivery is a claimed pending row joined with everything the
// dispatcher needs to send the email.
type PendingDelivery struct {
	Record
	Email             string
	ListingExternalID string
	ListingPrice      int
	ListingArea       *string
}

// Ledger provides check-and-record semantics over the notifications table.
type Ledger struct {
	pool    *pgxpool.Pool
	metrics *metrics.Collector
	logger  *slog.Logger
}

// New creates a Ledger.
func New(pool *pgxpool.Pool, collector *metrics.Collector, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{pool: pool, metrics: collector, logger: logger}
}

// Exists reports whether a record for the triple already exists.
func (l *Ledger) Exists(ctx context.Context, userID, alertID, listingID int64) (bool, error) {
	var n int
	err := l.pool.QueryRow(ctx, "ledger_exists", userID, alertID, listingID).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger exists: %w", err)
	}
	return true, nil
}

// RecordIfAbsent atomically records a notification for the triple unless
// one already exists. A uniqueness conflict is resolved by re-reading the
// existing row, never surfaced as an error: the second caller gets the same
// record with wasAlreadyPresent=true.
func (l *Ledger) RecordIfAbsent(ctx context.Context, userID, alertID, listingID int64, kind, initialStatus string) (Record, bool, error) {
	if kind == "" {
		kind = KindNewListing
	}
	if initialStatus == "" {
		initialStatus = StatusPending
	}

	var rec Record
	err := l.pool.QueryRow(ctx, "ledger_insert",
		userID, alertID, listingID, kind, initialStatus,
	).Scan(&rec.ID, &rec.UserID, &rec.AlertID, &rec.ListingID, &rec.Kind, &rec.Status, &rec.CreatedAt)
	if err == nil {
		l.metrics.RecordLedgerWrite("new")
		return rec, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Record{}, false, fmt.Errorf("ledger insert: %w", err)
	}

	// ON CONFLICT DO NOTHING returned no row: the triple is already
	// recorded (possibly by a concurrent caller). Resolve to it.
	err = l.pool.QueryRow(ctx, "ledger_get_by_triple", userID, alertID, listingID).
		Scan(&rec.ID, &rec.UserID, &rec.AlertID, &rec.ListingID, &rec.Kind, &rec.Status, &rec.CreatedAt)
	if err != nil {
		return Record{}, false, fmt.Errorf("ledger re-read after conflict: %w", err)
	}
	l.metrics.RecordLedgerWrite("duplicate")
	return rec, true, nil
}

// UpdateStatus applies a delivery status reported by the notifier. Source
// state is not validated — delivery systems report out of order — but
// unexpected transitions are logged.
func (l *Ledger) UpdateStatus(ctx context.Context, id int64, status string) error {
	if !KnownStatus(status) {
		return fmt.Errorf("unknown notification status %q", status)
	}

	var current string
	err := l.pool.QueryRow(ctx, "ledger_get_status", id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("notification %d not found", id)
	}
	if err != nil {
		return fmt.Errorf("ledger read status: %w", err)
	}

	if !ValidTransition(current, status) {
		l.logger.Warn("out-of-order notification status transition",
			"notification_id", id, "from", current, "to", status)
	}

	if _, err := l.pool.Exec(ctx, "ledger_update_status", id, status); err != nil {
		return fmt.Errorf("ledger update status: %w", err)
	}
	return nil
}

// ListPending returns up to limit pending records for an external notifier.
// Rows are not claimed; callers coordinating multiple notifiers should use
// DispatchPending instead.
func (l *Ledger) ListPending(ctx context.Context, limit int) ([]Record, error) {
	rows, err := l.pool.Query(ctx, "ledger_list_pending", limit)
	if err != nil {
		return nil, fmt.Errorf("ledger list pending: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.AlertID, &rec.ListingID, &rec.Kind, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DispatchPending claims up to batchSize pending rows with FOR UPDATE SKIP
// LOCKED and invokes send for each, marking sent or failed inside the same
// transaction. Safe for concurrent dispatchers.
func (l *Ledger) DispatchPending(ctx context.Context, batchSize int, send func(ctx context.Context, d PendingDelivery) error) (sent, failed int, err error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("begin dispatch tx: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT n.id, n.user_id, n.alert_id, n.listing_id, n.kind, n.status, n.created_at,
		       u.email, li.external_id, li.price, li.area
		FROM notifications n
		JOIN users u ON u.id = n.user_id
		JOIN listings li ON li.id = n.listing_id
		WHERE n.status = 'pending'
		ORDER BY n.created_at
		LIMIT $1
		FOR UPDATE OF n SKIP LOCKED`, batchSize)
	if err != nil {
		return 0, 0, fmt.Errorf("claim pending: %w", err)
	}

	var claimed []PendingDelivery
	for rows.Next() {
		var d PendingDelivery
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.AlertID, &d.ListingID, &d.Kind, &d.Status, &d.CreatedAt,
			&d.Email, &d.ListingExternalID, &d.ListingPrice, &d.ListingArea,
		); err != nil {
			rows.Close()
			return 0, 0, fmt.Errorf("scan claimed row: %w", err)
		}
		claimed = append(claimed, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, 0, fmt.Errorf("claim pending rows: %w", err)
	}

	for _, d := range claimed {
		status := StatusSent
		if sendErr := send(ctx, d); sendErr != nil {
			l.logger.Warn("notification send failed",
				"notification_id", d.ID, "error", sendErr)
			status = StatusFailed
			failed++
		} else {
			sent++
		}
		if _, err := tx.Exec(ctx, `
			UPDATE notifications
			SET status = $2, sent_at = NOW(), updated_at = NOW()
			WHERE id = $1`, d.ID, status); err != nil {
			return sent, failed, fmt.Errorf("mark notification %d: %w", d.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return sent, failed, fmt.Errorf("commit dispatch tx: %w", err)
	}
	return sent, failed, nil
}

// RetentionSweep deletes ledger rows older than daysToKeep. Purely storage
// hygiene, never required for correctness.
func (l *Ledger) RetentionSweep(ctx context.Context, daysToKeep int) (int64, error) {
	tag, err := l.pool.Exec(ctx, `
		DELETE FROM notifications
		WHERE created_at < NOW() - make_interval(days => $1)`, daysToKeep)
	if err != nil {
		return 0, fmt.Errorf("retention sweep: %w", err)
	}
	return tag.RowsAffected(), nil
}
