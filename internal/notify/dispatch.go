package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/padwatch/padwatch-data/internal/ledger"
)

// StartWorker runs a background loop that delivers due pending
// notifications by email. Blocks until ctx is cancelled. Intended to be
// called with `go`.
func StartWorker(ctx context.Context, led *ledger.Ledger, sender *EmailSender, interval time.Duration, batchSize int, logger *slog.Logger) {
	logger.Info("Notification dispatch worker started", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sent, failed, err := led.DispatchPending(ctx, batchSize, func(ctx context.Context, d ledger.PendingDelivery) error {
				return sender.Send(d)
			})
			if err != nil {
				logger.Error("dispatch error", "error", err)
			} else if sent+failed > 0 {
				logger.Info("dispatch batch", "sent", sent, "failed", failed)
			}
		case <-ctx.Done():
			logger.Info("Notification dispatch worker stopped")
			return
		}
	}
}
