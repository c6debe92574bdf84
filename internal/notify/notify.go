// Package notify runs the matching pipeline and delivers the results.
//
// Pipeline: load snapshots → match listings against alerts → record each
// match in the ledger (at most once per user/alert/listing) → surviving
// records are delivered by the dispatch worker or an external notifier.
package notify

import (
	"context"

	"github.com/padwatch/padwatch-data/internal/ledger"
	"github.com/padwatch/padwatch-data/internal/match"
)

// Recorder is the ledger surface the pipeline depends on.
type Recorder interface {
	RecordIfAbsent(ctx context.Context, userID, alertID, listingID int64, kind, initialStatus string) (ledger.Record, bool, error)
}

// Result summarizes one pipeline run.
type Result struct {
	Stats      match.RunStats  `json:"stats"`
	Recorded   int             `json:"recorded"`
	Duplicates int             `json:"duplicates"`
	Records    []ledger.Record `json:"-"`
}
