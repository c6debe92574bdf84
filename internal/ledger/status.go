package ledger

// Delivery statuses. Lifecycle: pending → sent | failed, with sent
// optionally advancing to delivered or bounced via the delivery callback.
// Everything after pending is terminal from the ledger's perspective.
const (
	StatusPending   = "pending"
	StatusSent      = "sent"
	StatusFailed    = "failed"
	StatusDelivered = "delivered"
	StatusBounced   = "bounced"
)

// KindNewListing is the default notification kind.
const KindNewListing = "new_listing"

var validNext = map[string]map[string]bool{
	StatusPending: {StatusSent: true, StatusFailed: true},
	StatusSent:    {StatusDelivered: true, StatusBounced: true},
}

// KnownStatus reports whether s is a recognized delivery status.
func KnownStatus(s string) bool {
	switch s {
	case StatusPending, StatusSent, StatusFailed, StatusDelivered, StatusBounced:
		return true
	}
	return false
}

// ValidTransition reports whether from → to follows the expected lifecycle.
// Delivery systems report statuses out of order, so an invalid transition
// is logged and applied anyway rather than rejected.
func ValidTransition(from, to string) bool {
	return validNext[from][to]
}
