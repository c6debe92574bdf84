// Package match evaluates listings against saved search alerts. The
// predicate runs five independent sub-checks and the batch matcher drives
// it over a listing/alert cross-product.
package match

import (
	"fmt"

	"github.com/padwatch/padwatch-data/internal/geo"
)

// Listing is one externally sourced apartment record. Listings are created
// by the ingestion pipeline and read-only here. Optional fields are nil
// when the source data did not carry them; nil is distinct from zero (a
// nil PetsAllowed means unspecified, not disallowed).
type Listing struct {
	ID          int64
	ExternalID  string
	Price       int // whole currency units
	Bedrooms    *int
	Area        *string // neighborhood or borough label
	Coordinates *geo.Coordinate
	PetsAllowed *bool
}

// Alert is a user's saved search criteria, snapshotted with the owning
// user's email for delivery. Nil bounds mean unbounded; an empty Areas
// list means no area restriction.
type Alert struct {
	ID        int64
	UserID    int64
	UserEmail string

	Areas             []string
	MinPrice          *int
	MaxPrice          *int
	Bedrooms          *int  // nil = any; 0 = studio, exact match
	PetsRequired      *bool // nil = don't care; true = listing must allow pets
	MaxCommuteMinutes *int
	Destination       *geo.Coordinate
}

// ValidateListing rejects records that cannot participate in matching.
// Invalid records are skipped with a diagnostic; the batch continues.
func ValidateListing(l Listing) error {
	if l.ExternalID == "" {
		return fmt.Errorf("listing %d: empty external id", l.ID)
	}
	if l.Price <= 0 {
		return fmt.Errorf("listing %s: non-positive price %d", l.ExternalID, l.Price)
	}
	return nil
}

// ValidateAlert rejects alerts with structurally inconsistent criteria.
// A commute limit and its destination are required together.
func ValidateAlert(a Alert) error {
	if (a.MaxCommuteMinutes != nil) != (a.Destination != nil) {
		return fmt.Errorf("alert %d: commute limit and destination must be set together", a.ID)
	}
	if a.MinPrice != nil && a.MaxPrice != nil && *a.MinPrice > *a.MaxPrice {
		return fmt.Errorf("alert %d: min price %d exceeds max price %d", a.ID, *a.MinPrice, *a.MaxPrice)
	}
	return nil
}
