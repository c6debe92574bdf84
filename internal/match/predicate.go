package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/padwatch/padwatch-data/internal/commute"
	"github.com/padwatch/padwatch-data/internal/geo"
	"github.com/padwatch/padwatch-data/internal/metrics"
)

// Check names, in evaluation order.
const (
	CheckArea     = "area"
	CheckPrice    = "price"
	CheckBedrooms = "bedrooms"
	CheckPets     = "pets"
	CheckCommute  = "commute"
)

// CommuteEstimator is the estimator surface the predicate depends on.
type CommuteEstimator interface {
	Estimate(ctx context.Context, origin, destination geo.Coordinate) (int, error)
}

// CheckResult is the outcome of one sub-check.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Reason string `json:"reason"`
}

// Evaluation is the full predicate outcome for one (listing, alert) pair.
// All five checks run regardless of early failures so diagnostics are
// complete; IsMatch is their conjunction.
type Evaluation struct {
	IsMatch bool          `json:"is_match"`
	Checks  []CheckResult `json:"checks"`
}

// FailReasons returns the reasons of all failing checks.
func (e Evaluation) FailReasons() []string {
	var reasons []string
	for _, c := range e.Checks {
		if !c.Passed {
			reasons = append(reasons, c.Reason)
		}
	}
	return reasons
}

// Predicate evaluates one listing against one alert. Missing data defaults
// toward inclusion except where a check structurally needs listing-side
// data (area, commute): incomplete upstream data should cost an occasional
// false positive, not a silent false negative.
type Predicate struct {
	areas     *geo.AreaTable
	estimator CommuteEstimator
	metrics   *metrics.Collector
	logger    *slog.Logger
}

// NewPredicate creates a predicate. estimator may be nil when no alert in
// the run carries a commute limit.
func NewPredicate(areas *geo.AreaTable, estimator CommuteEstimator, collector *metrics.Collector, logger *slog.Logger) *Predicate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Predicate{
		areas:     areas,
		estimator: estimator,
		metrics:   collector,
		logger:    logger,
	}
}

// Evaluate runs all five sub-checks and combines them by AND.
func (p *Predicate) Evaluate(ctx context.Context, listing Listing, alert Alert) Evaluation {
	checks := []CheckResult{
		p.checkArea(listing, alert),
		p.checkPrice(listing, alert),
		p.checkBedrooms(listing, alert),
		p.checkPets(listing, alert),
		p.checkCommute(ctx, listing, alert),
	}

	eval := Evaluation{IsMatch: true, Checks: checks}
	for _, c := range checks {
		if !c.Passed {
			eval.IsMatch = false
			p.metrics.RecordCheckFailure(c.Name)
		}
	}
	return eval
}

// checkArea passes when the alert has no area restriction, when the
// listing's label is selected directly, or — for listings that only carry
// a coarse borough label — when any selected area belongs to that borough
// or the borough itself is selected. A restricted alert fails against a
// listing with no label at all.
func (p *Predicate) checkArea(listing Listing, alert Alert) CheckResult {
	if len(alert.Areas) == 0 {
		return pass(CheckArea, "alert has no area restriction")
	}
	if listing.Area == nil || *listing.Area == "" {
		return fail(CheckArea, "listing has no area label but alert restricts areas")
	}
	label := *listing.Area

	// Tier 1: exact selection.
	for _, a := range alert.Areas {
		if strings.EqualFold(a, label) {
			return pass(CheckArea, fmt.Sprintf("area %q selected", label))
		}
	}

	// Tiers 2 and 3 apply only when the listing carries a coarse label.
	if p.areas.IsCoarse(label) {
		for _, a := range alert.Areas {
			if p.areas.Contains(label, a) {
				return pass(CheckArea, fmt.Sprintf("selected area %q is in %q", a, label))
			}
		}
	}

	return fail(CheckArea, fmt.Sprintf("area %q not among alert selections", label))
}

// checkPrice applies inclusive bounds; either bound may be absent.
func (p *Predicate) checkPrice(listing Listing, alert Alert) CheckResult {
	if alert.MinPrice == nil && alert.MaxPrice == nil {
		return pass(CheckPrice, "alert has no price bounds")
	}
	if alert.MinPrice != nil && listing.Price < *alert.MinPrice {
		return fail(CheckPrice, fmt.Sprintf("price %d below minimum %d", listing.Price, *alert.MinPrice))
	}
	if alert.MaxPrice != nil && listing.Price > *alert.MaxPrice {
		return fail(CheckPrice, fmt.Sprintf("price %d exceeds maximum %d", listing.Price, *alert.MaxPrice))
	}
	return pass(CheckPrice, fmt.Sprintf("price %d within bounds", listing.Price))
}

// checkBedrooms treats a listing with unknown bedrooms as a studio. The
// coercion happens only here, never in storage.
func (p *Predicate) checkBedrooms(listing Listing, alert Alert) CheckResult {
	if alert.Bedrooms == nil {
		return pass(CheckBedrooms, "alert has no bedroom requirement")
	}
	bedrooms := 0
	if listing.Bedrooms != nil {
		bedrooms = *listing.Bedrooms
	}
	if bedrooms != *alert.Bedrooms {
		return fail(CheckBedrooms, fmt.Sprintf("bedrooms %d != required %d", bedrooms, *alert.Bedrooms))
	}
	return pass(CheckBedrooms, fmt.Sprintf("bedrooms %d match", bedrooms))
}

// checkPets fails only when the alert requires pets and the listing
// explicitly disallows them. An unspecified listing policy passes —
// absence of data must not exclude a listing.
func (p *Predicate) checkPets(listing Listing, alert Alert) CheckResult {
	if alert.PetsRequired == nil || !*alert.PetsRequired {
		return pass(CheckPets, "alert indifferent to pets")
	}
	if listing.PetsAllowed != nil && !*listing.PetsAllowed {
		return fail(CheckPets, "alert requires pets but listing disallows them")
	}
	if listing.PetsAllowed == nil {
		return pass(CheckPets, "listing pet policy unspecified, passing permissively")
	}
	return pass(CheckPets, "listing allows pets")
}

// checkCommute passes immediately without a limit, fails when the listing
// has no coordinates, and passes permissively when the estimator is
// unavailable — never filter a listing out due to an external outage.
func (p *Predicate) checkCommute(ctx context.Context, listing Listing, alert Alert) CheckResult {
	if alert.MaxCommuteMinutes == nil || alert.Destination == nil {
		return pass(CheckCommute, "alert has no commute limit")
	}
	if listing.Coordinates == nil {
		return fail(CheckCommute, "listing has no coordinates, cannot estimate commute")
	}
	if p.estimator == nil {
		return pass(CheckCommute, "no estimator configured, passing permissively")
	}

	minutes, err := p.estimator.Estimate(ctx, *listing.Coordinates, *alert.Destination)
	if err != nil {
		if !errors.Is(err, commute.ErrUnavailable) {
			p.logger.Warn("commute estimate failed", "listing", listing.ExternalID, "error", err)
		}
		return pass(CheckCommute, "commute estimate unavailable, passing permissively")
	}

	if minutes > *alert.MaxCommuteMinutes {
		return fail(CheckCommute, fmt.Sprintf("commute %d min exceeds limit %d", minutes, *alert.MaxCommuteMinutes))
	}
	return pass(CheckCommute, fmt.Sprintf("commute %d min within limit %d", minutes, *alert.MaxCommuteMinutes))
}

func pass(name, reason string) CheckResult {
	return CheckResult{Name: name, Passed: true, Reason: reason}
}

func fail(name, reason string) CheckResult {
	return CheckResult{Name: name, Passed: false, Reason: reason}
}
