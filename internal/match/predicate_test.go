package match

import (
	"context"
	"fmt"
	"testing"

	"github.com/padwatch/padwatch-data/internal/commute"
	"github.com/padwatch/padwatch-data/internal/geo"
)

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func coordPtr(lat, lng float64) *geo.Coordinate {
	return &geo.Coordinate{Lat: lat, Lng: lng}
}

func testAreas() *geo.AreaTable {
	return geo.NewAreaTable(map[string][]string{
		"Brooklyn":  {"Williamsburg", "Bushwick", "Park Slope"},
		"Manhattan": {"Harlem", "Chelsea", "East Village"},
	})
}

// stubEstimator returns a fixed number of minutes, or an error.
type stubEstimator struct {
	minutes int
	err     error
	calls   int
}

func (s *stubEstimator) Estimate(ctx context.Context, origin, destination geo.Coordinate) (int, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.minutes, nil
}

func baseListing() Listing {
	return Listing{
		ID:          1,
		ExternalID:  "ext-1",
		Price:       2500,
		Bedrooms:    intPtr(2),
		Area:        strPtr("Williamsburg"),
		Coordinates: coordPtr(40.7081, -73.9571),
		PetsAllowed: boolPtr(true),
	}
}

func checkByName(t *testing.T, eval Evaluation, name string) CheckResult {
	t.Helper()
	for _, c := range eval.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q not in evaluation", name)
	return CheckResult{}
}

func TestEvaluateAllChecksAlwaysRun(t *testing.T) {
	p := NewPredicate(testAreas(), nil, nil, nil)

	// A pair failing multiple checks still reports all five results.
	listing := baseListing()
	listing.Price = 9000
	alert := Alert{
		ID:       1,
		UserID:   1,
		Areas:    []string{"Harlem"},
		MaxPrice: intPtr(3000),
	}

	eval := p.Evaluate(context.Background(), listing, alert)
	if eval.IsMatch {
		t.Fatal("expected no match")
	}
	if len(eval.Checks) != 5 {
		t.Fatalf("expected 5 check results, got %d", len(eval.Checks))
	}
	if checkByName(t, eval, CheckArea).Passed {
		t.Error("area check should fail")
	}
	if checkByName(t, eval, CheckPrice).Passed {
		t.Error("price check should fail")
	}
	// Checks with no alert criteria still report a pass.
	if !checkByName(t, eval, CheckBedrooms).Passed {
		t.Error("bedrooms check should pass with no requirement")
	}
	if !checkByName(t, eval, CheckPets).Passed {
		t.Error("pets check should pass with no requirement")
	}
	if !checkByName(t, eval, CheckCommute).Passed {
		t.Error("commute check should pass with no limit")
	}
}

func TestEvaluateConjunction(t *testing.T) {
	// Each case breaks exactly one check against an otherwise-matching
	// alert; the conjunction must fail and name the broken check.
	matching := Alert{
		ID:       1,
		UserID:   1,
		Areas:    []string{"Williamsburg"},
		MinPrice: intPtr(2000),
		MaxPrice: intPtr(3000),
		Bedrooms: intPtr(2),
	}

	cases := []struct {
		name      string
		mutate    func(*Listing, *Alert)
		failCheck string
	}{
		{
			name:      "wrong area",
			mutate:    func(l *Listing, a *Alert) { l.Area = strPtr("Harlem") },
			failCheck: CheckArea,
		},
		{
			name:      "price below minimum",
			mutate:    func(l *Listing, a *Alert) { l.Price = 1999 },
			failCheck: CheckPrice,
		},
		{
			name:      "price above maximum",
			mutate:    func(l *Listing, a *Alert) { l.Price = 3001 },
			failCheck: CheckPrice,
		},
		{
			name:      "bedroom mismatch",
			mutate:    func(l *Listing, a *Alert) { l.Bedrooms = intPtr(3) },
			failCheck: CheckBedrooms,
		},
		{
			name: "pets disallowed but required",
			mutate: func(l *Listing, a *Alert) {
				l.PetsAllowed = boolPtr(false)
				a.PetsRequired = boolPtr(true)
			},
			failCheck: CheckPets,
		},
	}

	p := NewPredicate(testAreas(), nil, nil, nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			listing := baseListing()
			alert := matching
			tc.mutate(&listing, &alert)

			eval := p.Evaluate(context.Background(), listing, alert)
			if eval.IsMatch {
				t.Fatal("expected no match")
			}
			failed := 0
			for _, c := range eval.Checks {
				if !c.Passed {
					failed++
					if c.Name != tc.failCheck {
						t.Errorf("unexpected failing check %q: %s", c.Name, c.Reason)
					}
				}
			}
			if failed != 1 {
				t.Errorf("expected exactly 1 failing check, got %d", failed)
			}
		})
	}
}

func TestEvaluateFullMatch(t *testing.T) {
	est := &stubEstimator{minutes: 25}
	p := NewPredicate(testAreas(), est, nil, nil)

	alert := Alert{
		ID:                1,
		UserID:            1,
		Areas:             []string{"Williamsburg", "Bushwick"},
		MinPrice:          intPtr(2000),
		MaxPrice:          intPtr(3000),
		Bedrooms:          intPtr(2),
		PetsRequired:      boolPtr(true),
		MaxCommuteMinutes: intPtr(30),
		Destination:       coordPtr(40.7484, -73.9857),
	}

	eval := p.Evaluate(context.Background(), baseListing(), alert)
	if !eval.IsMatch {
		t.Fatalf("expected match, failures: %v", eval.FailReasons())
	}
	if est.calls != 1 {
		t.Errorf("expected 1 estimator call, got %d", est.calls)
	}
}

func TestEvaluateScenarios(t *testing.T) {
	p := NewPredicate(testAreas(), nil, nil, nil)
	alert := Alert{
		ID:       1,
		UserID:   1,
		Areas:    []string{"Williamsburg"},
		MinPrice: intPtr(2000),
		MaxPrice: intPtr(3000),
		Bedrooms: intPtr(1),
	}

	t.Run("one bedroom in budget matches", func(t *testing.T) {
		listing := Listing{
			ID: 1, ExternalID: "ext-1",
			Price:       2500,
			Bedrooms:    intPtr(1),
			Area:        strPtr("Williamsburg"),
			PetsAllowed: boolPtr(false),
		}
		eval := p.Evaluate(context.Background(), listing, alert)
		if !eval.IsMatch {
			t.Fatalf("expected match, failures: %v", eval.FailReasons())
		}
		for _, c := range eval.Checks {
			if !c.Passed {
				t.Errorf("check %q failed: %s", c.Name, c.Reason)
			}
		}
	})

	t.Run("over budget fails only on price", func(t *testing.T) {
		listing := Listing{
			ID: 2, ExternalID: "ext-2",
			Price:    3500,
			Bedrooms: intPtr(1),
			Area:     strPtr("Williamsburg"),
		}
		eval := p.Evaluate(context.Background(), listing, alert)
		if eval.IsMatch {
			t.Fatal("expected no match")
		}
		for _, c := range eval.Checks {
			if c.Name == CheckPrice {
				if c.Passed {
					t.Error("price check should fail")
				}
				continue
			}
			if !c.Passed {
				t.Errorf("check %q should still pass: %s", c.Name, c.Reason)
			}
		}
	})
}

func TestCheckAreaTiers(t *testing.T) {
	cases := []struct {
		name        string
		listingArea *string
		alertAreas  []string
		want        bool
	}{
		{"no restriction passes", strPtr("Williamsburg"), nil, true},
		{"no restriction passes even without label", nil, nil, true},
		{"exact selection", strPtr("Williamsburg"), []string{"Williamsburg"}, true},
		{"exact selection is case-insensitive", strPtr("williamsburg"), []string{"Williamsburg"}, true},
		{"coarse listing matched by member area", strPtr("Brooklyn"), []string{"Williamsburg"}, true},
		{"coarse listing matched by coarse selection", strPtr("Brooklyn"), []string{"Brooklyn"}, true},
		{"coarse listing not matched by other borough's area", strPtr("Brooklyn"), []string{"Harlem"}, false},
		{"fine listing never widened to its borough", strPtr("Williamsburg"), []string{"Brooklyn"}, false},
		{"unselected area fails", strPtr("Bushwick"), []string{"Williamsburg"}, false},
		{"restricted alert fails listing without label", nil, []string{"Williamsburg"}, false},
		{"restricted alert fails empty label", strPtr(""), []string{"Williamsburg"}, false},
	}

	p := NewPredicate(testAreas(), nil, nil, nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			listing := baseListing()
			listing.Area = tc.listingArea
			alert := Alert{ID: 1, UserID: 1, Areas: tc.alertAreas}

			eval := p.Evaluate(context.Background(), listing, alert)
			got := checkByName(t, eval, CheckArea).Passed
			if got != tc.want {
				t.Errorf("area check = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCheckPriceInclusiveBounds(t *testing.T) {
	p := NewPredicate(testAreas(), nil, nil, nil)
	alert := Alert{ID: 1, UserID: 1, MinPrice: intPtr(2000), MaxPrice: intPtr(3000)}

	for price, want := range map[int]bool{
		1999: false,
		2000: true, // min is inclusive
		2500: true,
		3000: true, // max is inclusive
		3001: false,
	} {
		listing := baseListing()
		listing.Price = price
		eval := p.Evaluate(context.Background(), listing, alert)
		if got := checkByName(t, eval, CheckPrice).Passed; got != want {
			t.Errorf("price %d: check = %v, want %v", price, got, want)
		}
	}
}

func TestCheckBedroomsNilMeansStudio(t *testing.T) {
	p := NewPredicate(testAreas(), nil, nil, nil)

	listing := baseListing()
	listing.Bedrooms = nil

	studioAlert := Alert{ID: 1, UserID: 1, Bedrooms: intPtr(0)}
	eval := p.Evaluate(context.Background(), listing, studioAlert)
	if !checkByName(t, eval, CheckBedrooms).Passed {
		t.Error("nil bedrooms should match a studio requirement")
	}

	oneBedAlert := Alert{ID: 1, UserID: 1, Bedrooms: intPtr(1)}
	eval = p.Evaluate(context.Background(), listing, oneBedAlert)
	if checkByName(t, eval, CheckBedrooms).Passed {
		t.Error("nil bedrooms should not match a one-bedroom requirement")
	}
}

func TestCheckPetsUnspecifiedPolicyPasses(t *testing.T) {
	p := NewPredicate(testAreas(), nil, nil, nil)

	listing := baseListing()
	listing.PetsAllowed = nil
	alert := Alert{ID: 1, UserID: 1, PetsRequired: boolPtr(true)}

	eval := p.Evaluate(context.Background(), listing, alert)
	if !checkByName(t, eval, CheckPets).Passed {
		t.Error("unspecified pet policy should pass a pets-required alert")
	}

	// Explicitly required-false behaves like nil.
	alert.PetsRequired = boolPtr(false)
	listing.PetsAllowed = boolPtr(false)
	eval = p.Evaluate(context.Background(), listing, alert)
	if !checkByName(t, eval, CheckPets).Passed {
		t.Error("pets-not-required alert should pass a no-pets listing")
	}
}

func TestCheckCommute(t *testing.T) {
	commuteAlert := func(limit int) Alert {
		return Alert{
			ID: 1, UserID: 1,
			MaxCommuteMinutes: intPtr(limit),
			Destination:       coordPtr(40.7484, -73.9857),
		}
	}

	t.Run("within limit passes", func(t *testing.T) {
		p := NewPredicate(testAreas(), &stubEstimator{minutes: 30}, nil, nil)
		eval := p.Evaluate(context.Background(), baseListing(), commuteAlert(30))
		if !checkByName(t, eval, CheckCommute).Passed {
			t.Error("commute equal to the limit should pass")
		}
	})

	t.Run("over limit fails", func(t *testing.T) {
		p := NewPredicate(testAreas(), &stubEstimator{minutes: 31}, nil, nil)
		eval := p.Evaluate(context.Background(), baseListing(), commuteAlert(30))
		if checkByName(t, eval, CheckCommute).Passed {
			t.Error("commute over the limit should fail")
		}
	})

	t.Run("missing coordinates fail", func(t *testing.T) {
		p := NewPredicate(testAreas(), &stubEstimator{minutes: 5}, nil, nil)
		listing := baseListing()
		listing.Coordinates = nil
		eval := p.Evaluate(context.Background(), listing, commuteAlert(30))
		if checkByName(t, eval, CheckCommute).Passed {
			t.Error("listing without coordinates should fail a commute-restricted alert")
		}
	})

	t.Run("estimator unavailable passes permissively", func(t *testing.T) {
		est := &stubEstimator{err: fmt.Errorf("%w: timeout", commute.ErrUnavailable)}
		p := NewPredicate(testAreas(), est, nil, nil)
		eval := p.Evaluate(context.Background(), baseListing(), commuteAlert(30))
		if !checkByName(t, eval, CheckCommute).Passed {
			t.Error("estimator outage should not filter the listing out")
		}
	})

	t.Run("nil estimator passes permissively", func(t *testing.T) {
		p := NewPredicate(testAreas(), nil, nil, nil)
		eval := p.Evaluate(context.Background(), baseListing(), commuteAlert(30))
		if !checkByName(t, eval, CheckCommute).Passed {
			t.Error("missing estimator should not filter the listing out")
		}
	})

	t.Run("no limit skips the estimator", func(t *testing.T) {
		est := &stubEstimator{minutes: 120}
		p := NewPredicate(testAreas(), est, nil, nil)
		eval := p.Evaluate(context.Background(), baseListing(), Alert{ID: 1, UserID: 1})
		if !checkByName(t, eval, CheckCommute).Passed {
			t.Error("alert without a limit should pass")
		}
		if est.calls != 0 {
			t.Errorf("expected no estimator calls, got %d", est.calls)
		}
	})
}
