package ledger

import "testing"

func TestKnownStatus(t *testing.T) {
	for _, s := range []string{StatusPending, StatusSent, StatusFailed, StatusDelivered, StatusBounced} {
		if !KnownStatus(s) {
			t.Errorf("KnownStatus(%q) = false", s)
		}
	}
	for _, s := range []string{"", "queued", "SENT", "unknown"} {
		if KnownStatus(s) {
			t.Errorf("KnownStatus(%q) = true", s)
		}
	}
}

func TestValidTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusSent, true},
		{StatusPending, StatusFailed, true},
		{StatusSent, StatusDelivered, true},
		{StatusSent, StatusBounced, true},

		// Out of order: applied by UpdateStatus but flagged here.
		{StatusPending, StatusDelivered, false},
		{StatusSent, StatusPending, false},
		{StatusFailed, StatusSent, false},
		{StatusDelivered, StatusBounced, false},
		{StatusBounced, StatusDelivered, false},
	}
	for _, tc := range cases {
		if got := ValidTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("ValidTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
