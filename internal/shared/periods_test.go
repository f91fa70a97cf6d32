package shared

import (
	"testing"

	_ "github.com/odyssey-erp/odyssey-ledger/testing"
)

func TestValidatePeriodTransition(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{PeriodStatusOpen, PeriodStatusClosed, true},
		{PeriodStatusClosed, PeriodStatusLocked, true},
		{PeriodStatusOpen, PeriodStatusLocked, false},
		{PeriodStatusClosed, PeriodStatusOpen, false},
		{PeriodStatusLocked, PeriodStatusClosed, false},
		{PeriodStatusLocked, PeriodStatusOpen, false},
		{PeriodStatusOpen, PeriodStatusOpen, false},
	}
	for _, tc := range cases {
		err := ValidatePeriodTransition(tc.from, tc.to)
		if tc.ok && err != nil {
			t.Fatalf("%s → %s: unexpected error %v", tc.from, tc.to, err)
		}
		if !tc.ok && err != ErrInvalidPeriodTransition {
			t.Fatalf("%s → %s: expected ErrInvalidPeriodTransition, got %v", tc.from, tc.to, err)
		}
	}
}

func TestPeriodCloseLockKey(t *testing.T) {
	if got := PeriodCloseLockKey(42); got != "ledger:period:42:close" {
		t.Fatalf("unexpected key %q", got)
	}
}
