package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	_ "github.com/odyssey-erp/odyssey-ledger/testing"
)

func TestRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"serialization", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "40P01"}), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
	}
	for _, tc := range cases {
		if got := Retryable(tc.err); got != tc.want {
			t.Fatalf("%s: Retryable = %v, want %v", tc.name, got, tc.want)
		}
	}
}
