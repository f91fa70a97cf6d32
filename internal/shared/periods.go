package shared

import "errors"

// Period statuses reused outside the accounting module.
const (
	PeriodStatusOpen   = "OPEN"
	PeriodStatusClosed = "CLOSED"
	PeriodStatusLocked = "LOCKED"
)

// ErrInvalidPeriodTransition indicates status change not allowed.
var ErrInvalidPeriodTransition = errors.New("period transition invalid")

// ValidatePeriodTransition allows only OPEN → CLOSED and CLOSED → LOCKED. LOCKED
// is terminal and nothing moves backwards.
func ValidatePeriodTransition(current, target string) error {
	switch {
	case current == PeriodStatusOpen && target == PeriodStatusClosed:
		return nil
	case current == PeriodStatusClosed && target == PeriodStatusLocked:
		return nil
	}
	return ErrInvalidPeriodTransition
}
