package accounting

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every domain error wraps exactly one of these.
var (
	// ErrValidation indicates malformed or out-of-range input.
	ErrValidation = errors.New("accounting: validation failed")
	// ErrNotFound indicates a referenced record is absent.
	ErrNotFound = errors.New("accounting: not found")
	// ErrStateConflict indicates the current state forbids the action.
	ErrStateConflict = errors.New("accounting: state conflict")
	// ErrIntegrity indicates a store failure; the whole operation may be retried.
	ErrIntegrity = errors.New("accounting: integrity failure")
)

var (
	ErrInvalidAccountNumber   = fmt.Errorf("%w: account number must be numeric", ErrValidation)
	ErrInvalidAccountRange    = fmt.Errorf("%w: account number outside range for type", ErrValidation)
	ErrInvalidAccountType     = fmt.Errorf("%w: unknown account type", ErrValidation)
	ErrDuplicateAccountNumber = fmt.Errorf("%w: account number already exists", ErrValidation)
	ErrRangeExhausted         = fmt.Errorf("%w: no available account numbers for type", ErrValidation)
	ErrInvalidPeriodRange     = fmt.Errorf("%w: end date must be after start date", ErrValidation)
	ErrDateOutOfRange         = fmt.Errorf("%w: date outside period", ErrValidation)

	ErrAccountNotFound     = fmt.Errorf("%w: account", ErrNotFound)
	ErrParentNotFound      = fmt.Errorf("%w: parent account", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("%w: transaction", ErrNotFound)
	ErrPeriodNotFound      = fmt.Errorf("%w: period", ErrNotFound)
	ErrRecordNotFound      = fmt.Errorf("%w: subledger record", ErrNotFound)

	ErrCircularParentage      = fmt.Errorf("%w: cannot create circular parent-child relationship", ErrStateConflict)
	ErrSystemAccount          = fmt.Errorf("%w: system accounts cannot be archived or deleted", ErrStateConflict)
	ErrAccountHasChildren     = fmt.Errorf("%w: account has child accounts", ErrStateConflict)
	ErrAccountHasHistory      = fmt.Errorf("%w: account has transaction history, archive instead", ErrStateConflict)
	ErrTransactionBalanced    = fmt.Errorf("%w: balanced transactions cannot be modified", ErrStateConflict)
	ErrPeriodNotOpen          = fmt.Errorf("%w: period is not open", ErrStateConflict)
	ErrPeriodOverlap          = fmt.Errorf("%w: period dates overlap with existing period", ErrStateConflict)
	ErrPeriodHasTransactions  = fmt.Errorf("%w: period has transactions", ErrStateConflict)
	ErrUnbalancedTransactions = fmt.Errorf("%w: period has unbalanced transactions", ErrStateConflict)
	ErrInvalidTransition      = fmt.Errorf("%w: invalid period status transition", ErrStateConflict)
	ErrCloseInProgress        = fmt.Errorf("%w: period close already in progress", ErrStateConflict)
)

// ValidationError carries field-level messages for a rejected input.
type ValidationError struct {
	Op       string
	Errors   []string
	Warnings []string
}

// NewValidationError builds a ValidationError for op.
func NewValidationError(op string, errs []string, warnings []string) *ValidationError {
	return &ValidationError{Op: op, Errors: errs, Warnings: warnings}
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return ErrValidation.Error()
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(e.Errors, ", "))
}

// Unwrap exposes the validation kind.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// UnbalancedError reports how many transactions block a period close.
type UnbalancedError struct {
	PeriodID int64
	Count    int
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("accounting: cannot close period: %d transactions are not balanced", e.Count)
}

// Unwrap exposes the unbalanced sentinel.
func (e *UnbalancedError) Unwrap() error { return ErrUnbalancedTransactions }

// Integrity wraps a store failure unless it already carries a domain kind.
func Integrity(err error) error {
	if err == nil {
		return nil
	}
	if IsDomain(err) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrIntegrity, err)
}

// IsDomain reports whether err already maps to one of the error kinds.
func IsDomain(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrStateConflict) ||
		errors.Is(err, ErrIntegrity)
}
