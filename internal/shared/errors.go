package shared

import "errors"

var (
	// ErrIdempotencyConflict indicates the key was already processed.
	ErrIdempotencyConflict = errors.New("idempotent request already processed")
	// ErrIncompleteAuditLog indicates a log without action, entity or entity id.
	ErrIncompleteAuditLog = errors.New("audit log requires action/entity/entity_id")
)
