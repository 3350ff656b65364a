package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a transaction lookup matches nothing.
	ErrNotFound = errors.New("transaction not found")
	// ErrDuplicateKey is returned when an insert violates the
	// idempotency-key uniqueness constraint.
	ErrDuplicateKey = errors.New("idempotency key already exists")
)

// ValidationError reports rejected input. No side effects have occurred.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// InvalidStateError reports an operation not permitted in the transaction's
// current status.
type InvalidStateError struct {
	Op     string
	Status Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s transaction in %s status", e.Op, e.Status)
}

// ProcessorError reports a failed call to the payment processor.
type ProcessorError struct {
	Op      string
	Message string
}

func (e *ProcessorError) Error() string {
	return fmt.Sprintf("processor %s failed: %s", e.Op, e.Message)
}
