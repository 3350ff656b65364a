package models

import "time"

// Status is the local lifecycle status of a transaction.
type Status string

const (
	StatusPending     Status = "pending"
	StatusUnderReview Status = "under_review"
	StatusSuccessful  Status = "successful"
	StatusFailed      Status = "failed"
	StatusCancelled   Status = "cancelled"
	StatusStuck       Status = "stuck"
)

// Terminal reports whether the status can no longer be changed by
// reconciliation. Stuck is terminal for automation: only manual
// intervention moves a transaction out of it.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccessful, StatusFailed, StatusCancelled, StatusStuck:
		return true
	}
	return false
}

// UnresolvedStatuses are the statuses the reconciliation scheduler scans for.
var UnresolvedStatuses = []Status{StatusPending, StatusUnderReview}

// ProcessorStatus is the payment processor's own status for an intent.
type ProcessorStatus string

const (
	ProcessorSucceeded             ProcessorStatus = "succeeded"
	ProcessorCanceled              ProcessorStatus = "canceled"
	ProcessorRequiresPaymentMethod ProcessorStatus = "requires_payment_method"
	ProcessorRequiresAction        ProcessorStatus = "requires_action"
	ProcessorRequiresConfirmation  ProcessorStatus = "requires_confirmation"
	ProcessorProcessing            ProcessorStatus = "processing"
)

// Transaction represents a monetary transfer between two users.
// Amounts are in minor currency units (cents).
type Transaction struct {
	ID                int64     `json:"transaction_id"`
	UUID              string    `json:"transaction_uuid"`
	AmountCents       int64     `json:"amount_cents"`
	Currency          string    `json:"currency"`
	Description       string    `json:"description,omitempty"`
	SenderUserID      int64     `json:"sender_user_id"`
	ReceiverUserID    int64     `json:"receiver_user_id"`
	IdempotencyKey    string    `json:"idempotency_key"`
	Status            Status    `json:"status"`
	ProcessorIntentID string    `json:"processor_intent_id,omitempty"`
	ErrorMessage      string    `json:"error_message,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ReconciliationAttempt is one append-only audit record of a reconciliation
// execution. ProcessorStatus is nil when the processor could not be reached
// (or was never called).
type ReconciliationAttempt struct {
	TransactionID   int64            `json:"transaction_id"`
	ProcessorStatus *ProcessorStatus `json:"processor_status"`
	StatusBefore    Status           `json:"status_before"`
	StatusAfter     Status           `json:"status_after"`
	ErrorMessage    string           `json:"error_message,omitempty"`
	CheckedAt       time.Time        `json:"checked_at"`
}

// ReconciliationJob is one queued unit of reconciliation work. Attempt counts
// failed executions so far; the queue owns the job for its lifetime.
type ReconciliationJob struct {
	TransactionID int64 `json:"transaction_id"`
	Attempt       int   `json:"attempt"`
}

// TransactionFilter narrows a paged listing. Zero values mean "no filter".
type TransactionFilter struct {
	Status       Status
	SenderUserID int64
	Page         int
	Limit        int
}
