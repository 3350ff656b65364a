package interfaces

import (
	"context"
	"time"

	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/models"
)

// TransactionStore is the durable system of record for transactions and
// their reconciliation-attempt log.
type TransactionStore interface {
	// FindByIdempotencyKey returns the transaction for a client-supplied
	// idempotency key, or models.ErrNotFound.
	FindByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error)

	// InsertPending persists a new transaction in pending status, filling
	// in ID, UUID, CreatedAt and UpdatedAt. A duplicate idempotency key
	// returns models.ErrDuplicateKey.
	InsertPending(ctx context.Context, tx *models.Transaction) error

	// SetIntentID records the processor intent id. Set at most once.
	SetIntentID(ctx context.Context, id int64, intentID string) error

	// MarkFailed moves the transaction to failed with an error message.
	MarkFailed(ctx context.Context, id int64, msg string) error

	// FindByID looks a transaction up by numeric id or external UUID.
	FindByID(ctx context.Context, ref string) (*models.Transaction, error)

	// UpdateStatusLocked loads the transaction with a row lock, runs apply
	// on it, and commits the resulting status and error message. If apply
	// returns an error nothing is written and that error is returned.
	// Cancel and the reconciliation worker both go through here so their
	// check-then-act sequences serialize on the row.
	UpdateStatusLocked(ctx context.Context, ref string, apply func(tx *models.Transaction) error) (*models.Transaction, error)

	// List returns one page of transactions, newest first, plus the total
	// count matching the filter.
	List(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, int, error)

	// InsertAttempt appends one reconciliation-attempt audit record.
	InsertAttempt(ctx context.Context, attempt models.ReconciliationAttempt) error

	// FindStaleUnresolved returns up to limit unresolved transactions,
	// oldest first, that are older than grace and whose most recent
	// reconciliation attempt (if any) is older than coolDown.
	FindStaleUnresolved(ctx context.Context, grace, coolDown time.Duration, limit int) ([]models.Transaction, error)
}
