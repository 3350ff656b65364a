package interfaces

import (
	"context"

	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/models"
)

// JobQueue accepts reconciliation jobs for asynchronous, at-least-once
// execution. Duplicate deliveries are possible; consumers must tolerate
// them.
type JobQueue interface {
	Enqueue(ctx context.Context, job models.ReconciliationJob) error
}
