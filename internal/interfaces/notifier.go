package interfaces

import (
	"context"

	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/models/events"
)

// Notifier delivers transaction notifications. Send is best-effort and
// fire-and-forget: implementations log failures and never surface them
// into the caller's flow.
type Notifier interface {
	Send(ctx context.Context, note events.TransactionNotification)
}
