package interfaces

import (
	"context"

	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/models"
)

// ProcessorGateway wraps the payment processor's intent API. Failed calls
// return *models.ProcessorError.
type ProcessorGateway interface {
	CreateIntent(ctx context.Context, req models.IntentRequest) (*models.Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*models.IntentState, error)
	CancelIntent(ctx context.Context, intentID string) error
}
