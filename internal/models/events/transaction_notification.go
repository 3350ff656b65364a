package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/models"
	"github.com/shopspring/decimal"
)

// TransactionNotification is the payload published when a transaction
// reaches a state the parties should hear about.
type TransactionNotification struct {
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Status        models.Status   `json:"status"`
	Receiver      string          `json:"receiver"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// NewTransactionNotification builds a notification from a transaction,
// converting the minor-unit amount to major units for display.
func NewTransactionNotification(tx *models.Transaction) TransactionNotification {
	return TransactionNotification{
		TransactionID: tx.UUID,
		Amount:        decimal.New(tx.AmountCents, -2),
		Currency:      strings.ToUpper(tx.Currency),
		Status:        tx.Status,
		Receiver:      fmt.Sprintf("user #%d", tx.ReceiverUserID),
		OccurredAt:    time.Now(),
	}
}
