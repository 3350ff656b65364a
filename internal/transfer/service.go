package transfer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/interfaces"
	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/models"
	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/models/events"
)

// Service is the transaction lifecycle manager. It creates transactions
// idempotently, cancels pending ones, and exposes the read APIs. All
// collaborators are injected so the service can be tested with fakes.
type Service struct {
	store     interfaces.TransactionStore
	processor interfaces.ProcessorGateway
	notifier  interfaces.Notifier
}

func NewService(store interfaces.TransactionStore, processor interfaces.ProcessorGateway, notifier interfaces.Notifier) *Service {
	return &Service{
		store:     store,
		processor: processor,
		notifier:  notifier,
	}
}

// CreateRequest carries the caller's input for a new transaction.
// AmountCents is in minor currency units.
type CreateRequest struct {
	AmountCents    int64
	Currency       string
	Description    string
	SenderUserID   int64
	ReceiverUserID int64
	IdempotencyKey string
}

// CreateResult is the outcome of Create. Replayed is true when the
// idempotency key matched an existing transaction and nothing new was done.
type CreateResult struct {
	Transaction  *models.Transaction
	ClientSecret string
	Replayed     bool
}

func (r CreateRequest) validate() error {
	if r.AmountCents <= 0 {
		return &models.ValidationError{Reason: "amount_cents must be a positive integer"}
	}
	if r.Currency == "" {
		return &models.ValidationError{Reason: "currency is required"}
	}
	if r.SenderUserID == 0 {
		return &models.ValidationError{Reason: "sender_user_id is required"}
	}
	if r.ReceiverUserID == 0 {
		return &models.ValidationError{Reason: "receiver_user_id is required"}
	}
	if r.SenderUserID == r.ReceiverUserID {
		return &models.ValidationError{Reason: "sender and receiver cannot be the same"}
	}
	if r.IdempotencyKey == "" {
		return &models.ValidationError{Reason: "idempotency_key is required"}
	}
	return nil
}

// Create records a transaction and opens a payment intent on the processor.
// The local row is inserted before the processor call so a crash between the
// two still leaves a pending row the reconciliation scheduler will find.
// Resubmitting the same idempotency key returns the original transaction
// unchanged with no new processor call, whatever state it ended up in.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	req.Currency = strings.ToLower(strings.TrimSpace(req.Currency))
	req.Description = strings.TrimSpace(req.Description)
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)

	if err := req.validate(); err != nil {
		return nil, err
	}

	existing, err := s.store.FindByIdempotencyKey(ctx, req.IdempotencyKey)
	if err == nil {
		log.Printf("[Transfer] idempotent request detected: %s", req.IdempotencyKey)
		return &CreateResult{Transaction: existing, Replayed: true}, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}

	tx := &models.Transaction{
		AmountCents:    req.AmountCents,
		Currency:       req.Currency,
		Description:    req.Description,
		SenderUserID:   req.SenderUserID,
		ReceiverUserID: req.ReceiverUserID,
		IdempotencyKey: req.IdempotencyKey,
		Status:         models.StatusPending,
	}

	if err := s.store.InsertPending(ctx, tx); err != nil {
		// A concurrent request with the same key won the insert race.
		// Return its transaction; it owns the processor call.
		if errors.Is(err, models.ErrDuplicateKey) {
			existing, lookupErr := s.store.FindByIdempotencyKey(ctx, req.IdempotencyKey)
			if lookupErr != nil {
				return nil, fmt.Errorf("idempotency lookup after duplicate insert: %w", lookupErr)
			}
			log.Printf("[Transfer] idempotent request detected (insert race): %s", req.IdempotencyKey)
			return &CreateResult{Transaction: existing, Replayed: true}, nil
		}
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	log.Printf("[Transfer] transaction created: %d", tx.ID)

	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Payment from user:%d", req.SenderUserID)
	}

	intent, err := s.processor.CreateIntent(ctx, models.IntentRequest{
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Description: description,
		Metadata: map[string]string{
			"transaction_id":   fmt.Sprintf("%d", tx.ID),
			"sender_user_id":   fmt.Sprintf("%d", req.SenderUserID),
			"receiver_user_id": fmt.Sprintf("%d", req.ReceiverUserID),
		},
	})
	if err != nil {
		if markErr := s.store.MarkFailed(ctx, tx.ID, err.Error()); markErr != nil {
			log.Printf("[Transfer] failed to mark transaction %d failed: %v", tx.ID, markErr)
		} else {
			tx.Status = models.StatusFailed
			tx.ErrorMessage = err.Error()
			s.notifier.Send(ctx, events.NewTransactionNotification(tx))
		}
		return nil, err
	}
	log.Printf("[Transfer] payment intent created: %s", intent.ID)

	if err := s.store.SetIntentID(ctx, tx.ID, intent.ID); err != nil {
		// The row is still pending without an intent reference; the
		// scheduler will pick it up and resolve it.
		return nil, fmt.Errorf("record intent id: %w", err)
	}
	tx.ProcessorIntentID = intent.ID

	return &CreateResult{Transaction: tx, ClientSecret: intent.ClientSecret}, nil
}

// GetByID looks up a transaction by its numeric id or external UUID.
func (s *Service) GetByID(ctx context.Context, ref string) (*models.Transaction, error) {
	return s.store.FindByID(ctx, ref)
}

// ListResult is one page of transactions with pagination metadata.
type ListResult struct {
	Transactions []models.Transaction
	Total        int
	Page         int
	Limit        int
}

// Pages is the total page count for the listing.
func (r ListResult) Pages() int {
	if r.Limit == 0 {
		return 0
	}
	return (r.Total + r.Limit - 1) / r.Limit
}

// List returns transactions newest first, filterable by status and sender.
// Page is clamped to >= 1 and limit to [1, 100].
func (s *Service) List(ctx context.Context, filter models.TransactionFilter) (*ListResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}

	txs, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Transactions: txs,
		Total:        total,
		Page:         filter.Page,
		Limit:        filter.Limit,
	}, nil
}

// Cancel moves a pending transaction to cancelled. The row stays locked for
// the whole check-and-update so a concurrent reconciliation cannot race the
// cancel to a different terminal state. A processor-side cancellation
// failure is logged but does not block the local cancel: the local record
// is authoritative for the cancel outcome and the scheduler reconciles any
// processor-side divergence.
func (s *Service) Cancel(ctx context.Context, ref string) (*models.Transaction, error) {
	return s.store.UpdateStatusLocked(ctx, ref, func(tx *models.Transaction) error {
		if tx.Status != models.StatusPending {
			return &models.InvalidStateError{Op: "cancel", Status: tx.Status}
		}
		if tx.ProcessorIntentID != "" {
			if err := s.processor.CancelIntent(ctx, tx.ProcessorIntentID); err != nil {
				log.Printf("[Transfer] processor cancellation failed for intent %s: %v", tx.ProcessorIntentID, err)
			} else {
				log.Printf("[Transfer] payment intent cancelled: %s", tx.ProcessorIntentID)
			}
		}
		tx.Status = models.StatusCancelled
		return nil
	})
}
