package transfer

import (
	"context"
	"sync"

	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/models"
	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/models/events"
)

type mockGateway struct {
	mu sync.Mutex

	CreateIntentFunc func(ctx context.Context, req models.IntentRequest) (*models.Intent, error)
	CancelIntentFunc func(ctx context.Context, intentID string) error

	CreateCalls int
	CancelCalls int
	LastCreate  models.IntentRequest
}

func (m *mockGateway) CreateIntent(ctx context.Context, req models.IntentRequest) (*models.Intent, error) {
	m.mu.Lock()
	m.CreateCalls++
	m.LastCreate = req
	m.mu.Unlock()
	if m.CreateIntentFunc != nil {
		return m.CreateIntentFunc(ctx, req)
	}
	return &models.Intent{ID: "pi_test", ClientSecret: "secret_test"}, nil
}

func (m *mockGateway) RetrieveIntent(ctx context.Context, intentID string) (*models.IntentState, error) {
	return &models.IntentState{Status: models.ProcessorProcessing}, nil
}

func (m *mockGateway) CancelIntent(ctx context.Context, intentID string) error {
	m.mu.Lock()
	m.CancelCalls++
	m.mu.Unlock()
	if m.CancelIntentFunc != nil {
		return m.CancelIntentFunc(ctx, intentID)
	}
	return nil
}

func (m *mockGateway) createCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CreateCalls
}

type mockNotifier struct {
	mu   sync.Mutex
	Sent []events.TransactionNotification
}

func (m *mockNotifier) Send(ctx context.Context, note events.TransactionNotification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, note)
}

func (m *mockNotifier) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
