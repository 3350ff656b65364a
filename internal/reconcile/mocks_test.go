package reconcile

import (
	"context"
	"sync"

	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/models"
	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/models/events"
)

// mockGateway implements interfaces.ProcessorGateway for testing.
type mockGateway struct {
	mu sync.Mutex

	CreateIntentFunc   func(ctx context.Context, req models.IntentRequest) (*models.Intent, error)
	RetrieveIntentFunc func(ctx context.Context, intentID string) (*models.IntentState, error)
	CancelIntentFunc   func(ctx context.Context, intentID string) error

	CreateCalls   int
	RetrieveCalls int
	CancelCalls   int
}

func (m *mockGateway) CreateIntent(ctx context.Context, req models.IntentRequest) (*models.Intent, error) {
	m.mu.Lock()
	m.CreateCalls++
	m.mu.Unlock()
	if m.CreateIntentFunc != nil {
		return m.CreateIntentFunc(ctx, req)
	}
	return &models.Intent{ID: "pi_test", ClientSecret: "secret_test"}, nil
}

func (m *mockGateway) RetrieveIntent(ctx context.Context, intentID string) (*models.IntentState, error) {
	m.mu.Lock()
	m.RetrieveCalls++
	m.mu.Unlock()
	if m.RetrieveIntentFunc != nil {
		return m.RetrieveIntentFunc(ctx, intentID)
	}
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

// mockNotifier records sent notifications.
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

// mockQueue records enqueued jobs and can be made to fail.
type mockQueue struct {
	mu          sync.Mutex
	EnqueueFunc func(ctx context.Context, job models.ReconciliationJob) error
	Jobs        []models.ReconciliationJob
	Calls       int
}

func (m *mockQueue) Enqueue(ctx context.Context, job models.ReconciliationJob) error {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.EnqueueFunc != nil {
		if err := m.EnqueueFunc(ctx, job); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Jobs = append(m.Jobs, job)
	m.mu.Unlock()
	return nil
}
