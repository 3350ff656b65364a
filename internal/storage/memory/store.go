package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/interfaces"
	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/models"
)

// MemoryTransactionStore is an in-memory implementation of
// interfaces.TransactionStore for development and tests. The store mutex is
// the row lock: UpdateStatusLocked holds it across the whole
// check-then-act sequence.
type MemoryTransactionStore struct {
	mu       sync.Mutex
	nextID   int64
	byID     map[int64]*models.Transaction
	byKey    map[string]int64
	byUUID   map[string]int64
	attempts []models.ReconciliationAttempt
}

func NewMemoryTransactionStore() *MemoryTransactionStore {
	return &MemoryTransactionStore{
		byID:   make(map[int64]*models.Transaction),
		byKey:  make(map[string]int64),
		byUUID: make(map[string]int64),
	}
}

func (m *MemoryTransactionStore) FindByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byKey[key]
	if !ok {
		return nil, models.ErrNotFound
	}
	return clone(m.byID[id]), nil
}

func (m *MemoryTransactionStore) InsertPending(ctx context.Context, tx *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byKey[tx.IdempotencyKey]; exists {
		return models.ErrDuplicateKey
	}

	m.nextID++
	tx.ID = m.nextID
	tx.UUID = uuid.New().String()
	tx.Status = models.StatusPending
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	tx.UpdatedAt = tx.CreatedAt

	m.byID[tx.ID] = clone(tx)
	m.byKey[tx.IdempotencyKey] = tx.ID
	m.byUUID[tx.UUID] = tx.ID
	return nil
}

func (m *MemoryTransactionStore) SetIntentID(ctx context.Context, id int64, intentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	tx.ProcessorIntentID = intentID
	tx.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryTransactionStore) MarkFailed(ctx context.Context, id int64, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	tx.Status = models.StatusFailed
	tx.ErrorMessage = msg
	tx.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryTransactionStore) FindByID(ctx context.Context, ref string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.lookup(ref)
	if !ok {
		return nil, models.ErrNotFound
	}
	return clone(tx), nil
}

func (m *MemoryTransactionStore) UpdateStatusLocked(ctx context.Context, ref string, apply func(tx *models.Transaction) error) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.lookup(ref)
	if !ok {
		return nil, models.ErrNotFound
	}

	updated := clone(tx)
	if err := apply(updated); err != nil {
		return nil, err
	}

	tx.Status = updated.Status
	tx.ErrorMessage = updated.ErrorMessage
	tx.UpdatedAt = time.Now()
	updated.UpdatedAt = tx.UpdatedAt
	return updated, nil
}

func (m *MemoryTransactionStore) List(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []models.Transaction
	for _, tx := range m.byID {
		if filter.Status != "" && tx.Status != filter.Status {
			continue
		}
		if filter.SenderUserID != 0 && tx.SenderUserID != filter.SenderUserID {
			continue
		}
		matched = append(matched, *clone(tx))
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	offset := (filter.Page - 1) * filter.Limit
	if offset >= total {
		return nil, total, nil
	}
	end := offset + filter.Limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (m *MemoryTransactionStore) InsertAttempt(ctx context.Context, attempt models.ReconciliationAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if attempt.CheckedAt.IsZero() {
		attempt.CheckedAt = time.Now()
	}
	m.attempts = append(m.attempts, attempt)
	return nil
}

// Attempts returns a copy of the attempt log for a transaction.
func (m *MemoryTransactionStore) Attempts(transactionID int64) []models.ReconciliationAttempt {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []models.ReconciliationAttempt
	for _, a := range m.attempts {
		if a.TransactionID == transactionID {
			result = append(result, a)
		}
	}
	return result
}

func (m *MemoryTransactionStore) FindStaleUnresolved(ctx context.Context, grace, coolDown time.Duration, limit int) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var candidates []models.Transaction
	for _, tx := range m.byID {
		if tx.Status != models.StatusPending && tx.Status != models.StatusUnderReview {
			continue
		}
		if now.Sub(tx.CreatedAt) < grace {
			continue
		}
		if last, ok := m.lastAttempt(tx.ID); ok && now.Sub(last) < coolDown {
			continue
		}
		candidates = append(candidates, *clone(tx))
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func (m *MemoryTransactionStore) lookup(ref string) (*models.Transaction, bool) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		tx, ok := m.byID[id]
		return tx, ok
	}
	id, ok := m.byUUID[ref]
	if !ok {
		return nil, false
	}
	return m.byID[id], true
}

func (m *MemoryTransactionStore) lastAttempt(transactionID int64) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, a := range m.attempts {
		if a.TransactionID == transactionID && a.CheckedAt.After(latest) {
			latest = a.CheckedAt
			found = true
		}
	}
	return latest, found
}

func clone(tx *models.Transaction) *models.Transaction {
	copied := *tx
	return &copied
}

// Compile-time check: MemoryTransactionStore implements TransactionStore.
var _ interfaces.TransactionStore = (*MemoryTransactionStore)(nil)
