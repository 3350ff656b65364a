package memory

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/models"
)

func insert(t *testing.T, store *MemoryTransactionStore, key string, age time.Duration) *models.Transaction {
	t.Helper()
	tx := &models.Transaction{
		AmountCents:    1000,
		Currency:       "usd",
		SenderUserID:   1,
		ReceiverUserID: 2,
		IdempotencyKey: key,
		CreatedAt:      time.Now().Add(-age),
	}
	if err := store.InsertPending(context.Background(), tx); err != nil {
		t.Fatalf("InsertPending: %v", err)
	}
	return tx
}

func TestInsertPendingDuplicateKey(t *testing.T) {
	store := NewMemoryTransactionStore()
	insert(t, store, "dup", 0)

	err := store.InsertPending(context.Background(), &models.Transaction{
		AmountCents:    500,
		Currency:       "usd",
		SenderUserID:   3,
		ReceiverUserID: 4,
		IdempotencyKey: "dup",
	})
	if !errors.Is(err, models.ErrDuplicateKey) {
		t.Errorf("error = %v, want ErrDuplicateKey", err)
	}
}

func TestFindByIDBothForms(t *testing.T) {
	store := NewMemoryTransactionStore()
	tx := insert(t, store, "lookup", 0)

	byNumeric, err := store.FindByID(context.Background(), strconv.FormatInt(tx.ID, 10))
	if err != nil {
		t.Fatalf("FindByID numeric: %v", err)
	}
	byUUID, err := store.FindByID(context.Background(), tx.UUID)
	if err != nil {
		t.Fatalf("FindByID uuid: %v", err)
	}
	if byNumeric.ID != tx.ID || byUUID.ID != tx.ID {
		t.Errorf("lookups returned %d and %d, want %d", byNumeric.ID, byUUID.ID, tx.ID)
	}

	if _, err := store.FindByID(context.Background(), "does-not-exist"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing lookup error = %v, want ErrNotFound", err)
	}
}

func TestUpdateStatusLockedRollsBackOnApplyError(t *testing.T) {
	store := NewMemoryTransactionStore()
	tx := insert(t, store, "rollback", 0)

	applyErr := errors.New("not allowed")
	_, err := store.UpdateStatusLocked(context.Background(), strconv.FormatInt(tx.ID, 10), func(cur *models.Transaction) error {
		cur.Status = models.StatusCancelled
		return applyErr
	})
	if !errors.Is(err, applyErr) {
		t.Fatalf("error = %v, want apply error", err)
	}

	got, _ := store.FindByID(context.Background(), strconv.FormatInt(tx.ID, 10))
	if got.Status != models.StatusPending {
		t.Errorf("status = %s after failed apply, want pending", got.Status)
	}
}

func TestFindStaleUnresolved(t *testing.T) {
	grace := 5 * time.Minute
	coolDown := 2 * time.Minute

	tests := []struct {
		name       string
		age        time.Duration
		attemptAge time.Duration // zero means no attempt
		want       bool
	}{
		{"created 1 minute ago", time.Minute, 0, false},
		{"created 10 minutes ago, no attempt", 10 * time.Minute, 0, true},
		{"attempt 1 minute ago", 10 * time.Minute, time.Minute, false},
		{"attempt 3 minutes ago", 10 * time.Minute, 3 * time.Minute, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryTransactionStore()
			tx := insert(t, store, "stale", tt.age)
			if tt.attemptAge != 0 {
				store.InsertAttempt(context.Background(), models.ReconciliationAttempt{
					TransactionID: tx.ID,
					CheckedAt:     time.Now().Add(-tt.attemptAge),
				})
			}

			got, err := store.FindStaleUnresolved(context.Background(), grace, coolDown, 100)
			if err != nil {
				t.Fatalf("FindStaleUnresolved: %v", err)
			}
			if selected := len(got) == 1; selected != tt.want {
				t.Errorf("selected = %v, want %v", selected, tt.want)
			}
		})
	}
}

// Only the most recent attempt counts against the cool-down: an old attempt
// followed by a fresh one keeps the transaction cooling.
func TestFindStaleUnresolvedUsesLatestAttempt(t *testing.T) {
	store := NewMemoryTransactionStore()
	tx := insert(t, store, "latest", 10*time.Minute)

	store.InsertAttempt(context.Background(), models.ReconciliationAttempt{
		TransactionID: tx.ID,
		CheckedAt:     time.Now().Add(-10 * time.Minute),
	})
	store.InsertAttempt(context.Background(), models.ReconciliationAttempt{
		TransactionID: tx.ID,
		CheckedAt:     time.Now().Add(-30 * time.Second),
	})

	got, err := store.FindStaleUnresolved(context.Background(), 5*time.Minute, 2*time.Minute, 100)
	if err != nil {
		t.Fatalf("FindStaleUnresolved: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("selected %d transactions, want 0", len(got))
	}
}

func TestFindStaleUnresolvedOrderAndLimit(t *testing.T) {
	store := NewMemoryTransactionStore()
	insert(t, store, "newer", 10*time.Minute)
	oldest := insert(t, store, "oldest", 30*time.Minute)
	middle := insert(t, store, "middle", 20*time.Minute)

	got, err := store.FindStaleUnresolved(context.Background(), 5*time.Minute, 2*time.Minute, 2)
	if err != nil {
		t.Fatalf("FindStaleUnresolved: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("selected %d transactions, want 2", len(got))
	}
	if got[0].ID != oldest.ID || got[1].ID != middle.ID {
		t.Errorf("order = [%d %d], want oldest first [%d %d]", got[0].ID, got[1].ID, oldest.ID, middle.ID)
	}
}

func TestListNewestFirstWithPagination(t *testing.T) {
	store := NewMemoryTransactionStore()
	insert(t, store, "a", 3*time.Minute)
	insert(t, store, "b", 2*time.Minute)
	newest := insert(t, store, "c", time.Minute)

	page1, total, err := store.List(context.Background(), models.TransactionFilter{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(page1) != 2 {
		t.Fatalf("page 1 size = %d, want 2", len(page1))
	}
	if page1[0].ID != newest.ID {
		t.Errorf("first listed id = %d, want newest %d", page1[0].ID, newest.ID)
	}

	page2, _, err := store.List(context.Background(), models.TransactionFilter{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("List page 2: %v", err)
	}
	if len(page2) != 1 {
		t.Errorf("page 2 size = %d, want 1", len(page2))
	}

	page3, _, err := store.List(context.Background(), models.TransactionFilter{Page: 3, Limit: 2})
	if err != nil {
		t.Fatalf("List page 3: %v", err)
	}
	if len(page3) != 0 {
		t.Errorf("page 3 size = %d, want 0", len(page3))
	}
}

func TestSetIntentID(t *testing.T) {
	store := NewMemoryTransactionStore()
	tx := insert(t, store, "intent", 0)

	if err := store.SetIntentID(context.Background(), tx.ID, "pi_abc"); err != nil {
		t.Fatalf("SetIntentID: %v", err)
	}
	got, _ := store.FindByID(context.Background(), strconv.FormatInt(tx.ID, 10))
	if got.ProcessorIntentID != "pi_abc" {
		t.Errorf("intent id = %q", got.ProcessorIntentID)
	}

	if err := store.SetIntentID(context.Background(), 999, "pi_xyz"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing transaction error = %v, want ErrNotFound", err)
	}
}
