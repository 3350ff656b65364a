package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/interfaces"
	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/models"
	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/models/events"
)

const missingIntentMessage = "missing processor reference"

// errAlreadyResolved aborts a locked update when the row reached a terminal
// status between the worker's read and its write.
var errAlreadyResolved = errors.New("transaction already resolved")

// Worker executes one reconciliation job per Process call: it fetches the
// processor's truth for the transaction's intent, maps it onto the local
// status, persists the transition, appends an attempt record and fires
// notifications for resolved outcomes. Errors returned from Process are
// retried by the queue per the policy; Escalate is invoked once the retry
// budget is exhausted.
type Worker struct {
	store     interfaces.TransactionStore
	processor interfaces.ProcessorGateway
	notifier  interfaces.Notifier
}

func NewWorker(store interfaces.TransactionStore, processor interfaces.ProcessorGateway, notifier interfaces.Notifier) *Worker {
	return &Worker{
		store:     store,
		processor: processor,
		notifier:  notifier,
	}
}

// Process reconciles a single transaction against the processor. Every
// execution, whatever its outcome, appends one ReconciliationAttempt; the
// scheduler's cool-down reads that log.
func (w *Worker) Process(ctx context.Context, job models.ReconciliationJob) error {
	ref := strconv.FormatInt(job.TransactionID, 10)
	log.Printf("[Reconciliation] processing transaction %d", job.TransactionID)

	tx, err := w.store.FindByID(ctx, ref)
	if errors.Is(err, models.ErrNotFound) {
		log.Printf("[Reconciliation] transaction %d not found", job.TransactionID)
		return nil
	}
	if err != nil {
		w.logAttempt(ctx, models.ReconciliationAttempt{
			TransactionID: job.TransactionID,
			ErrorMessage:  err.Error(),
		})
		return err
	}

	if tx.Status.Terminal() {
		log.Printf("[Reconciliation] transaction %d already resolved: %s", tx.ID, tx.Status)
		w.logAttempt(ctx, models.ReconciliationAttempt{
			TransactionID: tx.ID,
			StatusBefore:  tx.Status,
			StatusAfter:   tx.Status,
		})
		return nil
	}

	if tx.ProcessorIntentID == "" {
		log.Printf("[Reconciliation] transaction %d has no processor intent id, marking as failed", tx.ID)
		return w.applyOutcome(ctx, tx, nil, Outcome{
			Next:         models.StatusFailed,
			Notify:       true,
			ErrorMessage: missingIntentMessage,
		})
	}

	state, err := w.processor.RetrieveIntent(ctx, tx.ProcessorIntentID)
	if err != nil {
		w.logAttempt(ctx, models.ReconciliationAttempt{
			TransactionID: tx.ID,
			StatusBefore:  tx.Status,
			StatusAfter:   tx.Status,
			ErrorMessage:  err.Error(),
		})
		return err
	}
	log.Printf("[Reconciliation] processor status for transaction %d: %s", tx.ID, state.Status)

	ps := state.Status
	out, ok := resolve(state.Status, state.LastError)
	if !ok {
		log.Printf("[Reconciliation] unrecognized processor status for transaction %d: %s", tx.ID, state.Status)
		w.logAttempt(ctx, models.ReconciliationAttempt{
			TransactionID:   tx.ID,
			ProcessorStatus: &ps,
			StatusBefore:    tx.Status,
			StatusAfter:     tx.Status,
		})
		return nil
	}

	if out.Next == tx.Status {
		w.logAttempt(ctx, models.ReconciliationAttempt{
			TransactionID:   tx.ID,
			ProcessorStatus: &ps,
			StatusBefore:    tx.Status,
			StatusAfter:     tx.Status,
		})
		return nil
	}

	return w.applyOutcome(ctx, tx, &ps, out)
}

// applyOutcome commits a status transition under the row lock, records the
// attempt and notifies for resolved outcomes. A transaction that turned
// terminal since the read is left untouched.
func (w *Worker) applyOutcome(ctx context.Context, tx *models.Transaction, ps *models.ProcessorStatus, out Outcome) error {
	before := tx.Status
	ref := strconv.FormatInt(tx.ID, 10)

	updated, err := w.store.UpdateStatusLocked(ctx, ref, func(cur *models.Transaction) error {
		if cur.Status.Terminal() {
			return errAlreadyResolved
		}
		cur.Status = out.Next
		cur.ErrorMessage = out.ErrorMessage
		return nil
	})
	if errors.Is(err, errAlreadyResolved) {
		log.Printf("[Reconciliation] transaction %d resolved concurrently, skipping transition", tx.ID)
		w.logAttempt(ctx, models.ReconciliationAttempt{
			TransactionID:   tx.ID,
			ProcessorStatus: ps,
			StatusBefore:    before,
			StatusAfter:     before,
		})
		return nil
	}
	if err != nil {
		w.logAttempt(ctx, models.ReconciliationAttempt{
			TransactionID:   tx.ID,
			ProcessorStatus: ps,
			StatusBefore:    before,
			StatusAfter:     before,
			ErrorMessage:    err.Error(),
		})
		return err
	}

	log.Printf("[Reconciliation] updated transaction %d: %s -> %s", tx.ID, before, out.Next)
	w.logAttempt(ctx, models.ReconciliationAttempt{
		TransactionID:   tx.ID,
		ProcessorStatus: ps,
		StatusBefore:    before,
		StatusAfter:     out.Next,
		ErrorMessage:    out.ErrorMessage,
	})

	if out.Notify {
		w.notifier.Send(ctx, events.NewTransactionNotification(updated))
	}
	return nil
}

// Escalate marks a transaction stuck after the retry budget is exhausted and
// sends a stuck alert. Terminal transactions are left untouched.
func (w *Worker) Escalate(ctx context.Context, job models.ReconciliationJob, lastErr error) {
	log.Printf("[Reconciliation] job failed after %d attempts for transaction %d: %v", job.Attempt, job.TransactionID, lastErr)

	ref := strconv.FormatInt(job.TransactionID, 10)
	msg := fmt.Sprintf("reconciliation failed after %d attempts: %v", job.Attempt, lastErr)

	var before models.Status
	updated, err := w.store.UpdateStatusLocked(ctx, ref, func(cur *models.Transaction) error {
		if cur.Status.Terminal() {
			return errAlreadyResolved
		}
		before = cur.Status
		cur.Status = models.StatusStuck
		cur.ErrorMessage = msg
		return nil
	})
	if errors.Is(err, errAlreadyResolved) {
		log.Printf("[Reconciliation] transaction %d resolved before escalation, skipping", job.TransactionID)
		return
	}
	if err != nil {
		log.Printf("[Reconciliation] failed to mark transaction %d stuck: %v", job.TransactionID, err)
		return
	}

	log.Printf("[Reconciliation] marked transaction %d as stuck", job.TransactionID)
	w.logAttempt(ctx, models.ReconciliationAttempt{
		TransactionID: job.TransactionID,
		StatusBefore:  before,
		StatusAfter:   models.StatusStuck,
		ErrorMessage:  msg,
	})
	w.notifier.Send(ctx, events.NewTransactionNotification(updated))
}

func (w *Worker) logAttempt(ctx context.Context, attempt models.ReconciliationAttempt) {
	if err := w.store.InsertAttempt(ctx, attempt); err != nil {
		log.Printf("[Reconciliation] failed to record attempt for transaction %d: %v", attempt.TransactionID, err)
	}
}
