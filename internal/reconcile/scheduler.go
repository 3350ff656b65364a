package reconcile

import (
	"context"
	"log"
	"time"

	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/interfaces"
	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/models"
)

const (
	// DefaultInterval is how often the scheduler scans for stale work.
	DefaultInterval = time.Minute
	// DefaultGracePeriod gives the client-side payment flow time to
	// complete before a fresh transaction is considered for a check.
	DefaultGracePeriod = 5 * time.Minute
	// DefaultCoolDown is the minimum age of the most recent attempt
	// before a transaction is checked again.
	DefaultCoolDown = 2 * time.Minute
	// DefaultBatchLimit bounds the work enqueued per tick.
	DefaultBatchLimit = 100
)

// Scheduler periodically scans the store for unresolved transactions that
// are past the grace period and not inside the attempt cool-down, and
// enqueues one reconciliation job per candidate.
type Scheduler struct {
	store interfaces.TransactionStore
	queue interfaces.JobQueue

	interval time.Duration
	grace    time.Duration
	coolDown time.Duration
	limit    int
}

func NewScheduler(store interfaces.TransactionStore, queue interfaces.JobQueue) *Scheduler {
	return &Scheduler{
		store:    store,
		queue:    queue,
		interval: DefaultInterval,
		grace:    DefaultGracePeriod,
		coolDown: DefaultCoolDown,
		limit:    DefaultBatchLimit,
	}
}

// Run scans once immediately, then on every tick until the context is
// cancelled. It is meant to run in its own goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	log.Println("[Scheduler] starting reconciliation scheduler")

	s.ScanOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[Scheduler] stopping")
			return
		case <-ticker.C:
			s.ScanOnce(ctx)
		}
	}
}

// ScanOnce runs a single scan. Enqueue failures are logged and do not stop
// the remaining candidates from being enqueued.
func (s *Scheduler) ScanOnce(ctx context.Context) {
	candidates, err := s.store.FindStaleUnresolved(ctx, s.grace, s.coolDown, s.limit)
	if err != nil {
		log.Printf("[Scheduler] error finding stale transactions: %v", err)
		return
	}
	log.Printf("[Scheduler] found %d stale transactions", len(candidates))

	for _, tx := range candidates {
		job := models.ReconciliationJob{TransactionID: tx.ID}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			log.Printf("[Scheduler] failed to enqueue transaction %d: %v", tx.ID, err)
			continue
		}
		log.Printf("[Scheduler] queued transaction %d for reconciliation", tx.ID)
	}
}
