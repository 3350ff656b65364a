package queue

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/interfaces"
	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/models"
)

// ErrQueueFull is returned by Enqueue when the buffer is at capacity. The
// scheduler re-derives dropped work from the store on its next scan.
var ErrQueueFull = errors.New("reconciliation queue is full")

// Processor executes one job. An error from Process schedules a retry per
// the policy; Escalate fires once the retry budget is exhausted.
type Processor interface {
	Process(ctx context.Context, job models.ReconciliationJob) error
	Escalate(ctx context.Context, job models.ReconciliationJob, lastErr error)
}

// RetryPolicy maps an attempt count to a backoff delay and decides when a
// job is permanently failed.
type RetryPolicy interface {
	Delay(attempt int) time.Duration
	Exhausted(attempt int) bool
}

// Queue is an in-process, at-least-once job queue with policy-driven retry.
// Delivery guarantees across restarts come from the scheduler rescanning
// the store, not from queue persistence; consumers tolerate duplicates.
type Queue struct {
	proc    Processor
	policy  RetryPolicy
	jobs    chan models.ReconciliationJob
	workers int

	wg      sync.WaitGroup
	retryWG sync.WaitGroup
}

// New builds a queue with the given consumer concurrency and buffer size.
func New(proc Processor, policy RetryPolicy, workers, buffer int) *Queue {
	if workers < 1 {
		workers = 1
	}
	if buffer < 1 {
		buffer = 1
	}
	return &Queue{
		proc:    proc,
		policy:  policy,
		jobs:    make(chan models.ReconciliationJob, buffer),
		workers: workers,
	}
}

// Start launches the consumer goroutines. They stop when ctx is cancelled.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.consume(ctx)
	}
}

// Enqueue adds a job without blocking. A full buffer returns ErrQueueFull.
func (q *Queue) Enqueue(ctx context.Context, job models.ReconciliationJob) error {
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Wait blocks until all consumers and pending retry timers have finished.
// Call after cancelling the context passed to Start.
func (q *Queue) Wait() {
	q.retryWG.Wait()
	q.wg.Wait()
}

func (q *Queue) consume(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.jobs:
			q.run(ctx, job)
		}
	}
}

func (q *Queue) run(ctx context.Context, job models.ReconciliationJob) {
	err := q.proc.Process(ctx, job)
	if err == nil {
		return
	}

	job.Attempt++
	if q.policy.Exhausted(job.Attempt) {
		q.proc.Escalate(ctx, job, err)
		return
	}

	delay := q.policy.Delay(job.Attempt)
	log.Printf("[Queue] job for transaction %d failed (attempt %d), retrying in %s: %v", job.TransactionID, job.Attempt, delay, err)
	q.retryLater(ctx, job, delay)
}

func (q *Queue) retryLater(ctx context.Context, job models.ReconciliationJob, delay time.Duration) {
	q.retryWG.Add(1)
	go func() {
		defer q.retryWG.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		select {
		case q.jobs <- job:
		case <-ctx.Done():
		}
	}()
}

var _ interfaces.JobQueue = (*Queue)(nil)
