package reconcile

import "time"

// Policy governs per-job retries: a pure function of attempt count so it is
// testable without a queue. A job whose execution fails is retried with
// exponentially increasing delay until MaxAttempts consecutive failures,
// at which point it escalates.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultPolicy is 5 attempts with delays of 60, 120, 240, 480 and 960
// seconds.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Minute,
	}
}

// Delay returns the backoff before retrying after the given failed attempt
// (1-based): BaseDelay doubled per attempt.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.BaseDelay << (attempt - 1)
}

// Exhausted reports whether the attempt count has used up the retry budget.
func (p Policy) Exhausted(attempt int) bool {
	return attempt >= p.MaxAttempts
}
