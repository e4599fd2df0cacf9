package pipeline

import (
	"context"
	"math/rand/v2"
	"time"
)

// MaxRetries is the number of fetch attempts per job.
const MaxRetries = 3

const (
	baseDelay = time.Second
	maxDelay  = 30 * time.Second
)

// Backoff doubles from one second per attempt (0-indexed), capped at 30s,
// plus up to 50% jitter.
func Backoff(attempt int) time.Duration {
	d := maxDelay
	if attempt < 5 {
		d = min(baseDelay<<attempt, maxDelay)
	}
	return d + time.Duration(rand.Int64N(int64(d)/2))
}

// wait sleeps for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
