package contact

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// linearBackOff grows the wait linearly with the attempt number:
// base, 2*base, 3*base and so on.
type linearBackOff struct {
	base    time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.base
}

func (b *linearBackOff) Reset() { b.attempt = 0 }

// newRetryPolicy allows maxAttempts executions in total, waiting linearly
// longer between them.
func newRetryPolicy(base time.Duration, maxAttempts uint64) backoff.BackOff {
	return backoff.WithMaxRetries(&linearBackOff{base: base}, maxAttempts-1)
}
