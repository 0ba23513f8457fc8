package limiter

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limiter bounds the number of removal operations in flight at once. It is
// the sole admission-control mechanism protecting file descriptors and
// filesystem handles, and is global to one run rather than per-directory.
type Limiter struct {
	sem *semaphore.Weighted
	cap int
}

// New creates a limiter admitting at most n simultaneous operations.
// Values below one are clamped to one.
func New(n int) *Limiter {
	if n < 1 {
		n = 1
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(n)), cap: n}
}

// Cap reports the admission bound the limiter was created with.
func (l *Limiter) Cap() int {
	return l.cap
}

// Acquire blocks until a slot is available or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

// Release returns a slot acquired with Acquire.
func (l *Limiter) Release() {
	l.sem.Release(1)
}
