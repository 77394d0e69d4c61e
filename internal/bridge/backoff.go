package bridge

import (
	"sync"
	"time"
)

// Backoff computes reconnect delays. Each call to Next returns the current
// delay and doubles it up to the cap; Reset drops back to the base after a
// successful connection.
type Backoff struct {
	base time.Duration
	max  time.Duration

	mu   sync.Mutex
	next time.Duration
}

// NewBackoff creates a Backoff starting at base and capped at max.
func NewBackoff(base, max time.Duration) *Backoff {
	if base <= 0 {
		base = time.Second
	}
	if max < base {
		max = base
	}
	return &Backoff{base: base, max: max, next: base}
}

// Next returns the delay to wait before the next attempt.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	d := b.next
	b.next *= 2
	if b.next > b.max {
		b.next = b.max
	}
	return d
}

// Reset returns the delay sequence to the base.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next = b.base
}
