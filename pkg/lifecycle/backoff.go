package lifecycle

import (
	"math/rand"
	"sync"
	"time"
)

// DefaultReconnectDelay is the fixed delay between reconnect attempts.
const DefaultReconnectDelay = 3 * time.Second

// Backoff yields reconnect delays. With initial == max it is a fixed delay;
// otherwise the delay doubles per call up to max, with ±20% jitter.
type Backoff struct {
	mu      sync.Mutex
	initial time.Duration
	max     time.Duration
	current time.Duration
	rand    func() float64
}

// NewBackoff creates a backoff with the given initial and max durations.
// A max below initial is raised to initial.
func NewBackoff(initial, max time.Duration) *Backoff {
	if initial <= 0 {
		initial = DefaultReconnectDelay
	}
	if max < initial {
		max = initial
	}
	return &Backoff{
		initial: initial,
		max:     max,
		current: initial,
		rand:    rand.Float64,
	}
}

// NewFixedBackoff returns a Backoff that always yields d.
func NewFixedBackoff(d time.Duration) *Backoff {
	return NewBackoff(d, d)
}

// Fixed reports whether the backoff never grows.
func (b *Backoff) Fixed() bool {
	return b.initial == b.max
}

// Next returns the delay to wait before the next attempt and advances.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Fixed() {
		return b.initial
	}

	jitter := float64(b.current) * 0.2 * (b.rand()*2 - 1)
	d := time.Duration(float64(b.current) + jitter)

	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return d
}

// Reset resets the backoff to the initial duration.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = b.initial
}

// Current returns the un-jittered delay the next call to Next is based on.
func (b *Backoff) Current() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}
