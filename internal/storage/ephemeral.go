// internal/storage/ephemeral.go
package storage

import (
	"sync"
	"time"

	"github.com/andres-erbsen/clock"

	"github.com/rovshanmuradov/solana-relay/internal/domain"
)

type entry[T any] struct {
	value T
	at    time.Time
}

// Buffer is an append-only, insertion-ordered buffer whose entries expire
// after window. Expiry is lazy: entries are only filtered when read and are
// never removed proactively. Growth between reads is unbounded.
type Buffer[T any] struct {
	mu     sync.Mutex
	items  []entry[T]
	window time.Duration
	clock  clock.Clock
}

// NewBuffer creates a buffer with the given expiry window
func NewBuffer[T any](window time.Duration, clk clock.Clock) *Buffer[T] {
	if clk == nil {
		clk = clock.New()
	}
	return &Buffer[T]{window: window, clock: clk}
}

// Append stores v stamped with the current time
func (b *Buffer[T]) Append(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, entry[T]{value: v, at: b.clock.Now()})
}

// ReadAndDrain returns entries no older than the window and clears the whole
// buffer, including entries that were not returned.
func (b *Buffer[T]) ReadAndDrain() []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.fresh()
	b.items = nil
	return out
}

// ReadFiltered returns entries no older than the window. Nothing is removed.
func (b *Buffer[T]) ReadFiltered() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fresh()
}

// Len returns the number of physically stored entries, expired or not
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

func (b *Buffer[T]) fresh() []T {
	now := b.clock.Now()
	out := make([]T, 0, len(b.items))
	for _, e := range b.items {
		if now.Sub(e.at) <= b.window {
			out = append(out, e.value)
		}
	}
	return out
}

// NewTokenBuffer creates the drain-on-read token discovery buffer
func NewTokenBuffer(window time.Duration, clk clock.Clock) *Buffer[domain.TokenDiscovery] {
	if window <= 0 {
		window = DefaultTokenWindow
	}
	return NewBuffer[domain.TokenDiscovery](window, clk)
}

// NewEventBuffer creates a filter-on-read event buffer
func NewEventBuffer(window time.Duration, clk clock.Clock) *Buffer[domain.Event] {
	if window <= 0 {
		window = DefaultEventWindow
	}
	return NewBuffer[domain.Event](window, clk)
}

var (
	_ TokenStore = (*Buffer[domain.TokenDiscovery])(nil)
	_ EventStore = (*Buffer[domain.Event])(nil)
)
