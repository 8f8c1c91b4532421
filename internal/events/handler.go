// internal/events/handler.go
package events

import (
	"context"

	"github.com/rovshanmuradov/solana-relay/internal/domain"
)

// Handler processes events of a specific kind.
type Handler interface {
	// Handle runs in the publisher's goroutine.
	Handle(ctx context.Context, event domain.Event) error
}

// HandlerFunc is an adapter to allow the use of ordinary functions as event handlers.
type HandlerFunc func(ctx context.Context, event domain.Event) error

// Handle calls f(ctx, event).
func (f HandlerFunc) Handle(ctx context.Context, event domain.Event) error {
	return f(ctx, event)
}

// Subscription represents a subscription to events.
type Subscription interface {
	// Unsubscribe removes the subscription.
	Unsubscribe()
}

// subscription is the internal implementation of Subscription.
type subscription struct {
	id   string
	bus  *Bus
	kind domain.EventKind
}

// Unsubscribe removes this subscription from the event bus.
func (s *subscription) Unsubscribe() {
	s.bus.unsubscribe(s.id, s.kind)
}
