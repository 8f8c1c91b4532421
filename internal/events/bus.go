// internal/events/bus.go
package events

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-relay/internal/domain"
)

type registered struct {
	id  string
	seq uint64
	h   Handler
}

// Bus is a synchronous in-memory event bus. Publish runs handlers in the
// caller's goroutine in subscription order; there is no background worker.
type Bus struct {
	mu       sync.RWMutex
	handlers map[domain.EventKind]map[string]registered
	seq      uint64
	logger   *zap.Logger
}

// NewBus creates a new event bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		handlers: make(map[domain.EventKind]map[string]registered),
		logger:   logger.Named("event_bus"),
	}
}

// Subscribe registers a handler for a specific event kind.
func (b *Bus) Subscribe(kind domain.EventKind, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New().String()
	b.seq++

	if b.handlers[kind] == nil {
		b.handlers[kind] = make(map[string]registered)
	}
	b.handlers[kind][id] = registered{id: id, seq: b.seq, h: handler}

	b.logger.Debug("Handler subscribed",
		zap.String("event_kind", string(kind)),
		zap.String("subscription_id", id))

	return &subscription{id: id, bus: b, kind: kind}
}

// SubscribeFunc is a convenience method for subscribing with a function.
func (b *Bus) SubscribeFunc(kind domain.EventKind, fn func(context.Context, domain.Event) error) Subscription {
	return b.Subscribe(kind, HandlerFunc(fn))
}

// SubscribeAll registers one handler for several kinds.
func (b *Bus) SubscribeAll(kinds []domain.EventKind, handler Handler) []Subscription {
	subs := make([]Subscription, 0, len(kinds))
	for _, k := range kinds {
		subs = append(subs, b.Subscribe(k, handler))
	}
	return subs
}

// Publish delivers an event to every handler of its kind. A failing handler
// does not stop the others; all errors are joined.
func (b *Bus) Publish(ctx context.Context, event domain.Event) error {
	b.mu.RLock()
	handlers := make([]registered, 0, len(b.handlers[event.Kind]))
	for _, r := range b.handlers[event.Kind] {
		handlers = append(handlers, r)
	}
	b.mu.RUnlock()

	sort.Slice(handlers, func(i, j int) bool { return handlers[i].seq < handlers[j].seq })

	var errs []error
	for _, r := range handlers {
		if err := b.invoke(ctx, r.h, event); err != nil {
			b.logger.Error("Handler error",
				zap.String("event_kind", string(event.Kind)),
				zap.String("handler_id", r.id),
				zap.Error(err))
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// invoke isolates a panicking handler from the rest of the chain
func (b *Bus) invoke(ctx context.Context, h Handler, event domain.Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return h.Handle(ctx, event)
}

// unsubscribe removes a handler subscription.
func (b *Bus) unsubscribe(id string, kind domain.EventKind) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if handlers, ok := b.handlers[kind]; ok {
		delete(handlers, id)
		if len(handlers) == 0 {
			delete(b.handlers, kind)
		}
	}

	b.logger.Debug("Handler unsubscribed",
		zap.String("event_kind", string(kind)),
		zap.String("subscription_id", id))
}
