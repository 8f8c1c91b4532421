// internal/monitor/registry.go
package monitor

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/andres-erbsen/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-relay/internal/provider"
)

// Kind names an independent monitor keyspace
type Kind string

const (
	KindPool   Kind = "pool"
	KindFreeze Kind = "freeze"
)

// Entity is a monitored address and the subscriber it belongs to
type Entity struct {
	Kind        Kind      `json:"kind"`
	Key         string    `json:"key"`
	CallbackURL string    `json:"callback_url"`
	CallbackID  string    `json:"callback_id"`
	WebhookID   string    `json:"webhook_id,omitempty"` // empty only in test mode
	TestMode    bool      `json:"test_mode"`
	CreatedAt   time.Time `json:"created_at"`
}

// RegistryConfig configures a Registry
type RegistryConfig struct {
	Kind         Kind
	Gateway      provider.Gateway
	Subscription provider.Options // sent with every upstream subscription
	Logger       *zap.Logger
	Clock        clock.Clock
}

// Registry maps monitored addresses of one kind to their subscribers.
// Register and Unregister are atomic per call.
type Registry struct {
	kind    Kind
	gateway provider.Gateway
	opts    provider.Options
	logger  *zap.Logger
	clock   clock.Clock

	mu       sync.RWMutex
	entities map[string]Entity
	pending  map[string]struct{}
}

// NewRegistry creates an empty registry
func NewRegistry(cfg RegistryConfig) *Registry {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Registry{
		kind:     cfg.Kind,
		gateway:  cfg.Gateway,
		opts:     cfg.Subscription,
		logger:   cfg.Logger.Named("registry").With(zap.String("kind", string(cfg.Kind))),
		clock:    clk,
		entities: make(map[string]Entity),
		pending:  make(map[string]struct{}),
	}
}

// Kind returns the keyspace this registry serves
func (r *Registry) Kind() Kind {
	return r.kind
}

// Register starts monitoring key on behalf of callbackURL. Outside test mode a
// provider subscription is created first; if that fails nothing is stored.
// The key stays reserved while the provider call runs so concurrent
// duplicates fail with ErrAlreadyMonitored.
func (r *Registry) Register(ctx context.Context, key, callbackURL string, testMode bool) (Entity, error) {
	if err := validate(key, callbackURL); err != nil {
		return Entity{}, err
	}

	r.mu.Lock()
	if r.taken(key) {
		r.mu.Unlock()
		return Entity{}, fmt.Errorf("%w: %s", ErrAlreadyMonitored, key)
	}
	r.pending[key] = struct{}{}
	r.mu.Unlock()

	var webhookID string
	if !testMode {
		id, ok := r.gateway.CreateSubscription(ctx, []string{key}, callbackURL, r.opts)
		if !ok {
			r.release(key)
			r.logger.Error("❌ Registration aborted, provider subscription failed",
				zap.String("key", key),
				zap.String("callback_url", callbackURL))
			return Entity{}, fmt.Errorf("%w for %s", ErrUpstreamSubscriptionFailed, key)
		}
		webhookID = id
	}

	entity := Entity{
		Kind:        r.kind,
		Key:         key,
		CallbackURL: callbackURL,
		CallbackID:  uuid.NewString(),
		WebhookID:   webhookID,
		TestMode:    testMode,
		CreatedAt:   r.clock.Now(),
	}

	r.mu.Lock()
	delete(r.pending, key)
	r.entities[key] = entity
	r.mu.Unlock()

	r.logger.Info("📊 Monitoring started",
		zap.String("key", key),
		zap.String("callback_id", entity.CallbackID),
		zap.String("webhook_id", webhookID),
		zap.Bool("test_mode", testMode))

	return entity, nil
}

// Unregister stops monitoring key. Provider cleanup is best-effort: a failed
// cancellation is logged and the local entry is removed regardless.
func (r *Registry) Unregister(ctx context.Context, key string) error {
	r.mu.Lock()
	entity, exists := r.entities[key]
	if !exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotMonitored, key)
	}
	delete(r.entities, key)
	r.mu.Unlock()

	if entity.WebhookID != "" {
		if !r.gateway.DeleteSubscription(ctx, entity.WebhookID) {
			r.logger.Warn("Provider subscription left behind",
				zap.String("key", key),
				zap.String("webhook_id", entity.WebhookID))
		}
	}

	r.logger.Info("🛑 Monitoring stopped", zap.String("key", key))
	return nil
}

// Get returns the entity registered under key
func (r *Registry) Get(key string) (Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entity, exists := r.entities[key]
	return entity, exists
}

// List returns a snapshot of all entities in unspecified order
func (r *Registry) List() []Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entity, 0, len(r.entities))
	for _, e := range r.entities {
		out = append(out, e)
	}
	return out
}

// Keys returns the monitored addresses in unspecified order
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.entities))
	for k := range r.entities {
		out = append(out, k)
	}
	return out
}

// Len returns the number of monitored addresses
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}

func (r *Registry) taken(key string) bool {
	if _, exists := r.entities[key]; exists {
		return true
	}
	_, reserved := r.pending[key]
	return reserved
}

func (r *Registry) release(key string) {
	r.mu.Lock()
	delete(r.pending, key)
	r.mu.Unlock()
}

func validate(key, callbackURL string) error {
	if key == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidRequest)
	}
	if callbackURL == "" {
		return fmt.Errorf("%w: callback_url is required", ErrInvalidRequest)
	}
	u, err := url.Parse(callbackURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: callback_url must be an absolute http(s) url", ErrInvalidRequest)
	}
	return nil
}
