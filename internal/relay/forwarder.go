// internal/relay/forwarder.go
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-relay/internal/domain"
	"github.com/rovshanmuradov/solana-relay/internal/monitor"
)

// DefaultForwardTimeout bounds a single delivery to a subscriber
const DefaultForwardTimeout = 10 * time.Second

// Lookup resolves the subscriber of a monitored key
type Lookup interface {
	Get(key string) (monitor.Entity, bool)
}

// ForwardRecorder receives the outcome of each delivery
type ForwardRecorder interface {
	RecordForward(success bool, duration time.Duration)
}

// Forwarder posts normalized events to subscriber callback URLs.
// Delivery is at-most-once: failures are logged and counted, never retried.
type Forwarder struct {
	client   *http.Client
	logger   *zap.Logger
	recorder ForwardRecorder
}

// NewForwarder creates a forwarder whose deliveries time out after timeout
func NewForwarder(timeout time.Duration, logger *zap.Logger, recorder ForwardRecorder) *Forwarder {
	if timeout <= 0 {
		timeout = DefaultForwardTimeout
	}
	return &Forwarder{
		client:   &http.Client{Timeout: timeout},
		logger:   logger.Named("forwarder"),
		recorder: recorder,
	}
}

// Forward delivers event to the subscriber monitoring key. Unknown keys are
// dropped silently. The result reports whether a delivery succeeded.
func (f *Forwarder) Forward(ctx context.Context, registry Lookup, key string, event domain.Event) bool {
	entity, ok := registry.Get(key)
	if !ok {
		return false
	}

	start := time.Now()
	// a caller hanging up must not cut the delivery short
	err := f.deliver(context.WithoutCancel(ctx), entity.CallbackURL, event)
	elapsed := time.Since(start)

	if f.recorder != nil {
		f.recorder.RecordForward(err == nil, elapsed)
	}

	if err != nil {
		f.logger.Warn("Forward delivery failed",
			zap.String("key", key),
			zap.String("callback_url", entity.CallbackURL),
			zap.String("event_kind", string(event.Kind)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return false
	}

	f.logger.Debug("Event forwarded",
		zap.String("key", key),
		zap.String("callback_id", entity.CallbackID),
		zap.String("event_kind", string(event.Kind)),
		zap.Duration("elapsed", elapsed))
	return true
}

func (f *Forwarder) deliver(ctx context.Context, target string, event domain.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "solana-relay")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("post to subscriber: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("subscriber responded with status %d", resp.StatusCode)
	}
	return nil
}
