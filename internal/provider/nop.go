// internal/provider/nop.go
package provider

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NopGateway accepts every call without contacting the provider. It backs
// offline runs where no provider API key is configured.
type NopGateway struct {
	logger *zap.Logger
}

// NewNopGateway creates an offline gateway
func NewNopGateway(logger *zap.Logger) *NopGateway {
	return &NopGateway{logger: logger.Named("provider_nop")}
}

// CreateSubscription returns a synthetic subscription id
func (g *NopGateway) CreateSubscription(_ context.Context, addresses []string, targetURL string, _ Options) (string, bool) {
	id := "offline-" + uuid.NewString()
	g.logger.Warn("Provider disabled, subscription not created upstream",
		zap.Strings("addresses", addresses),
		zap.String("target", targetURL),
		zap.String("webhook_id", id))
	return id, true
}

// DeleteSubscription always succeeds
func (g *NopGateway) DeleteSubscription(_ context.Context, id string) bool {
	g.logger.Debug("Provider disabled, nothing to delete", zap.String("webhook_id", id))
	return true
}
