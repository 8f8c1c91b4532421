// internal/provider/types.go
package provider

import (
	"context"
	"fmt"
	"net/url"
)

// Callback delivery types understood by the indexing provider
const (
	CallbackTypeCallback = "CALLBACK"
	CallbackTypeRaw      = "RAW"
)

// Options describes what the provider should send for a subscription.
type Options struct {
	Network   string   // e.g. "mainnet-beta"; empty uses the gateway default
	Events    []string // action types to subscribe to, e.g. CREATE_POOL, SWAP
	Type      string   // CALLBACK or RAW
	EnableRaw bool     // include the raw transaction in callbacks
}

// Gateway creates and cancels provider-side subscriptions. Implementations
// report failure through the boolean result and never panic.
type Gateway interface {
	CreateSubscription(ctx context.Context, addresses []string, targetURL string, opts Options) (string, bool)
	DeleteSubscription(ctx context.Context, id string) bool
}

type createRequest struct {
	Network     string   `json:"network"`
	Addresses   []string `json:"addresses"`
	CallbackURL string   `json:"callback_url"`
	Events      []string `json:"events,omitempty"`
	Type        string   `json:"type,omitempty"`
	EnableRaw   bool     `json:"enable_raw,omitempty"`
}

type deleteRequest struct {
	ID string `json:"id"`
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Result  struct {
		ID string `json:"id"`
	} `json:"result"`
}

// BaseDomain reduces a callback URL to scheme://host. The provider only
// accepts base-domain targets, so any path, query or fragment is dropped.
func BaseDomain(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid callback url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("callback url %q must be absolute", raw)
	}
	return u.Scheme + "://" + u.Host, nil
}
