// internal/provider/gateway.go
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL  = "https://api.shyft.so"
	DefaultNetwork  = "mainnet-beta"
	DefaultTimeout  = 10 * time.Second
	DefaultMaxTries = 3

	createPath = "/sol/v1/callback/create"
	removePath = "/sol/v1/callback/remove"
)

// Config configures the HTTP gateway
type Config struct {
	BaseURL         string
	APIKey          string
	Network         string
	Timeout         time.Duration
	MaxTries        uint
	InitialInterval time.Duration
}

// Recorder receives the outcome of each gateway call
type Recorder interface {
	RecordGatewayCall(op string, success bool)
}

// HTTPGateway talks to the provider's callback management API
type HTTPGateway struct {
	client   *http.Client
	cfg      Config
	logger   *zap.Logger
	recorder Recorder
}

// NewHTTPGateway creates a gateway with defaults applied to cfg
func NewHTTPGateway(cfg Config, logger *zap.Logger, recorder Recorder) *HTTPGateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Network == "" {
		cfg.Network = DefaultNetwork
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTries == 0 {
		cfg.MaxTries = DefaultMaxTries
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 500 * time.Millisecond
	}

	return &HTTPGateway{
		client:   &http.Client{Timeout: cfg.Timeout},
		cfg:      cfg,
		logger:   logger.Named("provider"),
		recorder: recorder,
	}
}

// CreateSubscription registers addresses with the provider. The target URL is
// reduced to its base domain before submission.
func (g *HTTPGateway) CreateSubscription(ctx context.Context, addresses []string, targetURL string, opts Options) (string, bool) {
	target, err := BaseDomain(targetURL)
	if err != nil {
		g.logger.Error("Rejecting subscription target", zap.String("target", targetURL), zap.Error(err))
		g.record("create", false)
		return "", false
	}
	if target != targetURL {
		g.logger.Info("Callback target reduced to base domain",
			zap.String("original", targetURL),
			zap.String("submitted", target))
	}

	network := opts.Network
	if network == "" {
		network = g.cfg.Network
	}
	body := createRequest{
		Network:     network,
		Addresses:   addresses,
		CallbackURL: target,
		Events:      opts.Events,
		Type:        opts.Type,
		EnableRaw:   opts.EnableRaw,
	}

	resp, err := g.call(ctx, http.MethodPost, createPath, body)
	if err != nil {
		g.logger.Error("Failed to create provider subscription",
			zap.Strings("addresses", addresses),
			zap.Error(err))
		g.record("create", false)
		return "", false
	}
	if resp.Result.ID == "" {
		g.logger.Error("Provider returned no subscription id", zap.String("message", resp.Message))
		g.record("create", false)
		return "", false
	}

	g.logger.Info("✅ Provider subscription created",
		zap.String("webhook_id", resp.Result.ID),
		zap.Strings("addresses", addresses))
	g.record("create", true)
	return resp.Result.ID, true
}

// DeleteSubscription cancels a provider subscription
func (g *HTTPGateway) DeleteSubscription(ctx context.Context, id string) bool {
	if _, err := g.call(ctx, http.MethodDelete, removePath, deleteRequest{ID: id}); err != nil {
		g.logger.Warn("Failed to delete provider subscription",
			zap.String("webhook_id", id),
			zap.Error(err))
		g.record("delete", false)
		return false
	}
	g.logger.Info("Provider subscription deleted", zap.String("webhook_id", id))
	g.record("delete", true)
	return true
}

// call performs one API request with retries on transient failures
func (g *HTTPGateway) call(ctx context.Context, method, path string, payload any) (*apiResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = g.cfg.InitialInterval
	policy.MaxInterval = g.cfg.InitialInterval * 10

	notify := func(err error, d time.Duration) {
		g.logger.Debug("Retrying provider call", zap.String("path", path), zap.Duration("backoff", d), zap.Error(err))
	}

	operation := func() (*apiResponse, error) {
		return g.do(ctx, method, path, data)
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(g.cfg.MaxTries),
		backoff.WithNotify(notify))
}

func (g *HTTPGateway) do(ctx context.Context, method, path string, data []byte) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, g.cfg.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, backoff.Permanent(err)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := fmt.Errorf("provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}

	var out apiResponse
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		if !out.Success && out.Message != "" {
			return nil, backoff.Permanent(fmt.Errorf("provider rejected request: %s", out.Message))
		}
	}
	return &out, nil
}

func (g *HTTPGateway) record(op string, success bool) {
	if g.recorder != nil {
		g.recorder.RecordGatewayCall(op, success)
	}
}
