// internal/server/server.go
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/andres-erbsen/clock"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-relay/internal/relay"
	"github.com/rovshanmuradov/solana-relay/internal/utils/metrics"
)

const (
	readTimeout  = 15 * time.Second
	idleTimeout  = 60 * time.Second
	maxBodyBytes = 10 << 20
)

// Config configures the HTTP boundary
type Config struct {
	Addr           string
	ForwardTimeout time.Duration // write timeout must outlast a forward
	Clock          clock.Clock
}

// Server exposes the relay over HTTP
type Server struct {
	service *relay.Service
	metrics *metrics.Collector
	logger  *zap.Logger
	clock   clock.Clock
	mux     *http.ServeMux
	server  *http.Server
}

// New creates the server and registers every route
func New(cfg Config, service *relay.Service, collector *metrics.Collector, logger *zap.Logger) *Server {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	forwardTimeout := cfg.ForwardTimeout
	if forwardTimeout <= 0 {
		forwardTimeout = relay.DefaultForwardTimeout
	}

	s := &Server{
		service: service,
		metrics: collector,
		logger:  logger.Named("server"),
		clock:   clk,
		mux:     http.NewServeMux(),
	}
	s.routes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: readTimeout + 2*forwardTimeout,
		IdleTimeout:  idleTimeout,
	}

	return s
}

func (s *Server) routes() {
	// provider ingress
	s.mux.HandleFunc("POST /{$}", s.handlePoolCallback)
	s.mux.HandleFunc("GET /{$}", s.handlePoolCallback)
	s.mux.HandleFunc("POST /liquidity_callback", s.handleLiquidityCallback)
	s.mux.HandleFunc("POST /freeze_callback", s.handleFreezeCallback)

	// pool monitors
	s.mux.HandleFunc("POST /monitor_pool", s.handleMonitor(s.service.Pools, poolKeyField))
	s.mux.HandleFunc("DELETE /stop_monitoring/{pool_address}", s.handleStop(s.service.Pools, poolKeyField))
	s.mux.HandleFunc("GET /monitored_pools", s.handleListPools)
	s.mux.HandleFunc("GET /liquidity_events", s.handleEvents(s.service.LiquidityEvents))

	// freeze monitors
	s.mux.HandleFunc("POST /monitor_freeze", s.handleMonitor(s.service.Freezes, freezeKeyField))
	s.mux.HandleFunc("DELETE /stop_freeze_monitoring/{address}", s.handleStop(s.service.Freezes, freezeKeyField))
	s.mux.HandleFunc("GET /monitored_freeze_addresses", s.handleListFreeze)
	s.mux.HandleFunc("GET /freeze_events", s.handleEvents(s.service.FreezeEvents))

	// polling and introspection
	s.mux.HandleFunc("GET /get_crypto_tokens", s.handleTokens)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /ping", s.handlePing)
	s.mux.HandleFunc("POST /ping", s.handlePing)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// Handler returns the routed handler wrapped in middleware
func (s *Server) Handler() http.Handler {
	return s.recoverer(s.requestLogger(s.mux))
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("🚀 Relay listening", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
