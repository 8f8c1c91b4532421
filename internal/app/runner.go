// internal/app/runner.go
package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/solana-relay/internal/config"
	"github.com/rovshanmuradov/solana-relay/internal/notify"
	"github.com/rovshanmuradov/solana-relay/internal/provider"
	"github.com/rovshanmuradov/solana-relay/internal/relay"
	"github.com/rovshanmuradov/solana-relay/internal/server"
	"github.com/rovshanmuradov/solana-relay/internal/utils/logger"
	"github.com/rovshanmuradov/solana-relay/internal/utils/metrics"
)

type Runner struct {
	config   *config.Config
	logger   *logger.Logger
	service  *relay.Service
	server   *server.Server
	shutdown *ShutdownHandler
}

// NewRunner wires the relay from configuration
func NewRunner(cfg *config.Config, log *logger.Logger) (*Runner, error) {
	defer log.TrackPerformance("wire_relay")()

	collector := metrics.NewCollector()

	var gateway provider.Gateway
	if cfg.Provider.Offline {
		log.Warn("⚠️ Provider offline, monitors will not create upstream subscriptions")
		gateway = provider.NewNopGateway(log.Logger)
	} else {
		gateway = provider.NewHTTPGateway(provider.Config{
			BaseURL:  cfg.Provider.BaseURL,
			APIKey:   cfg.Provider.APIKey,
			Network:  cfg.Provider.Network,
			Timeout:  cfg.Provider.Timeout,
			MaxTries: cfg.Provider.MaxTries,
		}, log.Logger, collector)
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegram(notify.TelegramConfig{
			Token:   cfg.Telegram.Token,
			ChatID:  cfg.Telegram.ChatID,
			Timeout: cfg.Telegram.Timeout,
		}, log.WithComponent("notify"))
		if err != nil {
			return nil, fmt.Errorf("telegram notifier: %w", err)
		}
		notifier = tg
	}

	service := relay.NewService(relay.Options{
		Logger:         log.Logger,
		Gateway:        gateway,
		Notifier:       notifier,
		Metrics:        collector,
		Network:        cfg.Provider.Network,
		ForwardTimeout: cfg.ForwardTimeout,
		TokenWindow:    cfg.TokenWindow,
		EventWindow:    cfg.EventWindow,
	})

	srv := server.New(server.Config{
		Addr:           cfg.ListenAddr,
		ForwardTimeout: cfg.ForwardTimeout,
	}, service, collector, log.Logger)

	shutdown := NewShutdownHandler(log.Logger, cfg.ShutdownTimeout)
	shutdown.AddFunc("logger", func(context.Context) error { return log.Sync() })
	shutdown.Add("relay", service)
	shutdown.AddFunc("http_server", srv.Shutdown)

	return &Runner{
		config:   cfg,
		logger:   log,
		service:  service,
		server:   srv,
		shutdown: shutdown,
	}, nil
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives
func (r *Runner) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r.logger.Info("🚀 Starting relay",
		zap.String("listen_addr", r.config.ListenAddr),
		zap.String("network", r.config.Provider.Network),
		zap.Bool("provider_offline", r.config.Provider.Offline),
		zap.Bool("telegram_alerts", r.config.Telegram.Token != ""))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(r.server.Start)

	g.Go(func() error {
		<-gCtx.Done()
		r.logger.Info("📡 Shutdown requested")
		return r.shutdown.Shutdown(context.WithoutCancel(gCtx))
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("relay stopped: %w", err)
	}

	r.logger.Info("👋 Relay stopped")
	return nil
}
