// internal/relay/service.go
package relay

import (
	"context"
	"time"

	"github.com/andres-erbsen/clock"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-relay/internal/classifier"
	"github.com/rovshanmuradov/solana-relay/internal/domain"
	"github.com/rovshanmuradov/solana-relay/internal/events"
	"github.com/rovshanmuradov/solana-relay/internal/monitor"
	"github.com/rovshanmuradov/solana-relay/internal/notify"
	"github.com/rovshanmuradov/solana-relay/internal/provider"
	"github.com/rovshanmuradov/solana-relay/internal/storage"
	"github.com/rovshanmuradov/solana-relay/internal/utils/metrics"
)

// Options configures a Service
type Options struct {
	Logger   *zap.Logger
	Clock    clock.Clock
	Gateway  provider.Gateway
	Notifier notify.Notifier
	Metrics  *metrics.Collector

	Network        string
	ForwardTimeout time.Duration
	TokenWindow    time.Duration
	EventWindow    time.Duration
}

// Service is the relay's shared state: both monitor registries, the polling
// buffers and the dispatch bus wiring them together. It lives for the whole
// process and starts empty.
type Service struct {
	Pools   *monitor.Registry
	Freezes *monitor.Registry

	Tokens          *storage.Buffer[domain.TokenDiscovery]
	LiquidityEvents *storage.Buffer[domain.Event]
	FreezeEvents    *storage.Buffer[domain.Event]

	classifier *classifier.Classifier
	forwarder  *Forwarder
	bus        *events.Bus
	notifier   notify.Notifier
	metrics    *metrics.Collector
	logger     *zap.Logger
	clock      clock.Clock
	startedAt  time.Time
	subs       []events.Subscription
}

// NewService builds the service context and subscribes its handlers
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	gateway := opts.Gateway
	if gateway == nil {
		gateway = provider.NewNopGateway(logger)
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	tokenWindow := opts.TokenWindow
	if tokenWindow <= 0 {
		tokenWindow = storage.DefaultTokenWindow
	}
	eventWindow := opts.EventWindow
	if eventWindow <= 0 {
		eventWindow = storage.DefaultEventWindow
	}

	s := &Service{
		Pools: monitor.NewRegistry(monitor.RegistryConfig{
			Kind:    monitor.KindPool,
			Gateway: gateway,
			Subscription: provider.Options{
				Network: opts.Network,
				Events:  []string{classifier.ActionSwap, classifier.ActionRemoveLiquidity},
				Type:    provider.CallbackTypeCallback,
			},
			Logger: logger,
			Clock:  clk,
		}),
		Freezes: monitor.NewRegistry(monitor.RegistryConfig{
			Kind:    monitor.KindFreeze,
			Gateway: gateway,
			Subscription: provider.Options{
				Network:   opts.Network,
				Type:      provider.CallbackTypeRaw,
				EnableRaw: true,
			},
			Logger: logger,
			Clock:  clk,
		}),
		Tokens:          storage.NewTokenBuffer(tokenWindow, clk),
		LiquidityEvents: storage.NewEventBuffer(eventWindow, clk),
		FreezeEvents:    storage.NewEventBuffer(eventWindow, clk),

		classifier: classifier.New(logger, clk),
		forwarder:  NewForwarder(opts.ForwardTimeout, logger, opts.Metrics),
		bus:        events.NewBus(logger),
		notifier:   notifier,
		metrics:    opts.Metrics,
		logger:     logger.Named("relay"),
		clock:      clk,
		startedAt:  clk.Now(),
	}

	s.subscribe()
	s.registerGauges()

	return s
}

func (s *Service) subscribe() {
	s.subs = append(s.subs, s.bus.SubscribeAll(events.AllKinds, events.HandlerFunc(s.countEvent))...)

	s.subs = append(s.subs,
		s.bus.SubscribeFunc(domain.KindPoolCreated, s.storeToken),
		s.bus.SubscribeFunc(domain.KindPoolCreated, s.forwardTo(s.Pools)),
		s.bus.SubscribeFunc(domain.KindPoolCreated, s.alert),
	)

	s.subs = append(s.subs, s.bus.SubscribeAll(events.LiquidityKinds, events.HandlerFunc(s.storeEvent(s.LiquidityEvents)))...)
	s.subs = append(s.subs, s.bus.SubscribeAll(events.LiquidityKinds, events.HandlerFunc(s.forwardTo(s.Pools)))...)

	s.subs = append(s.subs,
		s.bus.SubscribeFunc(domain.KindFreezeAccount, s.storeEvent(s.FreezeEvents)),
		s.bus.SubscribeFunc(domain.KindFreezeAccount, s.forwardTo(s.Freezes)),
		s.bus.SubscribeFunc(domain.KindFreezeAccount, s.alert),
	)
}

func (s *Service) registerGauges() {
	if s.metrics == nil {
		return
	}
	s.metrics.RegisterGauge("monitored_pools", "Pools with an active subscriber",
		func() float64 { return float64(s.Pools.Len()) })
	s.metrics.RegisterGauge("monitored_freeze_addresses", "Addresses watched for freeze instructions",
		func() float64 { return float64(s.Freezes.Len()) })
	s.metrics.RegisterGauge("pending_tokens", "Token discoveries waiting to be drained",
		func() float64 { return float64(s.Tokens.Len()) })
	s.metrics.RegisterGauge("buffered_liquidity_events", "Liquidity events held in memory",
		func() float64 { return float64(s.LiquidityEvents.Len()) })
	s.metrics.RegisterGauge("buffered_freeze_events", "Freeze events held in memory",
		func() float64 { return float64(s.FreezeEvents.Len()) })
}

// IngestPoolCreation classifies a pool creation callback and dispatches the result
func (s *Service) IngestPoolCreation(ctx context.Context, data any) bool {
	event, ok := s.classifier.PoolCreation(data)
	if !ok {
		return false
	}
	s.publish(ctx, event)
	return true
}

// IngestLiquidity classifies a swap or liquidity removal callback and dispatches the result
func (s *Service) IngestLiquidity(ctx context.Context, data any) bool {
	event, ok := s.classifier.Liquidity(data)
	if !ok {
		return false
	}
	s.publish(ctx, event)
	return true
}

// IngestFreeze looks for freeze instructions touching any monitored address
// and dispatches each one found. It returns the number of events.
func (s *Service) IngestFreeze(ctx context.Context, data any) int {
	count := 0
	for _, address := range s.Freezes.Keys() {
		for _, event := range s.classifier.Freeze(data, address) {
			s.publish(ctx, event)
			count++
		}
	}
	return count
}

// Uptime reports how long the service has been running
func (s *Service) Uptime() time.Duration {
	return s.clock.Now().Sub(s.startedAt)
}

// Close detaches every bus handler
func (s *Service) Close() error {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
	return nil
}

func (s *Service) publish(ctx context.Context, event domain.Event) {
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("Event dispatched with errors",
			zap.String("event_kind", string(event.Kind)),
			zap.String("key", event.Key),
			zap.Error(err))
	}
}

func (s *Service) countEvent(_ context.Context, event domain.Event) error {
	s.metrics.RecordClassified(string(event.Kind))
	return nil
}

func (s *Service) storeToken(_ context.Context, event domain.Event) error {
	if event.Pool == nil {
		return nil
	}
	rec := domain.NewTokenDiscovery(event.Key, event.Pool.MintAddress, s.clock.Now())
	s.Tokens.Append(rec)

	s.logger.Info("✅ Token discovered",
		zap.String("pool", rec.PoolAddress),
		zap.String("mint", rec.MintAddress))
	return nil
}

func (s *Service) storeEvent(buf *storage.Buffer[domain.Event]) func(context.Context, domain.Event) error {
	return func(_ context.Context, event domain.Event) error {
		buf.Append(event)
		return nil
	}
}

func (s *Service) forwardTo(registry Lookup) func(context.Context, domain.Event) error {
	return func(ctx context.Context, event domain.Event) error {
		s.forwarder.Forward(ctx, registry, event.Key, event)
		return nil
	}
}

func (s *Service) alert(ctx context.Context, event domain.Event) error {
	alert, ok := notify.AlertFromEvent(event)
	if !ok {
		return nil
	}
	err := s.notifier.Notify(ctx, alert)
	s.metrics.RecordAlert(err == nil)
	if err != nil {
		s.logger.Warn("Alert not delivered",
			zap.String("event_kind", string(event.Kind)),
			zap.String("key", event.Key),
			zap.Error(err))
	}
	return nil
}
