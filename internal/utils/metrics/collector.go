// internal/utils/metrics/collector.go
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so several relays can coexist in one
// process (tests build a fresh one per case). A nil *Collector is a no-op.
type Collector struct {
	registry        *prometheus.Registry
	callbacks       *prometheus.CounterVec
	classified      *prometheus.CounterVec
	forwards        *prometheus.CounterVec
	forwardDuration prometheus.Histogram
	gatewayCalls    *prometheus.CounterVec
	alerts          *prometheus.CounterVec
}

// NewCollector создает новый экземпляр коллектора метрик
func NewCollector() *Collector {
	c := &Collector{
		registry:        prometheus.NewRegistry(),
		callbacks:       newCallbackCounter(),
		classified:      newClassifiedCounter(),
		forwards:        newForwardCounter(),
		forwardDuration: newForwardDuration(),
		gatewayCalls:    newGatewayCounter(),
		alerts:          newAlertCounter(),
	}

	c.registry.MustRegister(
		c.callbacks,
		c.classified,
		c.forwards,
		c.forwardDuration,
		c.gatewayCalls,
		c.alerts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RegisterGauge exposes a value computed at scrape time
func (c *Collector) RegisterGauge(name, help string, fn func() float64) {
	if c == nil {
		return
	}
	c.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

// RecordCallback counts an inbound provider callback
func (c *Collector) RecordCallback(route string) {
	if c == nil {
		return
	}
	c.callbacks.WithLabelValues(route).Inc()
}

// RecordClassified counts a normalized event
func (c *Collector) RecordClassified(kind string) {
	if c == nil {
		return
	}
	c.classified.WithLabelValues(kind).Inc()
}

// RecordForward records a subscriber delivery
func (c *Collector) RecordForward(success bool, duration time.Duration) {
	if c == nil {
		return
	}
	c.forwards.WithLabelValues(status(success)).Inc()
	c.forwardDuration.Observe(duration.Seconds())
}

// RecordGatewayCall records a provider API call
func (c *Collector) RecordGatewayCall(op string, success bool) {
	if c == nil {
		return
	}
	c.gatewayCalls.WithLabelValues(op, status(success)).Inc()
}

// RecordAlert records an alert delivery
func (c *Collector) RecordAlert(success bool) {
	if c == nil {
		return
	}
	c.alerts.WithLabelValues(status(success)).Inc()
}
