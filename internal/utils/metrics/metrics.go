// internal/utils/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "solana_relay"

// Определение метрик с лейблами
func newCallbackCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callbacks_received_total",
			Help:      "Provider callbacks received, by ingress route",
		},
		[]string{"route"},
	)
}

func newClassifiedCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_classified_total",
			Help:      "Normalized events produced by the classifier, by kind",
		},
		[]string{"kind"},
	)
}

func newForwardCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forwards_total",
			Help:      "Subscriber deliveries, by outcome",
		},
		[]string{"status"},
	)
}

func newForwardDuration() prometheus.Histogram {
	return prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "forward_duration_seconds",
			Help:      "Subscriber delivery duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 11),
		},
	)
}

func newGatewayCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Provider subscription API calls, by operation and outcome",
		},
		[]string{"op", "status"},
	)
}

func newAlertCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Human-readable alerts sent, by outcome",
		},
		[]string{"status"},
	)
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
