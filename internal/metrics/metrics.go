// Package metrics holds the Prometheus instrumentation for the dispatcher.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lodgekeep/go-booking-notifications/pkg/notify"
)

// Metrics aggregates the dispatch counters. A nil *Metrics is valid and turns
// every observation into a no-op, so library users and tests can opt out.
type Metrics struct {
	dispatchesTotal         *prometheus.CounterVec
	channelAttemptsTotal    *prometheus.CounterVec
	resolutionFailuresTotal prometheus.Counter

	registry *prometheus.Registry
}

// New creates the metrics set on its own registry.
func New() *Metrics {
	m := &Metrics{
		dispatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_notify_dispatches_total",
			Help: "Total dispatched events by kind and aggregate result",
		}, []string{"kind", "result"}),
		channelAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_notify_channel_attempts_total",
			Help: "Per-channel delivery attempts by channel and result",
		}, []string{"channel", "result"}),
		resolutionFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booking_notify_admin_resolution_failures_total",
			Help: "Admin contact resolution chains that exhausted every strategy",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(m.dispatchesTotal, m.channelAttemptsTotal, m.resolutionFailuresTotal)
	return m
}

// Handler serves the registry for the /metrics route.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveDispatch(kind notify.EventKind, succeeded bool) {
	if m == nil {
		return
	}
	m.dispatchesTotal.WithLabelValues(string(kind), resultLabel(succeeded)).Inc()
}

func (m *Metrics) ObserveChannel(channel notify.Channel, succeeded bool) {
	if m == nil {
		return
	}
	m.channelAttemptsTotal.WithLabelValues(string(channel), resultLabel(succeeded)).Inc()
}

func (m *Metrics) ObserveResolutionFailure() {
	if m == nil {
		return
	}
	m.resolutionFailuresTotal.Inc()
}

func resultLabel(succeeded bool) string {
	if succeeded {
		return "success"
	}
	return "failure"
}
