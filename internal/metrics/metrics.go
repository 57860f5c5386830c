// Package metrics holds the prometheus instrumentation for the daemon.
// A dedicated registry (rather than the global default) keeps test runs
// isolated and the /metrics output free of unrelated collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every instrument the engine and API update.
type Metrics struct {
	registry *prometheus.Registry

	// PollsTotal counts poll ticks by outcome: "items", "not_modified",
	// "empty", "error".
	PollsTotal *prometheus.CounterVec

	// DispatchedTotal counts notifications handed to the sink, labelled by
	// origin: "poll" or "recovery".
	DispatchedTotal *prometheus.CounterVec

	// DispatchErrorsTotal counts sink delivery failures.
	DispatchErrorsTotal prometheus.Counter

	// RemoteErrorsTotal counts remote client failures by kind.
	RemoteErrorsTotal *prometheus.CounterVec

	// UnreadNotifications tracks the current unread row count.
	UnreadNotifications prometheus.Gauge
}

// New builds the metric set on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		PollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ghnotifier_polls_total",
			Help: "Poll ticks by outcome.",
		}, []string{"outcome"}),
		DispatchedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ghnotifier_notifications_dispatched_total",
			Help: "Notifications handed to the sink, by origin.",
		}, []string{"origin"}),
		DispatchErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ghnotifier_dispatch_errors_total",
			Help: "Sink delivery failures.",
		}),
		RemoteErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ghnotifier_remote_errors_total",
			Help: "Remote client failures by error kind.",
		}, []string{"kind"}),
		UnreadNotifications: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ghnotifier_unread_notifications",
			Help: "Current number of unread stored notifications.",
		}),
	}

	reg.MustRegister(
		m.PollsTotal,
		m.DispatchedTotal,
		m.DispatchErrorsTotal,
		m.RemoteErrorsTotal,
		m.UnreadNotifications,
	)
	return m
}

// Handler returns the HTTP handler serving the registry in the prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
