// Package metrics exposes Prometheus collectors for polling cycles, upstream
// queries and notifications. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "campwatch"

type Metrics struct {
	CyclesTotal          *prometheus.CounterVec
	CycleDuration        prometheus.Histogram
	UpstreamRequests     *prometheus.CounterVec
	AvailableCampgrounds prometheus.Gauge
	NotifiedCampgrounds  prometheus.Counter
	Deliveries           *prometheus.CounterVec

	registry *prometheus.Registry
}

// New registers every collector on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		CyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Polling cycles by outcome.",
		}, []string{"outcome"}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one polling cycle.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120, 300},
		}),
		UpstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Reservation API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		AvailableCampgrounds: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "available_campgrounds",
			Help:      "Available campgrounds found by the last cycle across all windows.",
		}),
		NotifiedCampgrounds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notified_campgrounds_total",
			Help:      "Newly available campgrounds included in a notification.",
		}),
		Deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Notification deliveries by notifier and outcome.",
		}, []string{"notifier", "outcome"}),
		registry: reg,
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) ObserveUpstream(endpoint string, err error) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(endpoint, outcome(err)).Inc()
}

func (m *Metrics) ObserveCycle(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.CyclesTotal.WithLabelValues(result).Inc()
	m.CycleDuration.Observe(d.Seconds())
}

func (m *Metrics) SetAvailable(n int) {
	if m == nil {
		return
	}
	m.AvailableCampgrounds.Set(float64(n))
}

func (m *Metrics) AddNotified(n int) {
	if m == nil {
		return
	}
	m.NotifiedCampgrounds.Add(float64(n))
}

func (m *Metrics) ObserveDelivery(notifier string, err error) {
	if m == nil {
		return
	}
	m.Deliveries.WithLabelValues(notifier, outcome(err)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
