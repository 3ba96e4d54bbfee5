package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	SyncDocuments *prometheus.CounterVec
	SyncRuns      *prometheus.CounterVec
	SyncDuration  prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "participations",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by route and status code",
			},
			[]string{"method", "route", "status"},
		),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "participations",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		SyncDocuments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "participations",
				Subsystem: "sync",
				Name:      "documents_total",
				Help:      "Collection documents handled by the sync job, by outcome",
			},
			[]string{"outcome"},
		),

		SyncRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "participations",
				Subsystem: "sync",
				Name:      "runs_total",
				Help:      "Sync job runs by status",
			},
			[]string{"status"},
		),

		SyncDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "participations",
				Subsystem: "sync",
				Name:      "run_duration_seconds",
				Help:      "Sync job duration in seconds",
				Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.SyncDocuments,
		m.SyncRuns,
		m.SyncDuration,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) ObserveDocument(outcome string) {
	if m == nil {
		return
	}
	m.SyncDocuments.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSyncRun(d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.SyncRuns.WithLabelValues(status).Inc()
	m.SyncDuration.Observe(d.Seconds())
}
