// Package metrics exposes Prometheus instruments for upstream requests,
// refreshes and identity resolution. A nil *Manager is valid and records
// nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Manager struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	upstreamRetries  *prometheus.CounterVec
	breakerState     *prometheus.GaugeVec

	refreshes       *prometheus.CounterVec
	refreshLatency  *prometheus.HistogramVec
	lastRefreshUnix *prometheus.GaugeVec

	resolved       *prometheus.CounterVec
	unresolved     *prometheus.CounterVec
	crosswalkRows  prometheus.Gauge
	datasetRecords *prometheus.GaugeVec
}

type Option func(*Manager)

func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

func WithBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.buckets = buckets
		}
	}
}

// WithRegistry registers instruments on r instead of a private registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "statlink",
		buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 180},
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	factory := promauto.With(m.registry)

	m.upstreamRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Upstream HTTP requests by provider and outcome.",
	}, []string{"provider", "outcome"})
	m.upstreamLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "upstream",
		Name:      "request_duration_seconds",
		Help:      "Upstream HTTP request latency per attempt.",
		Buckets:   m.buckets,
	}, []string{"provider"})
	m.upstreamRetries = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "upstream",
		Name:      "retries_total",
		Help:      "Retried upstream attempts.",
	}, []string{"provider"})
	m.breakerState = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "upstream",
		Name:      "circuit_open",
		Help:      "1 when the provider circuit breaker is open or half open.",
	}, []string{"provider"})

	m.refreshes = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "refresh",
		Name:      "runs_total",
		Help:      "Refresh runs by resource kind and outcome.",
	}, []string{"resource", "outcome"})
	m.refreshLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "refresh",
		Name:      "duration_seconds",
		Help:      "Refresh duration by resource kind.",
		Buckets:   m.buckets,
	}, []string{"resource"})
	m.lastRefreshUnix = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "refresh",
		Name:      "last_success_unix",
		Help:      "Unix time of the last successful refresh.",
	}, []string{"resource"})

	m.resolved = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "resolution",
		Name:      "resolved_total",
		Help:      "Records matched to a canonical player key.",
	}, []string{"provider"})
	m.unresolved = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "resolution",
		Name:      "unresolved_total",
		Help:      "Records whose native id is absent from the crosswalk.",
	}, []string{"provider"})
	m.crosswalkRows = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "crosswalk",
		Name:      "rows",
		Help:      "Rows in the active crosswalk snapshot.",
	})
	m.datasetRecords = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "dataset",
		Name:      "records",
		Help:      "Records held for the last fetched dataset per provider.",
	}, []string{"provider"})

	return m
}

func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Manager) ObserveUpstream(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(provider, outcome).Inc()
	m.upstreamLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (m *Manager) IncRetry(provider string) {
	if m == nil {
		return
	}
	m.upstreamRetries.WithLabelValues(provider).Inc()
}

func (m *Manager) SetBreakerOpen(provider string, open bool) {
	if m == nil {
		return
	}
	value := 0.0
	if open {
		value = 1
	}
	m.breakerState.WithLabelValues(provider).Set(value)
}

func (m *Manager) ObserveRefresh(resource, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(resource, outcome).Inc()
	m.refreshLatency.WithLabelValues(resource).Observe(elapsed.Seconds())
	if outcome == "success" {
		m.lastRefreshUnix.WithLabelValues(resource).Set(float64(time.Now().Unix()))
	}
}

func (m *Manager) AddResolution(provider string, resolved, unresolved int) {
	if m == nil {
		return
	}
	m.resolved.WithLabelValues(provider).Add(float64(resolved))
	m.unresolved.WithLabelValues(provider).Add(float64(unresolved))
}

func (m *Manager) SetCrosswalkRows(n int) {
	if m == nil {
		return
	}
	m.crosswalkRows.Set(float64(n))
}

func (m *Manager) SetDatasetRecords(provider string, n int) {
	if m == nil {
		return
	}
	m.datasetRecords.WithLabelValues(provider).Set(float64(n))
}
