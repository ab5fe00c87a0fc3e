package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "diapertrack"

// Metrics holds the application collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	PurchasesRecorded prometheus.Counter
	PurchasesDeleted  prometheus.Counter
	BoxesOpened       prometheus.Counter
	ExportsGenerated  *prometheus.CounterVec
	ExportsQueued     *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New registers all collectors, plus the Go and process collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		PurchasesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchases_recorded_total",
			Help:      "Purchases added to the ledger.",
		}),
		PurchasesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchases_deleted_total",
			Help:      "Purchases removed from the ledger.",
		}),
		BoxesOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "boxes_opened_total",
			Help:      "Boxes given an opened date.",
		}),
		ExportsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_generated_total",
			Help:      "Exports rendered, by format.",
		}, []string{"format"}),
		ExportsQueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_queued_total",
			Help:      "Export jobs published to the broker, by format.",
		}, []string{"format"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.PurchasesRecorded,
		m.PurchasesDeleted,
		m.BoxesOpened,
		m.ExportsGenerated,
		m.ExportsQueued,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) PurchaseRecorded() {
	if m != nil {
		m.PurchasesRecorded.Inc()
	}
}

func (m *Metrics) PurchaseDeleted() {
	if m != nil {
		m.PurchasesDeleted.Inc()
	}
}

func (m *Metrics) BoxOpened() {
	if m != nil {
		m.BoxesOpened.Inc()
	}
}

func (m *Metrics) ExportGenerated(format string) {
	if m != nil {
		m.ExportsGenerated.WithLabelValues(format).Inc()
	}
}

func (m *Metrics) ExportQueued(format string) {
	if m != nil {
		m.ExportsQueued.WithLabelValues(format).Inc()
	}
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
