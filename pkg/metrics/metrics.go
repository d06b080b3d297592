package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Scan pipeline metrics
	ScansResolved *prometheus.CounterVec // origin
	ScansRejected *prometheus.CounterVec // origin, reason

	// Session metrics
	SessionsOpened    prometheus.Counter
	SessionsCompleted prometheus.Counter
	SessionsCancelled prometheus.Counter
	LinesOverridden   prometheus.Counter

	// Relay metrics
	RelayPublished prometheus.Counter
	RelayQueued    prometheus.Gauge
	RelayResent    prometheus.Counter

	// Completion metrics
	LinesCommitted    prometheus.Counter
	CommitFailures    *prometheus.CounterVec // step
	InventoryDeducted prometheus.Counter
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "wms",
	}
}

// New creates a new Metrics instance
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	ns := config.Namespace

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	m.ScansResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "scans_resolved_total",
			Help:      "Scans resolved to an order line, by input origin",
		},
		[]string{"origin"},
	)
	m.ScansRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "scans_rejected_total",
			Help:      "Scans rejected by the session, by origin and reason",
		},
		[]string{"origin", "reason"},
	)

	m.SessionsOpened = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns, Name: "sessions_opened_total",
		Help: "Pick sessions opened",
	})
	m.SessionsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns, Name: "sessions_completed_total",
		Help: "Pick sessions with every line marked",
	})
	m.SessionsCancelled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns, Name: "sessions_cancelled_total",
		Help: "Pick sessions discarded before completion",
	})
	m.LinesOverridden = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns, Name: "lines_overridden_total",
		Help: "Lines marked by manual override instead of scan",
	})

	m.RelayPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns, Name: "relay_published_total",
		Help: "Relay scan messages broadcast successfully",
	})
	m.RelayQueued = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: ns, Name: "relay_queued",
		Help: "Captured scans waiting in the outbound relay queue",
	})
	m.RelayResent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns, Name: "relay_resent_total",
		Help: "Queued relay scans re-broadcast after reconnect",
	})

	m.LinesCommitted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns, Name: "lines_committed_total",
		Help: "Order lines committed by the completion coordinator",
	})
	m.CommitFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns, Name: "commit_failures_total",
			Help: "Completion commit failures by step",
		},
		[]string{"step"},
	)
	m.InventoryDeducted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns, Name: "inventory_units_deducted_total",
		Help: "Inventory units deducted on pick commit",
	})

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ScansResolved,
		m.ScansRejected,
		m.SessionsOpened,
		m.SessionsCompleted,
		m.SessionsCancelled,
		m.LinesOverridden,
		m.RelayPublished,
		m.RelayQueued,
		m.RelayResent,
		m.LinesCommitted,
		m.CommitFailures,
		m.InventoryDeducted,
	)

	return m
}

// ObserveHTTP records one HTTP request
func (m *Metrics) ObserveHTTP(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// Handler returns an http.Handler serving the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
