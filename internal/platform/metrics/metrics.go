// Package metrics declares the Prometheus collectors this repository
// exposes at /metrics: outbox publish outcomes, circuit breaker state
// transitions, and event bus handler dispatch outcomes.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector this process registers.
var Registry = prometheus.NewRegistry()

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wayfinder",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests handled, by method/path/status.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wayfinder",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	// OutboxPublishTotal counts each outbox publish attempt's outcome:
	// Pending, Published, or Failed.
	OutboxPublishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wayfinder",
			Subsystem: "outbox",
			Name:      "publish_total",
			Help:      "Outbox publish attempts, by outcome.",
		},
		[]string{"outcome"},
	)

	// CircuitBreakerTransitionsTotal counts mode transitions .
	CircuitBreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wayfinder",
			Subsystem: "circuit_breaker",
			Name:      "transitions_total",
			Help:      "Circuit breaker mode transitions, by service and resulting mode.",
		},
		[]string{"service", "mode"},
	)

	// HandlerDispatchTotal counts event bus handler dispatch outcomes ,
	// sourced from eventbus/application.Bus.HandlerCounts snapshots.
	HandlerDispatchTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "wayfinder",
			Subsystem: "eventbus",
			Name:      "handler_dispatch_total",
			Help:      "Event bus handler dispatch counts, by handler and outcome.",
		},
		[]string{"handler", "outcome"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		OutboxPublishTotal,
		CircuitBreakerTransitionsTotal,
		HandlerDispatchTotal,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// EventBusCounter is the narrow slice of eventbus/application.Bus this
// package polls for dispatch counts.
type EventBusCounter interface {
	HandlerCounts() (dispatched, failed map[string]int)
}

// SampleEventBusCounts refreshes HandlerDispatchTotal from bus's current
// snapshot. The composition root calls this on each /metrics scrape (or
// periodically) since the bus tracks counts itself rather than pushing them.
func SampleEventBusCounts(bus EventBusCounter) {
	dispatched, failed := bus.HandlerCounts()
	for handler, count := range dispatched {
		HandlerDispatchTotal.WithLabelValues(handler, "total").Set(float64(count))
	}
	for handler, count := range failed {
		HandlerDispatchTotal.WithLabelValues(handler, "failed").Set(float64(count))
	}
}

// Handler exposes the registry over HTTP for a Prometheus scrape.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps next with request-count and duration collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		httpRequests.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
