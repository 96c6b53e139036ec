// Package metrics exposes the booking engine's Prometheus collectors.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type bookingMetrics struct {
	reservations    *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	releaseFailures prometheus.Counter
	signatureFails  prometheus.Counter
	gatewayLatency  *prometheus.HistogramVec
	jobRuns         *prometheus.CounterVec
	sweep           *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
}

var (
	bookingOnce     sync.Once
	bookingRegistry *bookingMetrics
)

// Booking returns the lazily registered booking metrics.
func Booking() *bookingMetrics {
	bookingOnce.Do(func() {
		bookingRegistry = &bookingMetrics{
			reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "parkit",
				Subsystem: "booking",
				Name:      "reservations_total",
				Help:      "Reservation attempts segmented by outcome (created or error class).",
			}, []string{"outcome"}),
			transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "parkit",
				Subsystem: "booking",
				Name:      "transitions_total",
				Help:      "Order state transitions segmented by event and target state.",
			}, []string{"event", "to"}),
			releaseFailures: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "parkit",
				Subsystem: "booking",
				Name:      "capacity_release_failures_total",
				Help:      "Compensating capacity releases that failed and await the intent sweep.",
			}),
			signatureFails: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "parkit",
				Subsystem: "payment",
				Name:      "signature_failures_total",
				Help:      "Payment callbacks rejected because the signature did not verify.",
			}),
			gatewayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "parkit",
				Subsystem: "payment",
				Name:      "gateway_request_duration_seconds",
				Help:      "Latency of payment gateway calls.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation", "outcome"}),
			jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "parkit",
				Subsystem: "jobs",
				Name:      "runs_total",
				Help:      "Scheduled job executions segmented by job and outcome.",
			}, []string{"job", "outcome"}),
			sweep: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "parkit",
				Subsystem: "jobs",
				Name:      "intent_sweep_total",
				Help:      "Capacity intents handled by the sweep segmented by result.",
			}, []string{"result"}),
			httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "parkit",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests segmented by route and status code.",
			}, []string{"route", "status"}),
			httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "parkit",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP handler latency by route.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"route"}),
		}
		prometheus.MustRegister(
			bookingRegistry.reservations,
			bookingRegistry.transitions,
			bookingRegistry.releaseFailures,
			bookingRegistry.signatureFails,
			bookingRegistry.gatewayLatency,
			bookingRegistry.jobRuns,
			bookingRegistry.sweep,
			bookingRegistry.httpRequests,
			bookingRegistry.httpLatency,
		)
	})
	return bookingRegistry
}

func (m *bookingMetrics) ObserveReservation(outcome string) {
	if m == nil {
		return
	}
	m.reservations.WithLabelValues(outcome).Inc()
}

func (m *bookingMetrics) ObserveTransition(event, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(event, to).Inc()
}

func (m *bookingMetrics) ReleaseFailed() {
	if m == nil {
		return
	}
	m.releaseFailures.Inc()
}

func (m *bookingMetrics) SignatureFailed() {
	if m == nil {
		return
	}
	m.signatureFails.Inc()
}

func (m *bookingMetrics) ObserveGateway(operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.gatewayLatency.WithLabelValues(operation, outcome).Observe(d.Seconds())
}

func (m *bookingMetrics) ObserveJob(job string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.jobRuns.WithLabelValues(job, outcome).Inc()
}

func (m *bookingMetrics) ObserveSweep(abandoned, released, failed int) {
	if m == nil {
		return
	}
	m.sweep.WithLabelValues("abandoned").Add(float64(abandoned))
	m.sweep.WithLabelValues("released").Add(float64(released))
	m.sweep.WithLabelValues("failed").Add(float64(failed))
}

func (m *bookingMetrics) ObserveHTTP(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, statusLabel(status)).Inc()
	m.httpLatency.WithLabelValues(route).Observe(d.Seconds())
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
