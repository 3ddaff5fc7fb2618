// Package observability holds the Prometheus collectors shared across the service.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Evidence outcomes.
const (
	EvidenceUploaded    = "uploaded"
	EvidencePassthrough = "passthrough"
	EvidenceFailed      = "failed"
)

var (
	evidenceCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "solar_back",
		Subsystem: "evidence",
		Name:      "images_total",
		Help:      "Evidence images processed, labeled by outcome.",
	}, []string{"outcome"})

	refreshPasses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "solar_back",
		Subsystem: "duration_refresh",
		Name:      "passes_total",
		Help:      "Duration refresh passes, labeled by result.",
	}, []string{"result"})

	refreshUpdated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "solar_back",
		Subsystem: "duration_refresh",
		Name:      "activities_updated_total",
		Help:      "Open activities whose duration label was rewritten.",
	})

	refreshFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "solar_back",
		Subsystem: "duration_refresh",
		Name:      "activity_failures_total",
		Help:      "Per-activity failures during refresh passes.",
	})

	refreshDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "solar_back",
		Subsystem: "duration_refresh",
		Name:      "pass_duration_seconds",
		Help:      "Time spent scanning and updating open activities.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	lastRefreshGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "solar_back",
		Subsystem: "duration_refresh",
		Name:      "last_pass_timestamp_seconds",
		Help:      "Unix timestamp of the most recent completed refresh pass.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "solar_back",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests, labeled by route pattern and status code.",
	}, []string{"route", "code"})
)

func init() {
	prometheus.MustRegister(evidenceCounter, refreshPasses, refreshUpdated, refreshFailures, refreshDuration, lastRefreshGauge, httpRequests)
}

// RecordEvidence counts one processed evidence image.
func RecordEvidence(outcome string) {
	evidenceCounter.WithLabelValues(outcome).Inc()
}

// RecordRefreshPass records a completed or failed refresh pass.
func RecordRefreshPass(started time.Time, updated, failures int, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	refreshPasses.WithLabelValues(result).Inc()
	refreshUpdated.Add(float64(updated))
	refreshFailures.Add(float64(failures))
	refreshDuration.Observe(time.Since(started).Seconds())
	if err == nil {
		lastRefreshGauge.Set(float64(time.Now().Unix()))
	}
}

// RecordHTTPRequest counts a served request.
func RecordHTTPRequest(route string, code int) {
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// EvidenceCount exposes the evidence counter for tests.
func EvidenceCount(outcome string) prometheus.Counter {
	return evidenceCounter.WithLabelValues(outcome)
}

// RefreshUpdatedCounter exposes the refresh update counter for tests.
func RefreshUpdatedCounter() prometheus.Counter {
	return refreshUpdated
}
