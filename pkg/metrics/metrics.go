// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HitsCaptured = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_hits_captured_total",
			Help: "Hits persisted, by whether an active campaign matched",
		},
		[]string{"campaign"},
	)

	CaptureFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_capture_failures_total",
			Help: "Hits lost because the persistence write failed",
		},
	)

	CaptureDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracker_capture_duration_seconds",
			Help:    "End-to-end capture pipeline latency",
			Buckets: prometheus.DefBuckets,
		},
	)

	GeoLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_geo_lookups_total",
			Help: "Geolocation lookups by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	GeoLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracker_geo_lookup_duration_seconds",
			Help:    "Geolocation provider call latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
		},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_http_requests_total",
			Help: "HTTP requests by method, route pattern and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tracker_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Geo lookup outcomes.
const (
	GeoSuccess     = "success"
	GeoFail        = "fail"
	GeoError       = "error"
	GeoBreakerOpen = "breaker_open"
	GeoSkipped     = "skipped"
)

// RecordHit counts a persisted hit.
func RecordHit(matched bool, took time.Duration) {
	label := "unmatched"
	if matched {
		label = "matched"
	}
	HitsCaptured.WithLabelValues(label).Inc()
	CaptureDuration.Observe(took.Seconds())
}

// RecordGeoLookup counts a lookup outcome for the named provider.
func RecordGeoLookup(provider, outcome string, took time.Duration) {
	GeoLookups.WithLabelValues(provider, outcome).Inc()
	if outcome != GeoSkipped && outcome != GeoBreakerOpen {
		GeoLookupDuration.Observe(took.Seconds())
	}
}

// RecordAPIRequest counts one served HTTP request.
func RecordAPIRequest(method, route, status string, took time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(took.Seconds())
}
