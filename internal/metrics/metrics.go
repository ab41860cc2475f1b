// Package metrics exposes Prometheus collectors for the discovery pipeline.
package metrics

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pagesTotal               *prometheus.CounterVec
	candidatesTotal          *prometheus.CounterVec
	verdictsTotal            *prometheus.CounterVec
	usersTotal               *prometheus.CounterVec
	verifyDurationSeconds    *prometheus.HistogramVec
	activeWorkers            prometheus.Gauge
	outboundConnectionsInUse prometheus.Gauge
	rateLimitDelaysSeconds   *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		pagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prospector_pages_total",
				Help: "Total pages the crawler attempted, labeled by site and outcome.",
			},
			[]string{"site", "outcome"},
		)

		candidatesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prospector_candidates_total",
				Help: "Total candidate addresses extracted, labeled by source.",
			},
			[]string{"source"},
		)

		verdictsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prospector_verdicts_total",
				Help: "Total verification verdicts, labeled by verdict.",
			},
			[]string{"verdict"},
		)

		usersTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prospector_users_total",
				Help: "Total user records processed, labeled by result.",
			},
			[]string{"result"},
		)

		verifyDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prospector_verify_duration_seconds",
				Help:    "Histogram of verification phase latencies, labeled by phase.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"phase"},
		)

		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "prospector_active_workers",
				Help: "Number of workers currently processing a user pipeline.",
			},
		)

		outboundConnectionsInUse = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "prospector_outbound_connections_in_use",
				Help: "Outbound connection quota slots currently held.",
			},
		)

		rateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prospector_rate_limit_delays_seconds",
				Help:    "Histogram of per-domain politeness wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"domain"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePage records one crawl attempt for a site with the given outcome.
func ObservePage(site string, outcome string) {
	pagesTotal.WithLabelValues(SanitizeSite(site), outcome).Inc()
}

// ObserveCandidates adds extracted candidate counts for a source.
func ObserveCandidates(source string, count int) {
	if count > 0 {
		candidatesTotal.WithLabelValues(source).Add(float64(count))
	}
}

// ObserveVerdict increments the verdict counter.
func ObserveVerdict(verdict string) {
	verdictsTotal.WithLabelValues(verdict).Inc()
}

// ObserveUser increments the per-user result counter.
func ObserveUser(result string) {
	usersTotal.WithLabelValues(result).Inc()
}

// ObserveVerifyPhase records the duration of a verification phase.
func ObserveVerifyPhase(phase string, duration time.Duration) {
	verifyDurationSeconds.WithLabelValues(phase).Observe(duration.Seconds())
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	activeWorkers.Dec()
}

// IncOutboundInUse increments the outbound quota gauge.
func IncOutboundInUse() {
	outboundConnectionsInUse.Inc()
}

// DecOutboundInUse decrements the outbound quota gauge.
func DecOutboundInUse() {
	outboundConnectionsInUse.Dec()
}

// ObserveRateLimitDelay records the duration of a politeness wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	rateLimitDelaysSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}
