// Package metrics exposes Prometheus collectors for the harvest pipeline.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Document origins.
const (
	OriginCache   = "cache"
	OriginNetwork = "network"
)

var (
	documentsTotal             *prometheus.CounterVec
	fetchesTotal               *prometheus.CounterVec
	fetchBytesTotal            *prometheus.CounterVec
	identityResolutionsTotal   *prometheus.CounterVec
	entrantsTotal              *prometheus.CounterVec
	rosterDroppedTotal         *prometheus.CounterVec
	rateLimitDelaysSeconds     *prometheus.HistogramVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		documentsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entries_documents_total",
				Help: "Source documents used by adapters, labeled by source and origin (cache or network).",
			},
			[]string{"source", "origin"},
		)

		fetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entries_fetches_total",
				Help: "Network fetches, labeled by site and status.",
			},
			[]string{"site", "status"},
		)

		fetchBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entries_fetch_bytes_total",
				Help: "Bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)

		identityResolutionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entries_identity_resolutions_total",
				Help: "Registry lookups, labeled by match reason.",
			},
			[]string{"reason"},
		)

		entrantsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entries_entrants_total",
				Help: "Entrants produced, labeled by source adapter.",
			},
			[]string{"source"},
		)

		rosterDroppedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entries_roster_dropped_total",
				Help: "Entrants removed by the roster filter, labeled by reason.",
			},
			[]string{"reason"},
		)

		rateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "entries_rate_limit_delays_seconds",
				Help:    "Histogram of rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"domain"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
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

// ObserveDocument counts a document served to an adapter.
func ObserveDocument(source, origin string) {
	Init()
	documentsTotal.WithLabelValues(source, origin).Inc()
}

// ObserveFetch counts a network fetch and its size.
func ObserveFetch(rawURL string, status string, bytesFetched int) {
	Init()
	site := SanitizeSite(rawURL)
	fetchesTotal.WithLabelValues(site, status).Inc()
	if bytesFetched > 0 {
		fetchBytesTotal.WithLabelValues(site).Add(float64(bytesFetched))
	}
}

// ObserveResolution counts a registry lookup by its match reason.
func ObserveResolution(reason string) {
	Init()
	identityResolutionsTotal.WithLabelValues(reason).Inc()
}

// ObserveEntrants adds n entrants produced by source.
func ObserveEntrants(source string, n int) {
	Init()
	entrantsTotal.WithLabelValues(source).Add(float64(n))
}

// ObserveRosterDrop counts n entrants removed by the roster filter.
func ObserveRosterDrop(reason string, n int) {
	Init()
	rosterDroppedTotal.WithLabelValues(reason).Add(float64(n))
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	Init()
	rateLimitDelaysSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
