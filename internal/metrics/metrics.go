// Package metrics exposes Prometheus collectors for the crawler and ranking API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	crawlerFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skiranker_fetches_total",
			Help: "Total number of listing page fetches, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	crawlerPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skiranker_pages_total",
			Help: "Total number of listing pages processed, labeled by status.",
		},
		[]string{"status"},
	)

	crawlerRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skiranker_records_total",
			Help: "Total number of extracted resort records, labeled by validation result.",
		},
		[]string{"result"},
	)

	crawlerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skiranker_crawl_runs_total",
			Help: "Total number of crawl runs, labeled by status.",
		},
		[]string{"status"},
	)

	routingRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skiranker_routing_requests_total",
			Help: "Total number of routing service calls, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	routingRequestDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "skiranker_routing_request_duration_seconds",
			Help:    "Histogram of routing service call latencies.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
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
)

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch counts one page fetch with the given outcome ("ok" or a failure kind).
func ObserveFetch(outcome string) {
	crawlerFetchesTotal.WithLabelValues(outcome).Inc()
}

// ObservePage counts one processed ("ok") or skipped ("skipped") page.
func ObservePage(status string) {
	crawlerPagesTotal.WithLabelValues(status).Inc()
}

// ObserveRecords adds validation results for one page.
func ObserveRecords(accepted, rejected int) {
	if accepted > 0 {
		crawlerRecordsTotal.WithLabelValues("accepted").Add(float64(accepted))
	}
	if rejected > 0 {
		crawlerRecordsTotal.WithLabelValues("rejected").Add(float64(rejected))
	}
}

// ObserveCrawlRun counts a finished crawl run.
func ObserveCrawlRun(status string) {
	crawlerRunsTotal.WithLabelValues(status).Inc()
}

// ObserveRoutingRequest records a routing call and its latency.
func ObserveRoutingRequest(outcome string, duration time.Duration) {
	routingRequestsTotal.WithLabelValues(outcome).Inc()
	routingRequestDurationSeconds.Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
