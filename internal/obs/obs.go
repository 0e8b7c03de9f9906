// Package obs exposes Prometheus collectors for the metrics service. The name
// avoids colliding with the domain's own "metric" vocabulary.
package obs

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ingestItemsTotal           *prometheus.CounterVec
	ingestRequestsTotal        *prometheus.CounterVec
	upstreamRequestSeconds     *prometheus.HistogramVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		ingestItemsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tiktok_ingest_items_total",
				Help: "Total canonical records produced by ingestion, labeled by scope.",
			},
			[]string{"scope"},
		)

		ingestRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tiktok_ingest_requests_total",
				Help: "Total ingestion requests, labeled by scope and outcome.",
			},
			[]string{"scope", "status"},
		)

		upstreamRequestSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tiktok_upstream_request_duration_seconds",
				Help:    "Histogram of scraping provider call latencies, labeled by outcome.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"status"},
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
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 30, 120},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler exposing the Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveIngest records the outcome of one ingestion request.
func ObserveIngest(scope, status string, items int) {
	if ingestRequestsTotal == nil {
		return
	}
	ingestRequestsTotal.WithLabelValues(scope, status).Inc()
	if items > 0 {
		ingestItemsTotal.WithLabelValues(scope).Add(float64(items))
	}
}

// ObserveUpstream records one scraping provider call.
func ObserveUpstream(status string, duration time.Duration) {
	if upstreamRequestSeconds == nil {
		return
	}
	upstreamRequestSeconds.WithLabelValues(status).Observe(duration.Seconds())
}

// Middleware instruments HTTP requests with the shared counters. Routes are
// labeled by chi pattern so cardinality stays bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		if httpRequestsTotal == nil {
			return
		}
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(ww.status)).Inc()
		httpRequestDurationSeconds.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
