// Package middleware – Prometheus instrumentation for HTTP traffic.
//
// Labels are kept low-cardinality: the path label uses the registered Gin
// route (e.g. /api/v1/messages/:id), falling back to the raw URL path only
// when no route matched.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// Status is omitted from the latency histogram to keep its cardinality
	// down.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// ClaimedMessages counts messages handed to workers per claim endpoint,
	// the gateway's main throughput signal.
	ClaimedMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_claimed_messages_total",
			Help: "Messages claimed by workers, by target status.",
		},
		[]string{"to_status"},
	)

	// ExpiredMessages counts messages retired by the expiry sweep or the
	// claim paths' pre-sweep.
	ExpiredMessages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_expired_messages_total",
			Help: "Messages transitioned to expired.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, ClaimedMessages, ExpiredMessages)
}

// Metrics returns a Gin middleware that instruments requests with
// Prometheus. Mount promhttp.Handler() on /metrics alongside it.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		httpReqs.WithLabelValues(method, path, status).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
