// Package metrics collects Prometheus metrics for HTTP traffic and task
// operations and exposes them for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the service's Prometheus metrics.
type Collector struct {
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	taskOperations *prometheus.CounterVec
	rateLimited    prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todo_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "todo_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		taskOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todo_task_operations_total",
			Help: "Task service operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "todo_rate_limited_requests_total",
			Help: "Requests rejected by the per-user rate limiter.",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.taskOperations,
		c.rateLimited,
	)

	return c
}

// RecordHTTPRequest records one served request.
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordTaskOperation records the outcome of a task service operation.
func (c *Collector) RecordTaskOperation(operation, outcome string) {
	c.taskOperations.WithLabelValues(operation, outcome).Inc()
}

// RecordRateLimited records a request rejected with 429.
func (c *Collector) RecordRateLimited() {
	c.rateLimited.Inc()
}

// Handler returns the HTTP handler serving the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
