package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Tracks the number of HTTP requests.",
	})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Tracks the latencies for HTTP requests.",
		Buckets: prometheus.DefBuckets,
	})

	backendFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_backend_fetches_total",
		Help: "Backend requests by endpoint and outcome (ok, fallback, failed).",
	}, []string{"endpoint", "outcome"})

	contactSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_contact_submissions_total",
		Help: "Contact form submissions by final status.",
	}, []string{"status"})
)

// Fetch outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
	OutcomeFailed   = "failed"
)

func GetRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		requestsTotal,
		requestDuration,
		backendFetches,
		contactSubmissions,
	)

	return registry
}

func IncrementRequests() {
	requestsTotal.Inc()
}

func ObserveRequestDuration(seconds float64) {
	requestDuration.Observe(seconds)
}

// ObserveFetch counts one backend request for endpoint.
func ObserveFetch(endpoint, outcome string) {
	backendFetches.WithLabelValues(endpoint, outcome).Inc()
}

// ObserveSubmission counts one finished contact submission.
func ObserveSubmission(status string) {
	contactSubmissions.WithLabelValues(status).Inc()
}

// Middleware counts requests and their latency, except scrapes of metricsPath.
func Middleware(metricsPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == metricsPath {
			c.Next()
			return
		}
		start := time.Now()
		IncrementRequests()

		c.Next()

		ObserveRequestDuration(time.Since(start).Seconds())
	}
}
