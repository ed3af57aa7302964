package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)
	validatorResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_validator_results_total",
			Help: "Token validation outcomes.",
		},
		[]string{"result"},
	)
	productsEmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_products_emitted_total",
			Help: "Product records written to feed responses.",
		},
		[]string{"mode"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(validatorResultsTotal)
	prometheus.MustRegister(productsEmittedTotal)
}

// RecordRequest records metrics for a served HTTP request.
func RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// RecordValidation counts one token validation outcome.
func RecordValidation(result string) {
	validatorResultsTotal.WithLabelValues(result).Inc()
}

// RecordProducts counts records emitted by one feed response.
func RecordProducts(mode string, count int) {
	productsEmittedTotal.WithLabelValues(mode).Add(float64(count))
}

func classifyStatus(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "2xx"
	} else if statusCode >= 300 && statusCode < 400 {
		return "3xx"
	} else if statusCode >= 400 && statusCode < 500 {
		return "4xx"
	} else if statusCode >= 500 && statusCode < 600 {
		return "5xx"
	}
	return "unknown"
}

// MetricsHandler returns the HTTP handler exporting prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
