package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "product_insights"

// requestMetrics records per-route HTTP metrics in a registry owned by one Server.
type requestMetrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	products prometheus.Gauge
}

func newRequestMetrics() *requestMetrics {
	reg := prometheus.NewRegistry()
	auto := promauto.With(reg)
	labels := []string{"endpoint", "method", "status_code"}

	return &requestMetrics{
		registry: reg,
		requests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		}, labels),
		duration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, labels),
		products: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "products_loaded",
			Help:      "Number of products in the base set",
		}),
	}
}

// instrument wraps next and records its status and latency under endpoint.
func (m *requestMetrics) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		status := strconv.Itoa(wrapped.statusCode)
		m.requests.WithLabelValues(endpoint, r.Method, status).Inc()
		m.duration.WithLabelValues(endpoint, r.Method, status).
			Observe(float64(time.Since(start).Microseconds()) / 1000)
	}
}

func (m *requestMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
