package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// background jobs.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	sweepProcessed  prometheus.Counter
	sweepDuration   prometheus.Histogram
	payrollCreated  prometheus.Counter
	ordersCancelled prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	sweepProcessed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sweep_lessons_processed_total",
		Help: "Lessons back-filled by the missed-lesson sweep",
	})

	sweepDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sweep_duration_seconds",
		Help:    "Duration of sweep runs",
		Buckets: prometheus.DefBuckets,
	})

	payrollCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payroll_records_created_total",
		Help: "Payroll records created at class completion",
	})

	ordersCancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Stale pending orders cancelled",
	})

	registry.MustRegister(requestDuration, requestTotal, sweepProcessed, sweepDuration, payrollCreated, ordersCancelled)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		sweepProcessed:  sweepProcessed,
		sweepDuration:   sweepDuration,
		payrollCreated:  payrollCreated,
		ordersCancelled: ordersCancelled,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one HTTP request sample.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveSweep records one sweep run.
func (s *MetricsService) ObserveSweep(processed int, duration time.Duration) {
	s.sweepProcessed.Add(float64(processed))
	s.sweepDuration.Observe(duration.Seconds())
}

// IncPayrollCreated counts one payroll record creation.
func (s *MetricsService) IncPayrollCreated() {
	s.payrollCreated.Inc()
}

// AddOrdersCancelled counts cancelled stale orders.
func (s *MetricsService) AddOrdersCancelled(count int) {
	s.ordersCancelled.Add(float64(count))
}
