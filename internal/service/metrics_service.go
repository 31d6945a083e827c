package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic,
// onboarding imports and report generation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	importRows      *prometheus.CounterVec
	importDuration  *prometheus.HistogramVec
	reportDuration  *prometheus.HistogramVec
	reportTotal     *prometheus.CounterVec
	transitions     *prometheus.CounterVec
}

// NewMetricsService registers the collectors on a private registry.
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

	importRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "onboarding_import_rows_total",
		Help: "Onboarding rows processed by outcome",
	}, []string{"kind", "outcome"})

	importDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "onboarding_import_duration_seconds",
		Help:    "Duration of onboarding batches",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"kind"})

	reportDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "activity_report_duration_seconds",
		Help:    "Duration of activity report generation",
		Buckets: prometheus.DefBuckets,
	}, []string{"format"})

	reportTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "activity_reports_total",
		Help: "Activity reports generated by format and result",
	}, []string{"format", "result"})

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "submission_transitions_total",
		Help: "Submission approval transitions by target status and result",
	}, []string{"status", "result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, importRows, importDuration, reportDuration, reportTotal, transitions, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		importRows:      importRows,
		importDuration:  importDuration,
		reportDuration:  reportDuration,
		reportTotal:     reportTotal,
		transitions:     transitions,
	}
}

// Registry exposes the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveImport records the outcome counts of one onboarding batch.
func (m *MetricsService) ObserveImport(kind string, imported, failed, skipped int, duration time.Duration) {
	if m == nil {
		return
	}
	m.importRows.WithLabelValues(kind, "imported").Add(float64(imported))
	m.importRows.WithLabelValues(kind, "failed").Add(float64(failed))
	m.importRows.WithLabelValues(kind, "skipped").Add(float64(skipped))
	m.importDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// ObserveReport records one report generation.
func (m *MetricsService) ObserveReport(format string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.reportTotal.WithLabelValues(format, result).Inc()
	m.reportDuration.WithLabelValues(format).Observe(duration.Seconds())
}

// ObserveTransition counts approval state changes, including refused ones.
func (m *MetricsService) ObserveTransition(status string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "refused"
	}
	m.transitions.WithLabelValues(status, result).Inc()
}
