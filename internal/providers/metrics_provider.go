package providers

import (
	"fitsink/internal/structures"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncWebhooksReceived(provider, event string)
	IncSignatureRejections(provider string)
	IncRecordsWritten(kind string, count int)
	IncDuplicatesSkipped(kind string, count int)
	IncRecordFailures(kind string, count int)
	ObservePersistenceDuration(duration time.Duration)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	webhooksReceived    *prometheus.CounterVec
	signatureRejections *prometheus.CounterVec
	recordsWritten      *prometheus.CounterVec
	duplicatesSkipped   *prometheus.CounterVec
	recordFailures      *prometheus.CounterVec
	persistenceDuration prometheus.Histogram
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncWebhooksReceived(provider, event string) {
	m.webhooksReceived.WithLabelValues(provider, event).Inc()
}

func (m *MetricsProvider) IncSignatureRejections(provider string) {
	m.signatureRejections.WithLabelValues(provider).Inc()
}

func (m *MetricsProvider) IncRecordsWritten(kind string, count int) {
	m.recordsWritten.WithLabelValues(kind).Add(float64(count))
}

func (m *MetricsProvider) IncDuplicatesSkipped(kind string, count int) {
	m.duplicatesSkipped.WithLabelValues(kind).Add(float64(count))
}

func (m *MetricsProvider) IncRecordFailures(kind string, count int) {
	m.recordFailures.WithLabelValues(kind).Add(float64(count))
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fitsink_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fitsink_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		webhooksReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fitsink_webhooks_received_total",
			Help: "Webhook deliveries accepted past signature verification",
		}, []string{"provider", "event"}),

		signatureRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fitsink_signature_rejections_total",
			Help: "Webhook deliveries rejected for a missing or invalid signature",
		}, []string{"provider"}),

		recordsWritten: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fitsink_records_written_total",
			Help: "Normalized records persisted",
		}, []string{"kind"}),

		duplicatesSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fitsink_duplicates_skipped_total",
			Help: "Normalized records skipped because their natural key already existed",
		}, []string{"kind"}),

		recordFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fitsink_record_failures_total",
			Help: "Normalized records that failed to persist",
		}, []string{"kind"}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fitsink_persistence_duration_seconds",
			Help:    "Duration of persistence operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncWebhooksReceived(_, _ string)                  {}
func (n *noopMetrics) IncSignatureRejections(_ string)                  {}
func (n *noopMetrics) IncRecordsWritten(_ string, _ int)                {}
func (n *noopMetrics) IncDuplicatesSkipped(_ string, _ int)             {}
func (n *noopMetrics) IncRecordFailures(_ string, _ int)                {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
