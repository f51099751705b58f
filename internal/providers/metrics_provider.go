package providers

import (
	"pinbot/internal/structures"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncMessagesTotal()
	IncPinsTotal()
	IncPinFailures()
	IncDownloadsTotal()
	IncDownloadFailures()
	IncInflightDownloads()
	DecInflightDownloads()
	AddSweepRemoved(count int)
	ObserveSweepDuration(duration time.Duration)
	SetRecordsTotal(count int)
}

type MetricsProvider struct {
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	messagesTotal     prometheus.Counter
	pinsTotal         prometheus.Counter
	pinFailures       prometheus.Counter
	downloadsTotal    prometheus.Counter
	downloadFailures  prometheus.Counter
	inflightDownloads prometheus.Gauge
	sweepRemoved      prometheus.Counter
	sweepDuration     prometheus.Histogram
	recordsTotal      prometheus.Gauge
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncMessagesTotal() {
	m.messagesTotal.Inc()
}

func (m *MetricsProvider) IncPinsTotal() {
	m.pinsTotal.Inc()
}

func (m *MetricsProvider) IncPinFailures() {
	m.pinFailures.Inc()
}

func (m *MetricsProvider) IncDownloadsTotal() {
	m.downloadsTotal.Inc()
}

func (m *MetricsProvider) IncDownloadFailures() {
	m.downloadFailures.Inc()
}

func (m *MetricsProvider) IncInflightDownloads() {
	m.inflightDownloads.Inc()
}

func (m *MetricsProvider) DecInflightDownloads() {
	m.inflightDownloads.Dec()
}

func (m *MetricsProvider) AddSweepRemoved(count int) {
	m.sweepRemoved.Add(float64(count))
}

func (m *MetricsProvider) ObserveSweepDuration(duration time.Duration) {
	m.sweepDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) SetRecordsTotal(count int) {
	m.recordsTotal.Set(float64(count))
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
			Name: "pinbot_requests_total",
			Help: "Total number of HTTP requests to the status server",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pinbot_request_duration_seconds",
			Help:    "Status server request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		messagesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pinbot_messages_total",
			Help: "Total number of message envelopes processed",
		}),

		pinsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pinbot_pins_total",
			Help: "Total number of successful gateway pins",
		}),

		pinFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pinbot_pin_failures_total",
			Help: "Total number of failed gateway pins",
		}),

		downloadsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pinbot_downloads_total",
			Help: "Total number of completed content downloads",
		}),

		downloadFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pinbot_download_failures_total",
			Help: "Total number of failed content downloads",
		}),

		inflightDownloads: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pinbot_inflight_downloads",
			Help: "Number of downloads currently in flight",
		}),

		sweepRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pinbot_sweep_removed_total",
			Help: "Total number of expired pins removed by sweeps",
		}),

		sweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pinbot_sweep_duration_seconds",
			Help:    "Duration of expiry sweeps in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		recordsTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pinbot_records_total",
			Help: "Current number of pin records in the store",
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncMessagesTotal()                                {}
func (n *noopMetrics) IncPinsTotal()                                    {}
func (n *noopMetrics) IncPinFailures()                                  {}
func (n *noopMetrics) IncDownloadsTotal()                               {}
func (n *noopMetrics) IncDownloadFailures()                             {}
func (n *noopMetrics) IncInflightDownloads()                            {}
func (n *noopMetrics) DecInflightDownloads()                            {}
func (n *noopMetrics) AddSweepRemoved(_ int)                            {}
func (n *noopMetrics) ObserveSweepDuration(_ time.Duration)             {}
func (n *noopMetrics) SetRecordsTotal(_ int)                            {}
