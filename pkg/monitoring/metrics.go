package monitoring

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Poll cycle metrics
	pollCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_poll_cycles_total",
			Help: "Total number of alert poll cycles by outcome",
		},
		[]string{"outcome", "service"},
	)

	pollSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_poll_skipped_total",
			Help: "Total number of poll ticks skipped because the previous cycle was still running",
		},
		[]string{"service"},
	)

	// Alert emission metrics
	alertsFiredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_fired_total",
			Help: "Total number of alert notifications emitted",
		},
		[]string{"kind", "service"},
	)

	// Backend fetch metrics
	fetchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_fetch_errors_total",
			Help: "Total number of failed backend fetches",
		},
		[]string{"endpoint", "service"},
	)

	// Audio metrics
	audioErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_playback_errors_total",
			Help: "Total number of failed alert sound playbacks",
		},
		[]string{"service"},
	)

	// State gauges
	patientCacheSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "patient_cache_size",
			Help: "Number of patients held in the enrichment cache",
		},
		[]string{"service"},
	)

	armedSchedules = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "armed_schedules",
			Help: "Number of schedule ids currently held in a fired set",
		},
		[]string{"threshold", "service"},
	)

	registerOnce sync.Once
)

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	serviceName string
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(serviceName string) *MetricsCollector {
	// Register metrics once; tests construct multiple collectors
	registerOnce.Do(func() {
		prometheus.MustRegister(
			pollCyclesTotal,
			pollSkippedTotal,
			alertsFiredTotal,
			fetchErrorsTotal,
			audioErrorsTotal,
			patientCacheSize,
			armedSchedules,
		)
	})

	return &MetricsCollector{
		serviceName: serviceName,
	}
}

// RecordPollCycle records the outcome of a poll cycle
func (m *MetricsCollector) RecordPollCycle(outcome string) {
	pollCyclesTotal.WithLabelValues(outcome, m.serviceName).Inc()
}

// RecordPollSkipped records a tick skipped due to an overlapping cycle
func (m *MetricsCollector) RecordPollSkipped() {
	pollSkippedTotal.WithLabelValues(m.serviceName).Inc()
}

// RecordAlertFired records an emitted notification
func (m *MetricsCollector) RecordAlertFired(kind string) {
	alertsFiredTotal.WithLabelValues(kind, m.serviceName).Inc()
}

// RecordFetchError records a failed backend fetch
func (m *MetricsCollector) RecordFetchError(endpoint string) {
	fetchErrorsTotal.WithLabelValues(endpoint, m.serviceName).Inc()
}

// RecordAudioError records a failed sound playback
func (m *MetricsCollector) RecordAudioError() {
	audioErrorsTotal.WithLabelValues(m.serviceName).Inc()
}

// SetPatientCacheSize records the enrichment cache size
func (m *MetricsCollector) SetPatientCacheSize(size int) {
	patientCacheSize.WithLabelValues(m.serviceName).Set(float64(size))
}

// SetArmedSchedules records fired-set sizes per threshold
func (m *MetricsCollector) SetArmedSchedules(threshold string, count int) {
	armedSchedules.WithLabelValues(threshold, m.serviceName).Set(float64(count))
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.Handler()
}
