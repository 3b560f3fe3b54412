package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "plantwatch_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	preferenceMutations *prometheus.CounterVec
	readingOps          *prometheus.CounterVec

	storageErrors  *prometheus.CounterVec
	storageCorrupt *prometheus.CounterVec

	liveSensorUpdates *prometheus.CounterVec
	liveTickLatency   *prometheus.HistogramVec
	liveLoopsActive   prometheus.Gauge

	sessionLogins *prometheus.CounterVec
	alertEvents   *prometheus.CounterVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers metrics with the default registry.
func Init() {
	registerOnce.Do(func() {
		preferenceMutations = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "preference_mutations_total",
				Help: "Total preference mutations by operation and outcome",
			},
			[]string{"op", "outcome"},
		)
		readingOps = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "manual_reading_ops_total",
				Help: "Total manual reading operations by operation",
			},
			[]string{"op"},
		)

		storageErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "storage_errors_total",
				Help: "Total storage failures by namespace and operation",
			},
			[]string{"namespace", "op"},
		)
		storageCorrupt = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "storage_corrupt_total",
				Help: "Total corrupt payloads found on load by namespace",
			},
			[]string{"namespace"},
		)

		liveSensorUpdates = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "live_sensor_updates_total",
				Help: "Total simulated sensor updates by policy",
			},
			[]string{"policy"},
		)
		liveTickLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "live_tick_latency_seconds",
				Help:    "Live update tick latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"policy"},
		)
		liveLoopsActive = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "live_loops_active",
				Help: "Number of armed live update loops",
			},
		)

		sessionLogins = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "session_logins_total",
				Help: "Total login attempts by result",
			},
			[]string{"result"},
		)
		alertEvents = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alert_events_total",
				Help: "Total alert lifecycle events by type",
			},
			[]string{"event"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "readings_export_total",
				Help: "Total readings exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "readings_export_latency_seconds",
				Help:    "Readings export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			preferenceMutations,
			readingOps,
			storageErrors,
			storageCorrupt,
			liveSensorUpdates,
			liveTickLatency,
			liveLoopsActive,
			sessionLogins,
			alertEvents,
			exportTotal,
			exportLatency,
		)
	})
}

// IncPreferenceMutation counts a preference store mutation.
func IncPreferenceMutation(op, outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	if preferenceMutations != nil {
		preferenceMutations.WithLabelValues(op, outcome).Inc()
	}
}

// IncReadingOp counts a manual readings operation.
func IncReadingOp(op string) {
	if readingOps != nil {
		readingOps.WithLabelValues(op).Inc()
	}
}

// IncStorageError counts a failed load or save.
func IncStorageError(namespace, op string) {
	if storageErrors != nil {
		storageErrors.WithLabelValues(namespace, op).Inc()
	}
}

// IncStorageCorrupt counts a corrupt payload.
func IncStorageCorrupt(namespace string) {
	if storageCorrupt != nil {
		storageCorrupt.WithLabelValues(namespace).Inc()
	}
}

// ObserveLiveTick records one live update tick.
func ObserveLiveTick(policy string, updated int, duration time.Duration) {
	if liveSensorUpdates != nil && updated > 0 {
		liveSensorUpdates.WithLabelValues(policy).Add(float64(updated))
	}
	if liveTickLatency != nil {
		liveTickLatency.WithLabelValues(policy).Observe(duration.Seconds())
	}
}

// SetLiveLoopsActive sets the number of armed loops.
func SetLiveLoopsActive(count int) {
	if liveLoopsActive != nil {
		liveLoopsActive.Set(float64(count))
	}
}

// IncSessionLogin counts a login attempt.
func IncSessionLogin(result string) {
	if sessionLogins != nil {
		sessionLogins.WithLabelValues(result).Inc()
	}
}

// IncAlertEvent increments alert lifecycle counters.
func IncAlertEvent(event string) {
	if event == "" {
		event = "unknown"
	}
	if alertEvents != nil {
		alertEvents.WithLabelValues(event).Inc()
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	LoginAccepted = "accepted"
	LoginRejected = "rejected"
)
