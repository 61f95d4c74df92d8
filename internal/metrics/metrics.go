// Package metrics exposes Prometheus collectors for test executions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "proctor"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "runs_total",
		Help:      "Count of test executions by status and script type",
	}, []string{
		"status",
		"script_type",
	})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of test executions",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
	}, []string{
		"status",
	})

	persistenceErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "persistence_errors_total",
		Help:      "Count of failed reads and writes of the results file",
	}, []string{
		"op",
	})

	storedRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "stored_records",
		Help:      "Number of execution records held in memory",
	})
)

// RecordRun counts one finished execution.
func RecordRun(status, scriptType string, d time.Duration) {
	runsTotal.WithLabelValues(status, scriptType).Inc()
	runDuration.WithLabelValues(status).Observe(d.Seconds())
}

// RecordPersistenceError counts a failed load or save.
func RecordPersistenceError(op string) {
	persistenceErrorsTotal.WithLabelValues(op).Inc()
}

// SetStoredRecords reports the current size of the result store.
func SetStoredRecords(n int) {
	storedRecords.Set(float64(n))
}
