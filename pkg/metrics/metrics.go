// Package metrics exposes Prometheus instrumentation for the Quasar
// runtime: execution counters and latency histograms for the executor, and
// sizing gauges for the object pools.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExecutionsTotal counts settled executions by command and status.
	ExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quasar_executions_total",
			Help: "Total number of settled command executions",
		},
		[]string{"command", "status"},
	)

	// ExecutionDuration tracks end-to-end execution latency per command.
	ExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quasar_execution_duration_seconds",
			Help:    "Command execution duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		},
		[]string{"command"},
	)

	// ExecutionsInFlight gauges currently running executions.
	ExecutionsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quasar_executions_in_flight",
			Help: "Number of executions currently running",
		},
	)

	// QueueDepth gauges executions waiting for a worker slot.
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quasar_queue_depth",
			Help: "Number of executions queued behind the concurrency bound",
		},
	)

	// PoolIdle gauges the idle set size per pool.
	PoolIdle = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "quasar_pool_idle_objects",
			Help: "Idle objects held by each pool",
		},
		[]string{"pool"},
	)

	// PoolActive gauges checked-out objects per pool.
	PoolActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "quasar_pool_active_objects",
			Help: "Objects currently checked out of each pool",
		},
		[]string{"pool"},
	)

	// PoolHitRate gauges the recycle hit rate per pool.
	PoolHitRate = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "quasar_pool_hit_rate",
			Help: "Fraction of acquisitions served from the idle set",
		},
		[]string{"pool"},
	)
)

// ObserveExecution records one settled execution.
func ObserveExecution(command, status string, duration time.Duration) {
	ExecutionsTotal.WithLabelValues(command, status).Inc()
	ExecutionDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// ObservePool updates the gauges for a pool snapshot.
func ObservePool(name string, idle, active int, hitRate float64) {
	PoolIdle.WithLabelValues(name).Set(float64(idle))
	PoolActive.WithLabelValues(name).Set(float64(active))
	PoolHitRate.WithLabelValues(name).Set(hitRate)
}
