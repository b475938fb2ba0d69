// Prometheus instrumentation for the resilience subsystems. Collectors are
// package-level and registered once in init(), with label cardinality kept
// deliberately small ("result" is only ever ok|error).
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// operationPolls counts individual status polls by outcome.
	operationPolls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "operation_polls_total",
			Help: "Total number of operation status polls.",
		},
		[]string{"result"},
	)

	// operationsFinished counts tracked operations by terminal status.
	operationsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "operations_finished_total",
			Help: "Total number of tracked operations reaching a terminal state.",
		},
		[]string{"status"},
	)

	// telemetryFlushes counts flush attempts by outcome.
	telemetryFlushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_flushes_total",
			Help: "Total number of telemetry batch flush attempts.",
		},
		[]string{"result"},
	)

	// telemetryBatchSize records the number of events per attempted flush.
	telemetryBatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telemetry_flush_batch_size",
			Help:    "Number of events per telemetry flush attempt.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 200},
		},
	)

	// telemetryQueueDepth gauges the current in-memory event queue length.
	telemetryQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "telemetry_queue_depth",
			Help: "Current number of queued telemetry events.",
		},
	)

	// cacheEvictions counts entries removed by the quota policy.
	cacheEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "offline_cache_evictions_total",
			Help: "Total number of cached maps evicted by the quota policy.",
		},
	)

	// cacheMaps / cacheBytes gauge current offline store usage.
	cacheMaps = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "offline_cache_maps",
			Help: "Current number of cached maps.",
		},
	)
	cacheBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "offline_cache_bytes",
			Help: "Approximate total size of cached map payloads in bytes.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		operationPolls, operationsFinished,
		telemetryFlushes, telemetryBatchSize, telemetryQueueDepth,
		cacheEvictions, cacheMaps, cacheBytes,
	)
}

// outcome converts an error into the bounded result label.
func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObservePoll records one status poll attempt.
func ObservePoll(err error) { operationPolls.WithLabelValues(outcome(err)).Inc() }

// ObserveOperationFinished records a tracked operation reaching a terminal
// status ("completed", "failed", or "cancelled").
func ObserveOperationFinished(status string) {
	operationsFinished.WithLabelValues(status).Inc()
}

// ObserveFlush records one telemetry flush attempt of n events.
func ObserveFlush(n int, err error) {
	telemetryFlushes.WithLabelValues(outcome(err)).Inc()
	telemetryBatchSize.Observe(float64(n))
}

// SetQueueDepth updates the queued-event gauge.
func SetQueueDepth(n int) { telemetryQueueDepth.Set(float64(n)) }

// ObserveEviction records one quota-driven cache eviction.
func ObserveEviction() { cacheEvictions.Inc() }

// SetCacheUsage updates the offline store usage gauges.
func SetCacheUsage(count, bytes int64) {
	cacheMaps.Set(float64(count))
	cacheBytes.Set(float64(bytes))
}
