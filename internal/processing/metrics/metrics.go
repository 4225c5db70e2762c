package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UnknownTypeCount tracks transactions skipped for missing data sections
	unknownTypeCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainsink_unknown_type_total",
			Help: "Total number of transactions with no recognizable data section",
		},
		[]string{"processor"},
	)

	// BatchesProcessed tracks successfully processed batches per processor
	batchesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainsink_batches_processed_total",
			Help: "Total number of batches processed",
		},
		[]string{"processor"},
	)

	// BatchesFailed tracks batches reported failed to the caller
	batchesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainsink_batches_failed_total",
			Help: "Total number of batches that failed persistence",
		},
		[]string{"processor"},
	)

	// ChunkInsertLatency tracks per-chunk upsert latency per table
	chunkInsertLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chainsink_chunk_insert_latency_seconds",
			Help:    "Chunked upsert latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"table"},
	)

	// ChunkFailures tracks failed chunk writes per table
	chunkFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainsink_chunk_failures_total",
			Help: "Total number of failed chunk writes",
		},
		[]string{"table"},
	)

	// DBConnectionPoolUsage tracks connection pool utilization percentage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chainsink_db_pool_usage_percent",
			Help: "Database connection pool usage percentage",
		},
	)
)

// Recorder is the observability handle passed into processors and the
// persistence engine. Tests substitute a no-op implementation.
type Recorder interface {
	UnknownType(processor string)
	BatchProcessed(processor string)
	BatchFailed(processor string)
	ChunkWritten(table string, duration time.Duration)
	ChunkFailed(table string)
}

type promRecorder struct{}

// NewPrometheus returns a Recorder backed by the package collectors.
func NewPrometheus() Recorder { return promRecorder{} }

func (promRecorder) UnknownType(processor string) {
	unknownTypeCount.WithLabelValues(processor).Inc()
}

func (promRecorder) BatchProcessed(processor string) {
	batchesProcessed.WithLabelValues(processor).Inc()
}

func (promRecorder) BatchFailed(processor string) {
	batchesFailed.WithLabelValues(processor).Inc()
}

func (promRecorder) ChunkWritten(table string, duration time.Duration) {
	chunkInsertLatency.WithLabelValues(table).Observe(duration.Seconds())
}

func (promRecorder) ChunkFailed(table string) {
	chunkFailures.WithLabelValues(table).Inc()
}

type nopRecorder struct{}

// NewNop returns a Recorder that records nothing.
func NewNop() Recorder { return nopRecorder{} }

func (nopRecorder) UnknownType(string)                 {}
func (nopRecorder) BatchProcessed(string)              {}
func (nopRecorder) BatchFailed(string)                 {}
func (nopRecorder) ChunkWritten(string, time.Duration) {}
func (nopRecorder) ChunkFailed(string)                 {}
