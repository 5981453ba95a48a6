package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mxl-space/gr-hdfs/pkg/blocks"
)

// blockMetrics is the Prometheus implementation of blocks.Metrics.
type blockMetrics struct {
	chunksTotal *prometheus.CounterVec
	bytesTotal  *prometheus.CounterVec
}

// NewBlockMetrics creates a Prometheus-backed blocks.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called); blocks
// accept a nil Metrics and skip observation entirely.
func NewBlockMetrics() blocks.Metrics {
	reg := GetRegistry()
	if reg == nil {
		return nil
	}

	return &blockMetrics{
		chunksTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "grhdfs_chunks_total",
				Help: "Total transfer chunks by outcome",
			},
			[]string{"outcome"},
		),
		bytesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "grhdfs_bytes_total",
				Help: "Total transferred bytes by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (m *blockMetrics) observe(outcome string, bytes int) {
	m.chunksTotal.WithLabelValues(outcome).Inc()
	m.bytesTotal.WithLabelValues(outcome).Add(float64(bytes))
}

func (m *blockMetrics) ChunkEnqueued(bytes int) { m.observe("enqueued", bytes) }
func (m *blockMetrics) ChunkAppended(bytes int) { m.observe("appended", bytes) }
func (m *blockMetrics) ChunkDropped(bytes int)  { m.observe("dropped", bytes) }
func (m *blockMetrics) ChunkRead(bytes int)     { m.observe("read", bytes) }
