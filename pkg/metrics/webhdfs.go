package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mxl-space/gr-hdfs/pkg/webhdfs"
)

// clientMetrics is the Prometheus implementation of webhdfs.OpMetrics.
type clientMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestBytes    *prometheus.CounterVec
}

// NewClientMetrics creates a Prometheus-backed webhdfs.OpMetrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called); the
// client accepts a nil OpMetrics and skips observation entirely.
func NewClientMetrics() webhdfs.OpMetrics {
	reg := GetRegistry()
	if reg == nil {
		return nil
	}

	return &clientMetrics{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "grhdfs_remote_requests_total",
				Help: "Total remote store requests by operation and HTTP status",
			},
			[]string{"op", "status"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "grhdfs_remote_request_duration_seconds",
				Help: "Remote store request duration by operation",
				// Appends of large chunks can legitimately run for tens of
				// seconds; the upper buckets reflect that.
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"op"},
		),
		requestBytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "grhdfs_remote_request_bytes_total",
				Help: "Total payload bytes moved by remote store requests",
			},
			[]string{"op"},
		),
	}
}

// ObserveOp implements webhdfs.OpMetrics.
func (m *clientMetrics) ObserveOp(op string, code int, duration time.Duration, bytes int) {
	m.requestsTotal.WithLabelValues(op, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(op).Observe(duration.Seconds())
	if bytes > 0 {
		m.requestBytes.WithLabelValues(op).Add(float64(bytes))
	}
}
