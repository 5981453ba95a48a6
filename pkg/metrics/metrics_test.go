package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The registry is package-global, so disabled and enabled behavior are
// exercised in one ordered test.
func TestMetricsLifecycle(t *testing.T) {
	assert.False(t, IsEnabled())
	assert.Nil(t, Handler())
	assert.Nil(t, NewBlockMetrics())
	assert.Nil(t, NewClientMetrics())

	InitRegistry()
	InitRegistry() // idempotent

	require.True(t, IsEnabled())
	require.NotNil(t, Handler())

	bm := NewBlockMetrics()
	require.NotNil(t, bm)
	bm.ChunkEnqueued(100)
	bm.ChunkAppended(100)
	bm.ChunkDropped(50)
	bm.ChunkRead(200)

	reg := GetRegistry()
	assert.Equal(t, float64(1), testutil.ToFloat64(
		bm.(*blockMetrics).chunksTotal.WithLabelValues("appended")))
	assert.Equal(t, float64(50), testutil.ToFloat64(
		bm.(*blockMetrics).bytesTotal.WithLabelValues("dropped")))

	cm := NewClientMetrics()
	require.NotNil(t, cm)
	cm.ObserveOp("APPEND", 200, 10*time.Millisecond, 1024)
	cm.ObserveOp("OPEN", 0, time.Millisecond, 0)

	count, err := testutil.GatherAndCount(reg,
		"grhdfs_chunks_total", "grhdfs_remote_requests_total")
	require.NoError(t, err)
	assert.Greater(t, count, 0)
}
