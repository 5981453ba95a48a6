package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxl-space/gr-hdfs/pkg/bufpool"
)

func TestPendingBuffer_AppendTake(t *testing.T) {
	pool := bufpool.New(4)
	var p pendingBuffer

	p.append([]byte("abcdef"))
	require.Equal(t, 6, p.len())

	chunk := p.take(4, pool)
	assert.Equal(t, "abcd", string(chunk))
	assert.Equal(t, 2, p.len())

	// The remainder shifted to the front of the arena.
	rest := p.takeAll(pool)
	assert.Equal(t, "ef", string(rest))
	assert.Equal(t, 0, p.len())
}

func TestPendingBuffer_ArenaReuse(t *testing.T) {
	pool := bufpool.New(8)
	var p pendingBuffer

	p.append([]byte("12345678"))
	before := cap(p.buf)
	_ = p.take(8, pool)

	// Refilling within the high-water mark must not grow the arena.
	p.append([]byte("abcdefgh"))
	assert.Equal(t, before, cap(p.buf))
	assert.Equal(t, "abcdefgh", string(p.takeAll(pool)))
}

func TestPendingBuffer_GrowPreservesContent(t *testing.T) {
	pool := bufpool.New(64)
	var p pendingBuffer

	p.append([]byte("head"))
	p.append(make([]byte, 100)) // force growth
	p.append([]byte("tail"))

	all := p.takeAll(pool)
	require.Len(t, all, 108)
	assert.Equal(t, "head", string(all[:4]))
	assert.Equal(t, "tail", string(all[104:]))
}

func TestLifecycleTransitions(t *testing.T) {
	var l lifecycle
	assert.Equal(t, StateIdle, l.current())

	assert.True(t, l.transition(StateIdle, StateRunning))
	assert.False(t, l.transition(StateIdle, StateRunning), "transitions are one-way")
	assert.True(t, l.transition(StateRunning, StateStopRequested))
	assert.True(t, l.transition(StateStopRequested, StateStopped))
	assert.False(t, l.transition(StateStopped, StateRunning), "stopped is terminal")
	assert.Equal(t, StateStopped, l.current())
}

func TestStateString(t *testing.T) {
	for state, want := range map[State]string{
		StateIdle:          "idle",
		StateRunning:       "running",
		StateStopRequested: "stop_requested",
		StateStopped:       "stopped",
	} {
		assert.Equal(t, want, state.String())
	}
}
