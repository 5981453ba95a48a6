package blocks

import (
	"fmt"
	"sync/atomic"
)

// State is the lifecycle state of a block. Transitions are one-directional:
// Idle → Running → StopRequested → Stopped, with the shortcut Idle → Stopped
// for a block that is stopped without ever starting. Stopped is terminal.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopRequested
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopRequested:
		return "stop_requested"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("blocks.State(%d)", int32(s))
	}
}

// lifecycle is an atomically updated State.
type lifecycle struct {
	v atomic.Int32
}

func (l *lifecycle) current() State {
	return State(l.v.Load())
}

// transition moves from one state to the next; it reports false if the
// current state is not the expected one.
func (l *lifecycle) transition(from, to State) bool {
	return l.v.CompareAndSwap(int32(from), int32(to))
}
