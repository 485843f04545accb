package node

import (
	"sync/atomic"
)

// State captures the state of a node: Discovering, Running, or Terminated.
// Transitions only go forward.
type State uint32

const (
	// Discovering is the initial state of a node, before it has processed
	// its first membership snapshot.
	Discovering State = iota
	// Running is where a node spends most of its time. Discovery continues in
	// this state whenever a new member joins.
	Running
	// Terminated nodes discard every message.
	Terminated
)

// String ...
func (s State) String() string {
	switch s {
	case Discovering:
		return "Discovering"
	case Running:
		return "Running"
	case Terminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

type state struct {
	state State
}

func (b *state) getState() State {
	stateAddr := (*uint32)(&b.state)
	return State(atomic.LoadUint32(stateAddr))
}

// advance moves to s if s is ahead of the current state, and reports whether
// the state changed.
func (b *state) advance(s State) bool {
	stateAddr := (*uint32)(&b.state)
	for {
		cur := atomic.LoadUint32(stateAddr)
		if uint32(s) <= cur {
			return false
		}
		if atomic.CompareAndSwapUint32(stateAddr, cur, uint32(s)) {
			return true
		}
	}
}
