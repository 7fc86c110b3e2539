package logic

import (
	"sync/atomic"
	"time"
)

// DefaultDebounceWindow is the minimum spacing between two accepted edges.
const DefaultDebounceWindow = 200 * time.Millisecond

// EdgeSource turns raw falling edges into a debounced toggle.
//
// OnEdge runs in the edge (interrupt) context: it never blocks, never takes a
// lock and never allocates. State is published through atomics and a
// capacity-1 notification channel, so consumers see it eventually rather than
// linearizably with the edge.
type EdgeSource struct {
	window uint32 // ms

	last  atomic.Uint32 // ms timestamp of the last accepted edge
	state atomic.Bool

	accepted atomic.Uint64
	rejected atomic.Uint64

	notify chan struct{}
}

// EdgeStats counts accepted and rejected edges.
type EdgeStats struct {
	Accepted uint64
	Rejected uint64
	State    bool
}

// NewEdgeSource creates an edge source with the given debounce window.
// The window is truncated to whole milliseconds.
func NewEdgeSource(window time.Duration) *EdgeSource {
	return &EdgeSource{
		window: uint32(window / time.Millisecond),
		notify: make(chan struct{}, 1),
	}
}

// OnEdge handles one falling edge observed at nowMs on the wrapping
// millisecond clock. It returns true if the edge was accepted.
//
// Only one goroutine may call OnEdge (the edge dispatcher), matching a single
// interrupt line.
func (e *EdgeSource) OnEdge(nowMs uint32) bool {
	// Unsigned subtraction stays correct across the 2^32 ms wrap.
	if nowMs-e.last.Load() <= e.window {
		e.rejected.Add(1)
		return false
	}
	e.last.Store(nowMs)
	// Single writer, so load-then-store cannot lose a flip.
	e.state.Store(!e.state.Load())
	e.accepted.Add(1)

	select {
	case e.notify <- struct{}{}:
	default:
		// A notification is already pending; the consumer reads State() anyway.
	}
	return true
}

// State returns the current toggle state.
func (e *EdgeSource) State() bool {
	return e.state.Load()
}

// Notify returns the channel signalled after every accepted edge.
// Several edges between two reads collapse into one signal.
func (e *EdgeSource) Notify() <-chan struct{} {
	return e.notify
}

// Window returns the debounce window.
func (e *EdgeSource) Window() time.Duration {
	return time.Duration(e.window) * time.Millisecond
}

// Stats returns a snapshot of the edge counters.
func (e *EdgeSource) Stats() EdgeStats {
	return EdgeStats{
		Accepted: e.accepted.Load(),
		Rejected: e.rejected.Load(),
		State:    e.state.Load(),
	}
}

// MillisSince returns the wrapping 32-bit millisecond clock measured from start.
func MillisSince(start, now time.Time) uint32 {
	return uint32(now.Sub(start) / time.Millisecond)
}

// MillisFromDuration folds a monotonic duration (such as a kernel event
// timestamp) onto the wrapping millisecond clock.
func MillisFromDuration(d time.Duration) uint32 {
	return uint32(d / time.Millisecond)
}
