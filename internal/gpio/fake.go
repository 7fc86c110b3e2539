package gpio

import (
	"sync"

	"github.com/sweeney/taskcore/internal/logic"
)

// FakeSwitch is a test double recording every level it is driven to.
type FakeSwitch struct {
	mu     sync.Mutex
	levels []bool
	closed bool

	// SetError, if set, will be returned by Set()
	SetError error
}

// Set records the level.
func (f *FakeSwitch) Set(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	f.levels = append(f.levels, on)
	return nil
}

// Close marks the switch as closed.
func (f *FakeSwitch) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Levels returns every level set so far.
func (f *FakeSwitch) Levels() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.levels...)
}

// Level returns the last level set, false if never set.
func (f *FakeSwitch) Level() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.levels) == 0 {
		return false
	}
	return f.levels[len(f.levels)-1]
}

// Closed reports whether Close was called.
func (f *FakeSwitch) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// FakeButton injects falling edges into an edge source, standing in for the
// gpiocdev event handler.
type FakeButton struct {
	src    *logic.EdgeSource
	mu     sync.Mutex
	closed bool
}

// NewFakeButton creates a fake button feeding src.
func NewFakeButton(src *logic.EdgeSource) *FakeButton {
	return &FakeButton{src: src}
}

// Press delivers one falling edge at nowMs and reports whether it was accepted.
func (b *FakeButton) Press(nowMs uint32) bool {
	return b.src.OnEdge(nowMs)
}

// Bounce delivers a press at nowMs followed by contact bounce at the given
// millisecond offsets. It returns the number of accepted edges.
func (b *FakeButton) Bounce(nowMs uint32, offsets ...uint32) int {
	n := 0
	if b.Press(nowMs) {
		n++
	}
	for _, off := range offsets {
		if b.Press(nowMs + off) {
			n++
		}
	}
	return n
}

// Close marks the button as closed.
func (b *FakeButton) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (b *FakeButton) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
