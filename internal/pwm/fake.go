package pwm

import (
	"context"
	"sync"

	"github.com/sweeney/taskcore/internal/logic"
)

// Fake is a test double recording every actuated command.
type Fake[T any] struct {
	mu     sync.Mutex
	cmds   []T
	closed bool

	// Err, if set, is returned by Actuate after recording the command.
	Err error
}

// FakeRGB records colours.
type FakeRGB = Fake[logic.RGB]

// FakeServo records angles.
type FakeServo = Fake[logic.Angle]

// Actuate records cmd.
func (f *Fake[T]) Actuate(ctx context.Context, cmd T) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmds = append(f.cmds, cmd)
	return f.Err
}

// Commands returns every actuated command in order.
func (f *Fake[T]) Commands() []T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]T(nil), f.cmds...)
}

// SetErr changes the injected error.
func (f *Fake[T]) SetErr(err error) {
	f.mu.Lock()
	f.Err = err
	f.mu.Unlock()
}

// Close marks the fake as closed.
func (f *Fake[T]) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (f *Fake[T]) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
