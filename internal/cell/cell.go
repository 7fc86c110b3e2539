// Package cell provides the mutex-guarded holder of the latest value of a
// measured or controlled quantity.
//
// Every access takes the lock for the duration of an in-memory copy and
// releases it on every exit path. Callers never do I/O under the lock: they
// copy the value out with Read or Load and do the expensive work afterwards.
package cell

import "sync"

// Versioned is a value together with the generation that committed it.
// Generation 0 is the initial value; every successful write adds one.
type Versioned[T any] struct {
	Value      T
	Generation uint64
}

// Cell holds one value of type T behind an RWMutex.
// T should be a plain value type: a Cell hands out copies, so a T holding
// pointers or slices would leak shared memory past the lock.
type Cell[T any] struct {
	mu    sync.RWMutex
	value T
	gen   uint64
}

// New creates a Cell holding initial.
func New[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

// Read returns a copy of the current value.
func (c *Cell[T]) Read() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Load returns a copy of the current value and its generation.
func (c *Cell[T]) Load() Versioned[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Versioned[T]{Value: c.value, Generation: c.gen}
}

// Generation returns the number of committed writes.
func (c *Cell[T]) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// Write replaces the value.
func (c *Cell[T]) Write(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
	c.gen++
}

// Update applies fn to the value under the write lock.
// fn must not block and must not retain the pointer.
func (c *Cell[T]) Update(fn func(*T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.value)
	c.gen++
}

// TryUpdate applies fn to a copy of the value and commits the copy only if
// fn returns nil, so a compound update lands completely or not at all.
func (c *Cell[T]) TryUpdate(fn func(*T) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.value
	if err := fn(&next); err != nil {
		return err
	}
	c.value = next
	c.gen++
	return nil
}
