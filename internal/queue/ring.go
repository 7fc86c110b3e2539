package queue

// ring is a fixed-capacity FIFO preallocated at construction.
// Not safe for concurrent use; the Queue holds its lock around every call.
type ring[T any] struct {
	buf   []T
	head  int // next read position
	count int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{buf: make([]T, capacity)}
}

// push appends msg and reports whether there was room.
// A full ring is left unchanged.
func (r *ring[T]) push(msg T) bool {
	if r.count == len(r.buf) {
		return false
	}
	r.buf[(r.head+r.count)%len(r.buf)] = msg
	r.count++
	return true
}

// pop removes and returns the oldest message.
func (r *ring[T]) pop() (T, bool) {
	var zero T
	if r.count == 0 {
		return zero, false
	}
	msg := r.buf[r.head]
	r.buf[r.head] = zero
	r.head = (r.head + 1) % len(r.buf)
	r.count--
	return msg, true
}

// snapshot copies the pending messages, oldest first.
func (r *ring[T]) snapshot() []T {
	if r.count == 0 {
		return nil
	}
	out := make([]T, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

func (r *ring[T]) len() int {
	return r.count
}

func (r *ring[T]) cap() int {
	return len(r.buf)
}
