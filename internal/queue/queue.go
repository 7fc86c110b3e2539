// Package queue provides the bounded command queue between short-lived
// request handlers and the task that drives an actuator.
//
// Submission never blocks by default: a full queue rejects the newest command
// and tells the caller, because commands carry "latest desired state" rather
// than an event log. Submit offers blocking backpressure as an alternative
// policy for producers that can afford to wait.
package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Forever makes Receive wait without a timeout.
const Forever time.Duration = -1

var (
	// ErrClosed is returned once the queue has been closed and drained.
	ErrClosed = errors.New("queue: closed")

	// ErrInvalidCapacity is returned by New for a capacity below one.
	ErrInvalidCapacity = errors.New("queue: capacity must be at least 1")
)

// Stats counts queue traffic since creation.
type Stats struct {
	Submitted uint64
	Dropped   uint64
	Delivered uint64
	Pending   int
	Capacity  int
}

// Queue is a fixed-capacity FIFO of command messages of type T.
// It is safe for any number of submitters and receivers.
type Queue[T any] struct {
	mu     sync.Mutex
	ring   *ring[T]
	closed bool

	ready chan struct{} // signalled when a message was added
	space chan struct{} // signalled when a message was removed
	done  chan struct{} // closed by Close

	submitted atomic.Uint64
	dropped   atomic.Uint64
	delivered atomic.Uint64
}

// New creates a queue holding at most capacity messages.
func New[T any](capacity int) (*Queue[T], error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	return &Queue[T]{
		ring:  newRing[T](capacity),
		ready: make(chan struct{}, 1),
		space: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}, nil
}

// TrySubmit enqueues msg without blocking.
// It returns false if the queue is full or closed; the queue is then unchanged.
func (q *Queue[T]) TrySubmit(msg T) bool {
	q.mu.Lock()
	ok := !q.closed && q.ring.push(msg)
	q.mu.Unlock()

	if !ok {
		q.dropped.Add(1)
		return false
	}
	q.submitted.Add(1)
	signal(q.ready)
	return true
}

// Submit enqueues msg, waiting for room until ctx is done.
func (q *Queue[T]) Submit(ctx context.Context, msg T) error {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return ErrClosed
		}
		ok := q.ring.push(msg)
		more := q.ring.len() < q.ring.cap()
		q.mu.Unlock()

		if ok {
			q.submitted.Add(1)
			signal(q.ready)
			if more {
				// Pass the room on to any other waiting submitter.
				signal(q.space)
			}
			return nil
		}

		select {
		case <-q.space:
		case <-q.done:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Receive returns the oldest message, waiting up to timeout for one to
// arrive. A timeout of Forever waits until a message arrives, ctx is done or
// the queue is closed; a timeout of zero polls.
// ok is false when the timeout elapsed with nothing to receive.
// Messages still queued at Close are delivered before ErrClosed.
func (q *Queue[T]) Receive(ctx context.Context, timeout time.Duration) (msg T, ok bool, err error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		q.mu.Lock()
		msg, ok = q.ring.pop()
		more := q.ring.len() > 0
		closed := q.closed
		q.mu.Unlock()

		if ok {
			q.delivered.Add(1)
			signal(q.space)
			if more {
				// Keep the wakeup alive for other receivers.
				signal(q.ready)
			}
			return msg, true, nil
		}
		if closed {
			return msg, false, ErrClosed
		}
		if timeout == 0 {
			return msg, false, nil
		}

		select {
		case <-q.ready:
		case <-q.done:
		case <-expired:
			return msg, false, nil
		case <-ctx.Done():
			return msg, false, ctx.Err()
		}
	}
}

// Close stops accepting messages and wakes every waiter.
// Closing twice is a no-op.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

// Len returns the number of pending messages.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ring.len()
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int {
	return q.ring.cap()
}

// Pending returns a copy of the pending messages in delivery order.
func (q *Queue[T]) Pending() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ring.snapshot()
}

// Stats returns the traffic counters.
func (q *Queue[T]) Stats() Stats {
	return Stats{
		Submitted: q.submitted.Load(),
		Dropped:   q.dropped.Load(),
		Delivered: q.delivered.Load(),
		Pending:   q.Len(),
		Capacity:  q.Cap(),
	}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
