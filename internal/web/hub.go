package web

import (
	"context"
	"sync"
	"sync/atomic"
)

// Message is one broadcast to live clients.
type Message struct {
	Event string // SSE event name
	ID    int64  // SSE id
	Data  []byte
}

// subscriber is one live client (WebSocket or SSE).
type subscriber struct {
	mu     sync.Mutex
	send   chan Message
	closed bool
}

func newSubscriber(buffer int) *subscriber {
	return &subscriber{send: make(chan Message, buffer)}
}

// offer queues m without blocking. It reports false if the client is
// closed or too slow to keep up.
func (s *subscriber) offer(m Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.send <- m:
		return true
	default:
		return false
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.send)
	}
}

// Hub maintains the set of live clients and broadcasts messages to them.
// A client whose buffer is full is dropped rather than slowing the others.
type Hub struct {
	register   chan *subscriber
	unregister chan *subscriber
	broadcast  chan Message
	done       chan struct{}
	clients    atomic.Int64
	buffer     int
}

// NewHub creates a hub. Run must be started before clients can subscribe.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		broadcast:  make(chan Message, 16),
		done:       make(chan struct{}),
		buffer:     16,
	}
}

// Name identifies the hub in task listings.
func (h *Hub) Name() string { return "hub" }

// Run dispatches broadcasts until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) error {
	subs := make(map[*subscriber]bool)
	defer func() {
		close(h.done)
		for s := range subs {
			s.close()
		}
		h.clients.Store(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s := <-h.register:
			subs[s] = true
		case s := <-h.unregister:
			if subs[s] {
				delete(subs, s)
				s.close()
			}
		case m := <-h.broadcast:
			for s := range subs {
				if !s.offer(m) {
					delete(subs, s)
					s.close()
				}
			}
		}
		h.clients.Store(int64(len(subs)))
	}
}

// Broadcast queues m for every client without blocking.
// It reports false if the hub is stopped or saturated.
func (h *Hub) Broadcast(m Message) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.broadcast <- m:
		return true
	default:
		return false
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	return int(h.clients.Load())
}

func (h *Hub) subscribe(ctx context.Context) (*subscriber, bool) {
	s := newSubscriber(h.buffer)
	select {
	case h.register <- s:
		return s, true
	case <-h.done:
	case <-ctx.Done():
	}
	return nil, false
}

func (h *Hub) unsubscribe(s *subscriber) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}
