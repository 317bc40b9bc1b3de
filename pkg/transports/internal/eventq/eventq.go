// Package eventq is the event channel shared by the transport implementations.
package eventq

import (
	"sync"

	"github.com/mlsorensen/gotechnic"
)

// DefaultSize is enough for a full discovery burst.
const DefaultSize = 64

// Queue is a buffered event channel that can be closed while producers are still sending.
type Queue struct {
	ch     chan gotechnic.Event
	closed chan struct{}

	mu       sync.RWMutex
	isClosed bool
	once     sync.Once
}

// New creates a queue buffering size events.
func New(size int) *Queue {
	if size <= 0 {
		size = DefaultSize
	}
	return &Queue{
		ch:     make(chan gotechnic.Event, size),
		closed: make(chan struct{}),
	}
}

// C is the consumer side.
func (q *Queue) C() <-chan gotechnic.Event {
	return q.ch
}

// Emit delivers ev, blocking while the buffer is full. It returns false once the queue is
// closed.
func (q *Queue) Emit(ev gotechnic.Event) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.isClosed {
		return false
	}
	select {
	case q.ch <- ev:
		return true
	case <-q.closed:
		return false
	}
}

// Close unblocks pending producers and closes the consumer channel.
func (q *Queue) Close() {
	q.once.Do(func() {
		close(q.closed)

		q.mu.Lock()
		defer q.mu.Unlock()
		q.isClosed = true
		close(q.ch)
	})
}
