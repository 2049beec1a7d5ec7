// internal/writer/queue.go
package writer

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrQueueFull is returned when a sample arrives and the queue has no room.
	ErrQueueFull = errors.New("writer: queue full")
	// ErrClosed is returned when operating on a closed queue.
	ErrClosed = errors.New("writer: queue closed")
)

// Message is one telemetry sample waiting for delivery.
type Message struct {
	ID       string
	Site     string
	TS       int64 // unix millis, taken at read time
	Values   map[string]float64
	Enqueued time.Time
}

// Queue is a bounded FIFO between read workers and the drainer.
// Publish never blocks: a full queue drops the sample.
type Queue struct {
	mu     sync.RWMutex
	ch     chan Message
	closed bool
}

func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan Message, capacity)}
}

func (q *Queue) Publish(msg Message) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}
	if msg.Enqueued.IsZero() {
		msg.Enqueued = time.Now()
	}

	select {
	case q.ch <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Consume blocks until a message is available, ctx is done, or the queue
// is closed and drained.
func (q *Queue) Consume(ctx context.Context) (Message, error) {
	select {
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case msg, ok := <-q.ch:
		if !ok {
			return Message{}, ErrClosed
		}
		return msg, nil
	}
}

// Close rejects further publishes. Pending messages can still be consumed.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}

func (q *Queue) Len() int { return len(q.ch) }
