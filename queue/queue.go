// Package queue is the generic FIFO transport used for the tasks,
// includer_tasks, events, ingestor_tasks and construct_proof queues.
// A concrete broker is an out-of-scope external collaborator; core packages
// depend only on the Queue interface below.
package queue

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Queue is a generic FIFO: publish, consume as a stream, close.
type Queue interface {
	Publish(ctx context.Context, msg []byte) error
	Consume(ctx context.Context) (<-chan []byte, error)
	Close() error
}

// InMemory is a channel-backed Queue for tests and single-process wiring.
type InMemory struct {
	mu     sync.Mutex
	ch     chan []byte
	closed bool
}

// NewInMemory returns an InMemory queue with the given buffer size.
func NewInMemory(buffer int) *InMemory {
	return &InMemory{ch: make(chan []byte, buffer)}
}

// Publish enqueues msg, blocking if the buffer is full until ctx is done.
func (q *InMemory) Publish(ctx context.Context, msg []byte) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return errClosed
	}
	q.mu.Unlock()
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume returns the underlying channel as a read-only stream.
func (q *InMemory) Consume(ctx context.Context) (<-chan []byte, error) {
	return q.ch, nil
}

// Close closes the queue; subsequent Publish calls fail.
func (q *InMemory) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.ch)
	return nil
}

// Envelope wraps a published payload with a correlation id, mirroring the
// upstream's uuid.New().String() id assignment in core/cross_chain.go.
type Envelope struct {
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

// Wrap assigns a fresh correlation id to payload and marshals the envelope.
func Wrap(payload []byte) ([]byte, error) {
	return json.Marshal(Envelope{ID: uuid.New().String(), Payload: payload})
}

// Unwrap extracts the correlation id and raw payload from an enveloped message.
func Unwrap(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

var errClosed = &queueError{"queue: closed"}

type queueError struct{ s string }

func (e *queueError) Error() string { return e.s }
