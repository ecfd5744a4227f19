// SPDX-License-Identifier: Apache-2.0

// Package event defines the outbound event channel between the dispatcher and
// the transport. The dispatcher only depends on the Sink interface; Queue is
// the bounded in-memory implementation used by the default wiring and tests.
package event

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Kind distinguishes ordinary skill output from tagged status updates.
type Kind string

const (
	// KindMessage is ordinary skill output or an error response.
	KindMessage Kind = "message"

	// KindStatus is a task status update emitted by a streaming-bound
	// task context.
	KindStatus Kind = "status"
)

// Event is one outbound text event.
type Event struct {
	Kind      Kind
	Text      string
	Timestamp time.Time
}

// NewMessage builds a message event with the current timestamp.
func NewMessage(text string) Event {
	return Event{Kind: KindMessage, Text: text, Timestamp: time.Now().UTC()}
}

// NewStatus builds a status event with the current timestamp.
func NewStatus(text string) Event {
	return Event{Kind: KindStatus, Text: text, Timestamp: time.Now().UTC()}
}

// Sink receives outbound events.
type Sink interface {
	Enqueue(ctx context.Context, event Event) error
}

// Queue errors.
var (
	ErrQueueClosed = errors.New("event queue is closed")
	ErrQueueFull   = errors.New("event queue is full")
)

// DefaultQueueSize bounds a Queue when no size is given.
const DefaultQueueSize = 1024

// Queue is a bounded in-memory event queue. Enqueue never blocks: a full
// queue is an error, matching the transport contract that slow consumers
// must not stall the dispatcher.
type Queue struct {
	events chan Event

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// NewQueue creates a queue holding at most size events. Size 0 selects
// DefaultQueueSize.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{events: make(chan Event, size)}
}

// Enqueue implements Sink.
func (q *Queue) Enqueue(ctx context.Context, event Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.events <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue blocks until an event is available, the queue is closed and
// drained, or the context is canceled.
func (q *Queue) Dequeue(ctx context.Context) (Event, error) {
	select {
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case event, ok := <-q.events:
		if !ok {
			return Event{}, ErrQueueClosed
		}
		return event, nil
	}
}

// Close marks the queue closed. Pending events remain readable until drained.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.events)
		q.mu.Unlock()
	})
}

// Drain returns every event currently buffered without blocking.
func (q *Queue) Drain() []Event {
	var out []Event
	for {
		select {
		case event, ok := <-q.events:
			if !ok {
				return out
			}
			out = append(out, event)
		default:
			return out
		}
	}
}
