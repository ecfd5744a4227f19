// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jllopis/a2alite/pkg/event"
)

// StatusCallback observes status changes on a tracked task.
type StatusCallback func(Status)

// Context is the per-invocation progress handle injected into skills that
// track tasks. It updates the backing store and notifies registered
// callbacks. When bound to an event sink for a streaming skill it also
// emits tagged status events alongside ordinary skill output.
type Context struct {
	task      *Task
	store     *Store
	sink      event.Sink
	callbacks []StatusCallback
}

// NewContext wraps a task. sink may be nil; progress is then tracked without
// a live event channel.
func NewContext(t *Task, store *Store, sink event.Sink) *Context {
	return &Context{task: t, store: store, sink: sink}
}

// TaskID returns the tracked task's ID.
func (c *Context) TaskID() string { return c.task.ID }

// State returns the tracked task's current state.
func (c *Context) State() State { return c.task.Status.State }

// Task returns the underlying task. The returned value may be stale relative
// to the store once other writers are involved.
func (c *Context) Task() *Task { return c.task }

// OnStatusChange registers a callback invoked after every Update.
func (c *Context) OnStatusChange(callback StatusCallback) {
	if callback != nil {
		c.callbacks = append(c.callbacks, callback)
	}
}

// UpdateOption customizes a status update.
type UpdateOption func(*Status)

// WithProgress attaches a progress value in [0, 1] to the update.
func WithProgress(progress float64) UpdateOption {
	return func(s *Status) {
		s.Progress = &progress
	}
}

// Update transitions the task, persists it, notifies callbacks, and emits a
// status event when the context is streaming-bound. Callback panics are not
// recovered; callback errors are the callback's own concern.
func (c *Context) Update(ctx context.Context, state State, message string, opts ...UpdateOption) error {
	status := NewStatus(state, message)
	for _, opt := range opts {
		if opt != nil {
			opt(&status)
		}
	}
	c.task.UpdateStatus(status)

	if c.store != nil {
		if err := c.store.Update(ctx, c.task); err != nil {
			return err
		}
	}

	for _, callback := range c.callbacks {
		callback(status)
	}

	if c.sink != nil {
		c.emitStatus(ctx, status)
	}
	return nil
}

// statusEvent is the tagged wire shape distinguishing status updates from
// ordinary skill output.
type statusEvent struct {
	Type   string `json:"_type"`
	TaskID string `json:"task_id"`
	Status Status `json:"status"`
}

func (c *Context) emitStatus(ctx context.Context, status Status) {
	payload, err := json.Marshal(statusEvent{
		Type:   "status_update",
		TaskID: c.task.ID,
		Status: status,
	})
	if err != nil {
		slog.WarnContext(ctx, "marshal status event", "task_id", c.task.ID, "error", err)
		return
	}
	if err := c.sink.Enqueue(ctx, event.NewStatus(string(payload))); err != nil {
		slog.WarnContext(ctx, "emit status event", "task_id", c.task.ID, "error", err)
	}
}
