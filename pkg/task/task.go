// SPDX-License-Identifier: Apache-2.0

// Package task provides application-level task tracking for skills: a status
// lifecycle with append-only history, an in-memory store, and the Context
// handle injected into skills that report progress.
//
// This tracking is distinct from any protocol-level task notion owned by the
// transport; it exists so long-running skills can surface progress to callers.
package task

import (
	"time"
)

// State enumerates the A2A task lifecycle states.
type State string

const (
	StateSubmitted     State = "submitted"
	StateWorking       State = "working"
	StateInputRequired State = "input-required"
	StateCompleted     State = "completed"
	StateFailed        State = "failed"
	StateCanceled      State = "canceled"
	StateAuthRequired  State = "auth-required"
)

// IsTerminal reports whether no further transition is defined out of s.
func (s State) IsTerminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCanceled, StateInputRequired, StateAuthRequired:
		return true
	default:
		return false
	}
}

// Status is one immutable point in a task's lifecycle. Progress, when set,
// is in [0, 1].
type Status struct {
	State     State     `json:"state"`
	Message   string    `json:"message,omitempty"`
	Progress  *float64  `json:"progress,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewStatus builds a Status with the current timestamp and no progress.
func NewStatus(state State, message string) Status {
	return Status{State: state, Message: message, Timestamp: time.Now().UTC()}
}

// Task is a tracked invocation. Status holds the current state; History is
// the append-only sequence of superseded statuses, oldest first.
type Task struct {
	ID        string
	Skill     string
	Params    map[string]any
	Status    Status
	History   []Status
	Result    any
	Error     string
	Artifacts []any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UpdateStatus appends the current status to history and installs the new
// one. History is never rewritten in place.
func (t *Task) UpdateStatus(status Status) {
	t.History = append(t.History, t.Status)
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
}
