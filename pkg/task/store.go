// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the process-wide in-memory task store. Every operation takes the
// store lock; two separate calls are not atomic together, so a caller holding
// a Task must call Update explicitly to persist its own mutations.
type Store struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{tasks: make(map[string]*Task)}
}

// Create registers a new task in StateSubmitted and returns it.
func (s *Store) Create(_ context.Context, skill string, params map[string]any) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	t := &Task{
		ID:        uuid.NewString(),
		Skill:     skill,
		Params:    params,
		Status:    NewStatus(StateSubmitted, ""),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.tasks[t.ID] = t
	return t, nil
}

// Get returns the task with the given ID.
func (s *Store) Get(_ context.Context, id string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s not found", id)
	}
	return t, nil
}

// Update persists the given task, replacing any stored version.
func (s *Store) Update(_ context.Context, t *Task) error {
	if t == nil || t.ID == "" {
		return fmt.Errorf("task with an ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
	return nil
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	State State
	Skill string
	Limit int
}

// List returns tasks matching the filter, newest first.
func (s *Store) List(_ context.Context, filter Filter) ([]*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if filter.State != "" && t.Status.State != filter.State {
			continue
		}
		if filter.Skill != "" && t.Skill != filter.Skill {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Delete removes a task, reporting whether it existed.
func (s *Store) Delete(_ context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return false
	}
	delete(s.tasks, id)
	return true
}
