// SPDX-License-Identifier: Apache-2.0

package skill

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the registered skills of one agent. Registration under an
// existing name replaces the previous definition. Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	skills map[string]*Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{skills: make(map[string]*Definition)}
}

// Register analyzes handler and stores it under name. An empty name is
// derived from the handler's function name.
func (r *Registry) Register(name string, handler any, opts ...Option) (*Definition, error) {
	def, err := Define(name, handler, opts...)
	if err != nil {
		return nil, err
	}
	r.Add(def)
	return def, nil
}

// MustRegister is Register for static setup code; it panics on error.
func (r *Registry) MustRegister(name string, handler any, opts ...Option) *Definition {
	def, err := r.Register(name, handler, opts...)
	if err != nil {
		panic(err)
	}
	return def
}

// Add stores a pre-built definition, replacing any previous one.
func (r *Registry) Add(def *Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skills[def.Name] = def
}

// Get returns the definition registered under name.
func (r *Registry) Get(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.skills[name]
	return def, ok
}

// Names returns the registered skill names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.skills))
	for name := range r.skills {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the definitions ordered by name.
func (r *Registry) All() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]*Definition, 0, len(r.skills))
	for _, def := range r.skills {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Len returns the number of registered skills.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.skills)
}

// Sole returns the single registered skill when exactly one exists. The
// dispatcher uses it to auto-select a skill for unaddressed requests.
func (r *Registry) Sole() (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.skills) != 1 {
		return nil, false
	}
	for _, def := range r.skills {
		return def, true
	}
	return nil, false
}

// Resolve returns the definition for name, or a typed error naming the
// available skills when the registry is empty or the name is unknown.
func (r *Registry) Resolve(name string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if def, ok := r.skills[name]; ok {
		return def, nil
	}
	return nil, fmt.Errorf("unknown skill %q", name)
}
