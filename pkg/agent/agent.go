// SPDX-License-Identifier: Apache-2.0

// Package agent ties the pieces together: a named skill registry, an auth
// provider, a middleware chain, optional task tracking, and the dispatcher
// that runs one inbound call through all of them.
package agent

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jllopis/a2alite/pkg/auth"
	"github.com/jllopis/a2alite/pkg/middleware"
	"github.com/jllopis/a2alite/pkg/skill"
	"github.com/jllopis/a2alite/pkg/task"
)

// ErrorHandler turns a skill fault into the structured payload emitted to
// the caller. Returning an error reports both the original fault and the
// handler's own failure.
type ErrorHandler func(ctx context.Context, err error) (map[string]any, error)

// CompletionHook runs after a successful response has been emitted. Hook
// failures are logged, never surfaced to the caller.
type CompletionHook func(ctx context.Context, skill string, result any, mctx *middleware.Context) error

// LifecycleHook runs at agent startup or shutdown.
type LifecycleHook func(ctx context.Context) error

// Agent is the unit of deployment: a set of skills behind one auth
// boundary and one middleware chain.
type Agent struct {
	name        string
	description string
	version     string
	url         string

	registry *skill.Registry
	chain    *middleware.Chain
	provider auth.Provider
	store    *task.Store
	logger   *slog.Logger

	errorHandler    ErrorHandler
	completionHooks []CompletionHook
	startupHooks    []LifecycleHook
	shutdownHooks   []LifecycleHook
	statusCallbacks []task.StatusCallback
}

// Option configures an Agent instance.
type Option func(*Agent) error

// New creates an agent with a required name and options. The default agent
// has no authentication, no task store, and an empty middleware chain.
func New(name string, opts ...Option) (*Agent, error) {
	if name == "" {
		return nil, errors.New("agent name is required")
	}
	a := &Agent{
		name:     name,
		version:  "0.1.0",
		registry: skill.NewRegistry(),
		chain:    middleware.NewChain(),
		provider: auth.NoAuth{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// WithDescription sets the agent description for the discovery document.
func WithDescription(description string) Option {
	return func(a *Agent) error {
		a.description = description
		return nil
	}
}

// WithVersion sets the agent version.
func WithVersion(version string) Option {
	return func(a *Agent) error {
		a.version = version
		return nil
	}
}

// WithURL sets the advertised endpoint URL.
func WithURL(url string) Option {
	return func(a *Agent) error {
		a.url = url
		return nil
	}
}

// WithAuth sets the auth provider. auth.NoAuth{} disables enforcement.
func WithAuth(provider auth.Provider) Option {
	return func(a *Agent) error {
		if provider == nil {
			return errors.New("auth provider must not be nil")
		}
		a.provider = provider
		return nil
	}
}

// WithTaskStore enables task tracking for skills that declare a
// *task.Context parameter.
func WithTaskStore(store *task.Store) Option {
	return func(a *Agent) error {
		a.store = store
		return nil
	}
}

// WithMiddleware appends interceptors to the chain in the given order; the
// first one observes each call outermost.
func WithMiddleware(fns ...middleware.Func) Option {
	return func(a *Agent) error {
		for _, fn := range fns {
			a.chain.Use(fn)
		}
		return nil
	}
}

// WithErrorHandler installs a custom fault-to-response translator.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(a *Agent) error {
		a.errorHandler = handler
		return nil
	}
}

// WithCompletionHook appends a hook run after each successful response.
func WithCompletionHook(hook CompletionHook) Option {
	return func(a *Agent) error {
		a.completionHooks = append(a.completionHooks, hook)
		return nil
	}
}

// WithStartupHook appends a hook run by Start.
func WithStartupHook(hook LifecycleHook) Option {
	return func(a *Agent) error {
		a.startupHooks = append(a.startupHooks, hook)
		return nil
	}
}

// WithShutdownHook appends a hook run by Stop.
func WithShutdownHook(hook LifecycleHook) Option {
	return func(a *Agent) error {
		a.shutdownHooks = append(a.shutdownHooks, hook)
		return nil
	}
}

// WithStatusCallback registers a listener invoked on every task status
// change made through an injected task context.
func WithStatusCallback(callback task.StatusCallback) Option {
	return func(a *Agent) error {
		a.statusCallbacks = append(a.statusCallbacks, callback)
		return nil
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) error {
		if logger != nil {
			a.logger = logger
		}
		return nil
	}
}

// Name returns the agent name.
func (a *Agent) Name() string { return a.name }

// Description returns the agent description.
func (a *Agent) Description() string { return a.description }

// Version returns the agent version.
func (a *Agent) Version() string { return a.version }

// URL returns the advertised endpoint URL.
func (a *Agent) URL() string { return a.url }

// Registry exposes the skill registry for introspection.
func (a *Agent) Registry() *skill.Registry { return a.registry }

// AuthProvider returns the configured auth provider.
func (a *Agent) AuthProvider() auth.Provider { return a.provider }

// TaskStore returns the configured task store, or nil.
func (a *Agent) TaskStore() *task.Store { return a.store }

// Skill registers a handler under name. An empty name is derived from the
// handler's function name. Re-registering a name replaces the previous
// skill.
func (a *Agent) Skill(name string, handler any, opts ...skill.Option) (*skill.Definition, error) {
	return a.registry.Register(name, handler, opts...)
}

// MustSkill is Skill for static setup code; it panics on error.
func (a *Agent) MustSkill(name string, handler any, opts ...skill.Option) *skill.Definition {
	return a.registry.MustRegister(name, handler, opts...)
}

// Use appends an interceptor to the middleware chain.
func (a *Agent) Use(fn middleware.Func) { a.chain.Use(fn) }

// Start runs the startup hooks in registration order, stopping at the
// first failure.
func (a *Agent) Start(ctx context.Context) error {
	for _, hook := range a.startupHooks {
		if err := hook(ctx); err != nil {
			return err
		}
	}
	a.logger.InfoContext(ctx, "agent started", "agent", a.name, "skills", a.registry.Len())
	return nil
}

// Stop runs the shutdown hooks in registration order. All hooks run; the
// first failure is returned.
func (a *Agent) Stop(ctx context.Context) error {
	var first error
	for _, hook := range a.shutdownHooks {
		if err := hook(ctx); err != nil && first == nil {
			first = err
		}
	}
	a.logger.InfoContext(ctx, "agent stopped", "agent", a.name)
	return first
}

// enforcesAuth reports whether unauthenticated calls are rejected. The
// no-op provider still runs, so skills can inject an anonymous result, but
// its verdict is never enforced.
func (a *Agent) enforcesAuth() bool {
	switch a.provider.(type) {
	case auth.NoAuth, *auth.NoAuth:
		return false
	}
	return true
}
