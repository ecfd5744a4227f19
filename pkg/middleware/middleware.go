// SPDX-License-Identifier: Apache-2.0

// Package middleware implements the interceptor chain around skill dispatch.
//
// Interceptors run in registration order: the first interceptor added is the
// outermost and observes the call first. Each receives the shared mutable
// *Context and a continuation; it may pass through, rewrite the result,
// short-circuit by not calling the continuation, or return an error that
// propagates outward through already-entered interceptors.
package middleware

import "context"

// Context is the shared mutable state threaded through the chain and into
// the final handler. Metadata is the sanctioned channel for interceptors to
// pass data forward; Skill and Params may be rewritten by early interceptors
// to redirect dispatch.
type Context struct {
	// Skill is the resolved skill name, empty while unresolved.
	Skill string

	// Params are the decoded call parameters.
	Params map[string]any

	// Message is the raw inbound message text.
	Message string

	// Metadata carries inter-interceptor state (timings, request IDs,
	// injected auth results, part references, event sinks).
	Metadata map[string]any
}

// NewContext builds a Context with an initialized metadata map.
func NewContext(skill string, params map[string]any, message string) *Context {
	if params == nil {
		params = map[string]any{}
	}
	return &Context{
		Skill:    skill,
		Params:   params,
		Message:  message,
		Metadata: map[string]any{},
	}
}

// Next is the continuation an interceptor invokes to proceed to the next
// interceptor or the final handler.
type Next func() (any, error)

// Func is one interceptor. ctx is the inbound call's context; mctx is shared
// by every interceptor and the final handler.
type Func func(ctx context.Context, mctx *Context, next Next) (any, error)

// Handler is the final handler at the end of the chain.
type Handler func(ctx context.Context, mctx *Context) (any, error)

// Chain is an ordered list of interceptors.
type Chain struct {
	funcs []Func
}

// NewChain creates an empty chain.
func NewChain() *Chain {
	return &Chain{}
}

// Use appends an interceptor to the chain.
func (c *Chain) Use(fn Func) {
	if fn != nil {
		c.funcs = append(c.funcs, fn)
	}
}

// Len returns the number of registered interceptors.
func (c *Chain) Len() int {
	return len(c.funcs)
}

// Execute runs the chain around final. An empty chain behaves identically
// to calling final directly with mctx.
func (c *Chain) Execute(ctx context.Context, mctx *Context, final Handler) (any, error) {
	next := func() (any, error) {
		return final(ctx, mctx)
	}
	for i := len(c.funcs) - 1; i >= 0; i-- {
		fn := c.funcs[i]
		inner := next
		next = func() (any, error) {
			return fn(ctx, mctx, inner)
		}
	}
	return next()
}
