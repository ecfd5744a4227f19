// SPDX-License-Identifier: Apache-2.0

// Package auth provides pluggable request authentication for a2alite agents.
//
// A Provider inspects the transport-level credentials of an inbound call and
// returns a verdict. The dispatcher always runs the configured provider so an
// auth result is available for injection into skills, but only rejects the
// call when the provider is not NoAuth and the verdict is negative.
package auth

import (
	"context"
	"strings"
)

// Request bundles the transport-level request data a provider may inspect.
type Request struct {
	Headers map[string]string
	Query   map[string]string
	Method  string
	Path    string
}

// Header returns a header value by case-insensitive name.
func (r *Request) Header(name string) string {
	if r == nil || r.Headers == nil {
		return ""
	}
	if v, ok := r.Headers[name]; ok {
		return v
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Result is the immutable verdict of an authentication attempt.
type Result struct {
	Authenticated bool
	UserID        string
	Scopes        map[string]bool
	Metadata      map[string]any
	Error         string
}

// HasScope reports whether the result carries the given scope.
func (r *Result) HasScope(scope string) bool {
	return r != nil && r.Scopes[scope]
}

// HasScopes reports whether the result carries every given scope.
func (r *Result) HasScopes(scopes ...string) bool {
	for _, s := range scopes {
		if !r.HasScope(s) {
			return false
		}
	}
	return true
}

// Success builds an authenticated result for the given identity.
func Success(userID string, scopes ...string) *Result {
	set := make(map[string]bool, len(scopes))
	for _, s := range scopes {
		if s != "" {
			set[s] = true
		}
	}
	return &Result{Authenticated: true, UserID: userID, Scopes: set}
}

// Failure builds an unauthenticated result carrying the failure reason.
func Failure(reason string) *Result {
	return &Result{Authenticated: false, Error: reason}
}

// Scheme describes a provider's security scheme for the agent card.
// The zero value means "no scheme advertised".
type Scheme struct {
	Type   string               `json:"type,omitempty"`
	In     string               `json:"in,omitempty"`
	Name   string               `json:"name,omitempty"`
	Scheme string               `json:"scheme,omitempty"`
	Flows  map[string]OAuthFlow `json:"flows,omitempty"`
}

// OAuthFlow describes one OAuth2 flow in a Scheme.
type OAuthFlow struct {
	AuthorizationURL string            `json:"authorizationUrl,omitempty"`
	TokenURL         string            `json:"tokenUrl,omitempty"`
	Scopes           map[string]string `json:"scopes"`
}

// Provider authenticates inbound requests.
type Provider interface {
	// Authenticate inspects the request credentials and returns a verdict.
	// Infrastructure failures (e.g. an unreachable JWKS endpoint) are
	// reported as negative verdicts, not panics.
	Authenticate(ctx context.Context, req *Request) *Result

	// Scheme returns the security scheme advertised in the agent card.
	Scheme() Scheme
}

// NoAuth is the default provider: every request is accepted with a fixed
// anonymous identity. The dispatcher never rejects on its verdict.
type NoAuth struct{}

// Authenticate implements Provider.
func (NoAuth) Authenticate(_ context.Context, _ *Request) *Result {
	return Success("anonymous")
}

// Scheme implements Provider.
func (NoAuth) Scheme() Scheme { return Scheme{} }
