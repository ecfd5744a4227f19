// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"strings"
)

// bearerPrefix is matched case-sensitively with a single trailing space.
const bearerPrefix = "Bearer "

// TokenValidator maps a bearer token to a caller identity. An empty return
// identity means the token is invalid.
type TokenValidator func(token string) string

// Bearer authenticates requests via an Authorization bearer token, delegating
// token validation to an injected validator.
type Bearer struct {
	validator TokenValidator
	header    string
}

// BearerOption configures a Bearer provider.
type BearerOption func(*Bearer)

// WithBearerHeader overrides the header the token is read from.
func WithBearerHeader(header string) BearerOption {
	return func(b *Bearer) {
		if header != "" {
			b.header = header
		}
	}
}

// NewBearer creates a Bearer provider with the given validator.
func NewBearer(validator TokenValidator, opts ...BearerOption) *Bearer {
	b := &Bearer{validator: validator, header: "Authorization"}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Authenticate implements Provider.
func (b *Bearer) Authenticate(_ context.Context, req *Request) *Result {
	value := req.Header(b.header)
	if !strings.HasPrefix(value, bearerPrefix) {
		return Failure("bearer token required")
	}
	token := value[len(bearerPrefix):]

	if b.validator == nil {
		return Failure("no token validator configured")
	}
	userID := b.validator(token)
	if userID == "" {
		return Failure("invalid token")
	}
	return Success(userID)
}

// Scheme implements Provider.
func (b *Bearer) Scheme() Scheme {
	return Scheme{Type: "http", Scheme: "bearer"}
}
