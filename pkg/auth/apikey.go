// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// DefaultAPIKeyHeader is the header consulted when none is configured.
const DefaultAPIKeyHeader = "X-API-Key"

// identityPrefixLen is how many hex digits of the key digest form the
// caller identity. Stable per key, not reversible to the key.
const identityPrefixLen = 16

// APIKey authenticates requests by shared API key. Only SHA-256 digests of
// the accepted keys are retained; the plaintext keys are never stored.
type APIKey struct {
	digests    map[string]bool
	header     string
	queryParam string
}

// APIKeyOption configures an APIKey provider.
type APIKeyOption func(*APIKey)

// WithHeader overrides the header the key is read from.
func WithHeader(header string) APIKeyOption {
	return func(a *APIKey) {
		if header != "" {
			a.header = header
		}
	}
}

// WithQueryParam additionally accepts the key from a query parameter when
// the header is absent.
func WithQueryParam(name string) APIKeyOption {
	return func(a *APIKey) {
		a.queryParam = name
	}
}

// NewAPIKey creates an APIKey provider accepting the given keys.
func NewAPIKey(keys []string, opts ...APIKeyOption) *APIKey {
	a := &APIKey{
		digests: make(map[string]bool, len(keys)),
		header:  DefaultAPIKeyHeader,
	}
	for _, k := range keys {
		a.digests[hashKey(k)] = true
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Authenticate implements Provider.
func (a *APIKey) Authenticate(_ context.Context, req *Request) *Result {
	key := req.Header(a.header)
	if key == "" && a.queryParam != "" && req.Query != nil {
		key = req.Query[a.queryParam]
	}
	if key == "" {
		return Failure("API key required")
	}

	digest := hashKey(key)
	if !a.digests[digest] {
		return Failure("invalid API key")
	}
	return Success(digest[:identityPrefixLen])
}

// Scheme implements Provider.
func (a *APIKey) Scheme() Scheme {
	if a.queryParam != "" {
		return Scheme{Type: "apiKey", In: "query", Name: a.queryParam}
	}
	return Scheme{Type: "apiKey", In: "header", Name: a.header}
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
