// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// wellKnownJWKSPath is appended to the issuer when no JWKS URI is given.
const wellKnownJWKSPath = "/.well-known/jwks.json"

// OAuth2 validates OAuth2/OIDC JWT access tokens against the issuer's JWKS.
// Signature, issuer and audience are all verified; the subject claim (or the
// email claim as fallback) becomes the caller identity and the space-delimited
// scope claim becomes the scope set.
type OAuth2 struct {
	issuer   string
	audience string
	jwksURI  string

	mu   sync.Mutex
	keys jwk.Set
}

// OAuth2Option configures an OAuth2 provider.
type OAuth2Option func(*OAuth2)

// WithJWKSURI overrides the JWKS endpoint derived from the issuer.
func WithJWKSURI(uri string) OAuth2Option {
	return func(o *OAuth2) {
		if uri != "" {
			o.jwksURI = uri
		}
	}
}

// NewOAuth2 creates an OAuth2 provider for the given issuer and audience.
func NewOAuth2(issuer, audience string, opts ...OAuth2Option) *OAuth2 {
	o := &OAuth2{
		issuer:   issuer,
		audience: audience,
		jwksURI:  strings.TrimRight(issuer, "/") + wellKnownJWKSPath,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// Authenticate implements Provider. Any verification failure yields a
// negative verdict carrying the underlying reason, never a panic.
func (o *OAuth2) Authenticate(ctx context.Context, req *Request) *Result {
	value := req.Header("Authorization")
	if !strings.HasPrefix(value, bearerPrefix) {
		return Failure("bearer token required")
	}
	raw := value[len(bearerPrefix):]

	keys, err := o.keySet(ctx)
	if err != nil {
		return Failure(fmt.Sprintf("fetch signing keys from %s: %v", o.jwksURI, err))
	}

	token, err := jwt.Parse([]byte(raw),
		jwt.WithKeySet(keys),
		jwt.WithValidate(true),
		jwt.WithIssuer(o.issuer),
		jwt.WithAudience(o.audience),
	)
	if err != nil {
		return Failure(fmt.Sprintf("token validation failed: %v", err))
	}

	userID, ok := token.Subject()
	if !ok || userID == "" {
		var email string
		if err := token.Get("email", &email); err == nil && email != "" {
			userID = email
		} else {
			userID = "unknown"
		}
	}

	var scope string
	_ = token.Get("scope", &scope)

	result := Success(userID, strings.Fields(scope)...)
	result.Metadata = map[string]any{"issuer": o.issuer}
	return result
}

// Scheme implements Provider.
func (o *OAuth2) Scheme() Scheme {
	issuer := strings.TrimRight(o.issuer, "/")
	return Scheme{
		Type: "oauth2",
		Flows: map[string]OAuthFlow{
			"authorizationCode": {
				AuthorizationURL: issuer + "/authorize",
				TokenURL:         issuer + "/oauth/token",
				Scopes:           map[string]string{},
			},
		},
	}
}

// keySet returns the cached JWKS, fetching it on first use.
func (o *OAuth2) keySet(ctx context.Context) (jwk.Set, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.keys != nil {
		return o.keys, nil
	}
	set, err := jwk.Fetch(ctx, o.jwksURI)
	if err != nil {
		return nil, err
	}
	o.keys = set
	return set, nil
}
