// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	a2aerrors "github.com/jllopis/a2alite/pkg/errors"
)

func TestNoAuthAlwaysSucceeds(t *testing.T) {
	result := NoAuth{}.Authenticate(context.Background(), &Request{})
	if !result.Authenticated {
		t.Fatalf("expected authenticated result")
	}
	if result.UserID != "anonymous" {
		t.Errorf("expected anonymous identity, got %q", result.UserID)
	}
}

func TestRequestHeaderCaseInsensitive(t *testing.T) {
	req := &Request{Headers: map[string]string{"x-api-key": "abc"}}
	if got := req.Header("X-API-Key"); got != "abc" {
		t.Errorf("expected case-insensitive lookup, got %q", got)
	}
	if got := req.Header("Missing"); got != "" {
		t.Errorf("expected empty value for missing header, got %q", got)
	}
}

func TestAPIKeyOutcomes(t *testing.T) {
	provider := NewAPIKey([]string{"valid-key"})

	t.Run("missing key", func(t *testing.T) {
		result := provider.Authenticate(context.Background(), &Request{})
		if result.Authenticated || result.Error != "API key required" {
			t.Errorf("expected required failure, got %+v", result)
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		req := &Request{Headers: map[string]string{"X-API-Key": "nope"}}
		result := provider.Authenticate(context.Background(), req)
		if result.Authenticated || result.Error != "invalid API key" {
			t.Errorf("expected invalid failure, got %+v", result)
		}
	})

	t.Run("valid key", func(t *testing.T) {
		req := &Request{Headers: map[string]string{"X-API-Key": "valid-key"}}
		first := provider.Authenticate(context.Background(), req)
		second := provider.Authenticate(context.Background(), req)
		if !first.Authenticated {
			t.Fatalf("expected success, got %+v", first)
		}
		if first.UserID != second.UserID {
			t.Errorf("identity not stable across calls: %q != %q", first.UserID, second.UserID)
		}
		if first.UserID == "valid-key" || strings.Contains(first.UserID, "valid") {
			t.Errorf("identity must not leak the key: %q", first.UserID)
		}
		if len(first.UserID) != 16 {
			t.Errorf("expected 16-char digest prefix, got %q", first.UserID)
		}
	})
}

func TestAPIKeyQueryParamFallback(t *testing.T) {
	provider := NewAPIKey([]string{"k"}, WithQueryParam("api_key"))
	req := &Request{Query: map[string]string{"api_key": "k"}}
	if result := provider.Authenticate(context.Background(), req); !result.Authenticated {
		t.Errorf("expected query param fallback to succeed, got %+v", result)
	}
	if scheme := provider.Scheme(); scheme.In != "query" || scheme.Name != "api_key" {
		t.Errorf("unexpected scheme: %+v", scheme)
	}
}

func TestBearerPrefixIsStrict(t *testing.T) {
	provider := NewBearer(func(token string) string {
		if token == "tok" {
			return "user-1"
		}
		return ""
	})

	cases := []struct {
		header string
		wantOK bool
	}{
		{"Bearer tok", true},
		{"bearer tok", false},
		{"Bearer  tok", false}, // double space shifts the token
		{"Token tok", false},
		{"", false},
	}
	for _, tc := range cases {
		req := &Request{Headers: map[string]string{"Authorization": tc.header}}
		result := provider.Authenticate(context.Background(), req)
		if result.Authenticated != tc.wantOK {
			t.Errorf("header %q: expected ok=%v, got %+v", tc.header, tc.wantOK, result)
		}
	}
}

func TestBearerRejectsUnknownToken(t *testing.T) {
	provider := NewBearer(func(string) string { return "" })
	req := &Request{Headers: map[string]string{"Authorization": "Bearer whatever"}}
	result := provider.Authenticate(context.Background(), req)
	if result.Authenticated || result.Error != "invalid token" {
		t.Errorf("expected invalid token failure, got %+v", result)
	}
}

func TestCompositeFirstSuccessWins(t *testing.T) {
	provider := NewComposite(
		NewAPIKey([]string{"admin-key"}),
		NewBearer(func(token string) string { return "bearer-user" }),
	)

	req := &Request{Headers: map[string]string{"Authorization": "Bearer t"}}
	result := provider.Authenticate(context.Background(), req)
	if !result.Authenticated || result.UserID != "bearer-user" {
		t.Errorf("expected bearer success, got %+v", result)
	}
}

func TestCompositeJoinsFailureReasons(t *testing.T) {
	provider := NewComposite(
		NewAPIKey([]string{"k"}),
		NewBearer(func(string) string { return "" }),
	)
	result := provider.Authenticate(context.Background(), &Request{})
	if result.Authenticated {
		t.Fatalf("expected failure, got %+v", result)
	}
	if result.Error != "API key required; bearer token required" {
		t.Errorf("unexpected combined reason: %q", result.Error)
	}
}

func TestOAuth2SchemeAndJWKSDefault(t *testing.T) {
	provider := NewOAuth2("https://auth.example.com/", "my-agent")
	scheme := provider.Scheme()
	if scheme.Type != "oauth2" {
		t.Fatalf("expected oauth2 scheme, got %+v", scheme)
	}
	flow, ok := scheme.Flows["authorizationCode"]
	if !ok {
		t.Fatalf("expected authorizationCode flow")
	}
	if flow.AuthorizationURL != "https://auth.example.com/authorize" {
		t.Errorf("unexpected authorization URL: %s", flow.AuthorizationURL)
	}
	if provider.jwksURI != "https://auth.example.com/.well-known/jwks.json" {
		t.Errorf("unexpected derived JWKS URI: %s", provider.jwksURI)
	}
}

func TestOAuth2FailsWithoutBearer(t *testing.T) {
	provider := NewOAuth2("https://auth.example.com", "aud")
	result := provider.Authenticate(context.Background(), &Request{})
	if result.Authenticated || result.Error != "bearer token required" {
		t.Errorf("expected bearer required failure, got %+v", result)
	}
}

func TestRequire(t *testing.T) {
	if err := Require(Success("u", "admin"), "admin"); err != nil {
		t.Errorf("expected nil for satisfied scopes, got %v", err)
	}

	err := Require(Failure("nope"))
	var ae *a2aerrors.Error
	if !errors.As(err, &ae) || ae.Code != a2aerrors.CodeUnauthorized {
		t.Errorf("expected UNAUTHORIZED error, got %v", err)
	}

	err = Require(Success("u"), "admin")
	if err == nil || !strings.Contains(err.Error(), "admin") {
		t.Errorf("expected missing scope to be named, got %v", err)
	}
}
