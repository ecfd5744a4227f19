// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"strings"
)

// Composite tries each configured provider in order; the first authenticated
// verdict wins and is returned verbatim. When every provider fails, the
// combined failure joins the individual reasons with "; ".
type Composite struct {
	providers []Provider
}

// NewComposite creates a Composite over the given providers.
func NewComposite(providers ...Provider) *Composite {
	return &Composite{providers: providers}
}

// Authenticate implements Provider.
func (c *Composite) Authenticate(ctx context.Context, req *Request) *Result {
	var reasons []string
	for _, p := range c.providers {
		result := p.Authenticate(ctx, req)
		if result.Authenticated {
			return result
		}
		if result.Error != "" {
			reasons = append(reasons, result.Error)
		}
	}
	if len(reasons) == 0 {
		return Failure("authentication failed")
	}
	return Failure(strings.Join(reasons, "; "))
}

// Scheme implements Provider, reporting the first provider's scheme.
func (c *Composite) Scheme() Scheme {
	if len(c.providers) > 0 {
		return c.providers[0].Scheme()
	}
	return Scheme{}
}
