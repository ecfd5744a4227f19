// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"strings"

	"github.com/jllopis/a2alite/pkg/errors"
)

// Require returns a typed UNAUTHORIZED error when the result is missing,
// unauthenticated, or lacks any of the required scopes. Skill handlers with
// an injected *Result use this to guard privileged operations.
func Require(result *Result, scopes ...string) error {
	if result == nil || !result.Authenticated {
		return errors.Newf(errors.CodeUnauthorized, "authentication required")
	}
	var missing []string
	for _, s := range scopes {
		if !result.HasScope(s) {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		return errors.Newf(errors.CodeUnauthorized,
			"insufficient permissions: missing scopes %s", strings.Join(missing, ", "))
	}
	return nil
}
