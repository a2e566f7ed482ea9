// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package ownership gates mutations on the owner token recorded in a
// stored post or comment. Tokens are opaque and compared byte for byte.
package ownership

import (
	"crypto/subtle"

	"gitforum/internal/apperr"
)

// Check reports whether caller may mutate an entity recorded with stored.
// Both tokens must be non-empty and identical.
func Check(stored, caller string) bool {
	if stored == "" || caller == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(caller)) == 1
}

// Authorize is Check as an error: nil when allowed, an unauthorized
// apperr.Error otherwise.
func Authorize(op, stored, caller string) error {
	if Check(stored, caller) {
		return nil
	}
	return apperr.Unauthorized(op, "You are not allowed to modify this content.")
}
