// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// IdentityKey is the context key for the caller's owner token.
	IdentityKey contextKey = "identity"

	// IdentityHeader and IdentityCookie carry the owner token.
	IdentityHeader = "X-User-Cookie"
	IdentityCookie = "forum_user_id"

	// MaxTokenLen is the longest owner token accepted from any source.
	MaxTokenLen = 256
)

// Identity reads the caller's owner token from the X-User-Cookie header or
// the forum_user_id cookie and stores it in the request context.
// Handlers fall back to a form or JSON field when neither is present.
// This middleware does NOT enforce identity: it only loads it.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get(IdentityHeader))
		if token == "" {
			if c, err := r.Cookie(IdentityCookie); err == nil {
				token = strings.TrimSpace(c.Value)
			}
		}
		if token != "" && len(token) <= MaxTokenLen {
			r = r.WithContext(WithIdentity(r.Context(), token))
		}
		next.ServeHTTP(w, r)
	})
}

// WithIdentity returns a context carrying token.
func WithIdentity(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, IdentityKey, token)
}

// IdentityFromCtx returns the owner token loaded by Identity, or "".
func IdentityFromCtx(ctx context.Context) string {
	token, _ := ctx.Value(IdentityKey).(string)
	return token
}
