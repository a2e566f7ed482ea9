// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestIdentity(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{name: "none", want: ""},
		{name: "header", header: "tok-header", want: "tok-header"},
		{name: "cookie", cookie: "tok-cookie", want: "tok-cookie"},
		{name: "header wins over cookie", header: "tok-header", cookie: "tok-cookie", want: "tok-header"},
		{name: "whitespace trimmed", header: "  tok  ", want: "tok"},
		{name: "blank header falls back to cookie", header: "   ", cookie: "tok-cookie", want: "tok-cookie"},
		{name: "oversized token ignored", header: strings.Repeat("x", MaxTokenLen+1), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			handler := Identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = IdentityFromCtx(r.Context())
			}))

			req := httptest.NewRequest(http.MethodPost, "/submitComment", nil)
			if tt.header != "" {
				req.Header.Set(IdentityHeader, tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: IdentityCookie, Value: tt.cookie})
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("identity: got %q, want %q", got, tt.want)
			}
		})
	}
}
