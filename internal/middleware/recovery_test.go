// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRecoverer(t *testing.T) {
	panics := []struct {
		name  string
		value any
	}{
		{"string value", "something went wrong"},
		{"integer value", 42},
		{"non-error value", strings.NewReader("error reader")},
	}

	for _, tt := range panics {
		t.Run(tt.name, func(t *testing.T) {
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic(tt.value)
			})

			req := httptest.NewRequest(http.MethodPost, "/submitForm", nil)
			rr := httptest.NewRecorder()

			// Should NOT panic: the middleware catches it.
			Recoverer(inner).ServeHTTP(rr, req)

			if rr.Code != http.StatusInternalServerError {
				t.Errorf("status: got %d, want 500", rr.Code)
			}
			if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
				t.Errorf("Content-Type: got %q, want JSON", ct)
			}

			var body struct {
				Success bool   `json:"success"`
				Error   string `json:"error"`
				Kind    string `json:"kind"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body %q: %v", rr.Body.String(), err)
			}
			if body.Success || body.Kind != "internal" || body.Error == "" {
				t.Errorf("body: got %+v", body)
			}
		})
	}
}

func TestRecovererNoPanic(t *testing.T) {
	t.Run("normal pass-through without panic", func(t *testing.T) {
		var called bool
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.Header().Set("X-Custom", "test-value")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rr := httptest.NewRecorder()
		Recoverer(inner).ServeHTTP(rr, req)

		if !called {
			t.Error("next handler should have been called")
		}
		if rr.Code != http.StatusOK {
			t.Errorf("status: got %d, want 200", rr.Code)
		}
		if rr.Body.String() != "ok" {
			t.Errorf("body: got %q, want %q", rr.Body.String(), "ok")
		}
		if got := rr.Header().Get("X-Custom"); got != "test-value" {
			t.Errorf("X-Custom: got %q, want %q", got, "test-value")
		}
	})

	t.Run("re-panics on ErrAbortHandler", func(t *testing.T) {
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic(http.ErrAbortHandler)
		})

		defer func() {
			if rec := recover(); rec != http.ErrAbortHandler {
				t.Errorf("recovered %v, want http.ErrAbortHandler", rec)
			}
		}()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		Recoverer(inner).ServeHTTP(httptest.NewRecorder(), req)
	})
}
