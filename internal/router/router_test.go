// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router tests verify the HTTP routing configuration, middleware
// chains, and the health endpoint.
package router

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gitforum/internal/address"
	"gitforum/internal/buildstatus"
	"gitforum/internal/commit"
	"gitforum/internal/forum"
	"gitforum/internal/gitstore"
	"gitforum/internal/handlers"
	"gitforum/internal/middleware"
	"gitforum/internal/testutil"
)

func newTestRouter(t *testing.T, rl *middleware.RateLimiter, origins ...string) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := gitstore.NewMemory("main")
	b := commit.New(mem, commit.Options{Branch: "main", Backoff: time.Millisecond, Logger: logger})
	svc := forum.NewService(b, address.New("", "", "https://forum.example.com"), forum.Options{
		Clock:  testutil.FixedClock(),
		IDs:    testutil.NewStubIDGenerator(),
		Logger: logger,
	})
	return New(Deps{
		Forum:       handlers.NewForum(svc, 1<<20),
		Status:      handlers.NewStatus(buildstatus.NewMemory()),
		RateLimiter: rl,
		CORSOrigins: origins,
	})
}

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)

	healthHandler(w, r)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("content-type: got %q, want %q", ct, "application/json")
	}

	var body struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Success || body.Data["status"] != "ok" {
		t.Errorf("body: got %+v", body)
	}
}

func TestRoutes(t *testing.T) {
	h := newTestRouter(t, nil)

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
		wantBody string
	}{
		{"health", http.MethodGet, "/health", http.StatusOK, `"status":"ok"`},
		{"options on write route", http.MethodOptions, "/submitForm", http.StatusOK, ""},
		{"options on status route", http.MethodOptions, "/checkWorkflow", http.StatusOK, ""},
		{"get on write route", http.MethodGet, "/submitComment", http.StatusMethodNotAllowed, `"kind":"method_not_allowed"`},
		{"put on delete route", http.MethodPut, "/deletePost", http.StatusMethodNotAllowed, "Use POST"},
		{"post on status route", http.MethodPost, "/checkWorkflow", http.StatusMethodNotAllowed, "Use GET"},
		{"read without slug", http.MethodGet, "/getPost", http.StatusBadRequest, `"kind":"validation"`},
		{"post on read route", http.MethodPost, "/getComment", http.StatusMethodNotAllowed, "Use GET"},
		{"unknown route", http.MethodGet, "/admin", http.StatusNotFound, `"kind":"not_found"`},
		{"write without identity", http.MethodPost, "/deleteContent", http.StatusUnauthorized, `"success":false`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
			if rr.Code != tt.wantCode {
				t.Errorf("status: got %d, want %d", rr.Code, tt.wantCode)
			}
			if !strings.Contains(rr.Body.String(), tt.wantBody) {
				t.Errorf("body: got %q, want it to contain %q", rr.Body.String(), tt.wantBody)
			}
			if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
				t.Errorf("security headers missing: X-Content-Type-Options=%q", got)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Run("allow-list", func(t *testing.T) {
		h := newTestRouter(t, nil, "https://blog.example.com")

		req := httptest.NewRequest(http.MethodOptions, "/submitForm", nil)
		req.Header.Set("Origin", "https://blog.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", middleware.IdentityHeader)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("status: got %d, want 200", rr.Code)
		}
		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://blog.example.com" {
			t.Errorf("Allow-Origin: got %q", got)
		}
		if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
			t.Errorf("Allow-Credentials: got %q", got)
		}

		req = httptest.NewRequest(http.MethodOptions, "/submitForm", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rr = httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("foreign origin allowed: %q", got)
		}
	})

	t.Run("open", func(t *testing.T) {
		h := newTestRouter(t, nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://anywhere.example.com")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("Allow-Origin: got %q, want *", got)
		}
	})
}

func TestRateLimitOnlyOnWrites(t *testing.T) {
	rl := middleware.NewRateLimiter(1, time.Minute)
	defer rl.Stop()
	h := newTestRouter(t, rl)

	send := func(method, path string) int {
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = "198.51.100.7:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := send(http.MethodPost, "/deletePost"); code != http.StatusUnauthorized {
		t.Errorf("first write: got %d, want 401", code)
	}
	if code := send(http.MethodPost, "/deletePost"); code != http.StatusTooManyRequests {
		t.Errorf("second write: got %d, want 429", code)
	}
	for i := 0; i < 3; i++ {
		if code := send(http.MethodGet, "/health"); code != http.StatusOK {
			t.Errorf("health %d: got %d, want 200", i, code)
		}
	}
}
