// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

// captureLog redirects the default logger to a JSON buffer for the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		path      string
		handler   http.HandlerFunc
		wantCode  int
		wantLevel string
		wantBytes float64
	}{
		{
			name:   "explicit status",
			method: http.MethodGet,
			path:   "/checkWorkflow",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantCode:  http.StatusNotFound,
			wantLevel: "INFO",
		},
		{
			name:   "implicit 200 on write",
			method: http.MethodGet,
			path:   "/health",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("hello"))
			},
			wantCode:  http.StatusOK,
			wantLevel: "INFO",
			wantBytes: 5,
		},
		{
			name:      "no write at all",
			method:    http.MethodOptions,
			path:      "/submitForm",
			handler:   func(w http.ResponseWriter, r *http.Request) {},
			wantCode:  http.StatusOK,
			wantLevel: "INFO",
		},
		{
			name:   "server error logged as warning",
			method: http.MethodPost,
			path:   "/submitComment",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"success":false}`))
			},
			wantCode:  http.StatusServiceUnavailable,
			wantLevel: "WARN",
			wantBytes: 17,
		},
		{
			name:   "later WriteHeader ignored",
			method: http.MethodPost,
			path:   "/submitForm",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantCode:  http.StatusCreated,
			wantLevel: "INFO",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLog(t)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.RemoteAddr = "192.0.2.10:5555"
			rr := httptest.NewRecorder()
			Logger(tt.handler).ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Errorf("response status: got %d, want %d", rr.Code, tt.wantCode)
			}

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("log line is not JSON: %v\n%s", err, buf.String())
			}
			if entry["msg"] != "http request" {
				t.Errorf("msg: got %v", entry["msg"])
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("level: got %v, want %s", entry["level"], tt.wantLevel)
			}
			if entry["status"] != float64(tt.wantCode) {
				t.Errorf("logged status: got %v, want %d", entry["status"], tt.wantCode)
			}
			if entry["bytes"] != tt.wantBytes {
				t.Errorf("bytes: got %v, want %v", entry["bytes"], tt.wantBytes)
			}
			if entry["method"] != tt.method || entry["path"] != tt.path {
				t.Errorf("request: got %v %v", entry["method"], entry["path"])
			}
			if entry["remote"] != "192.0.2.10" {
				t.Errorf("remote: got %v", entry["remote"])
			}
		})
	}
}

func TestStatusRecorderUnwrap(t *testing.T) {
	rr := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: rr}
	if rec.Unwrap() != http.ResponseWriter(rr) {
		t.Error("Unwrap should return the wrapped writer")
	}
}
