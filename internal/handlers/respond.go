// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the forum's JSON HTTP endpoints. Every
// response, success or failure, uses the same envelope.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"gitforum/internal/apperr"
)

// envelope is the body of every response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("write response failed", "error", err)
	}
}

func writeOK(w http.ResponseWriter, msg string, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: msg, Data: data})
}

func writeFail(w http.ResponseWriter, status int, kind apperr.Kind, msg string) {
	writeJSON(w, status, envelope{Error: msg, Kind: string(kind)})
}

// writeError classifies err, logs it, and writes the matching response.
// Remote and internal failures are logged with full detail; the client
// only sees a generic message for them.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)

	attrs := []any{"method", r.Method, "path", r.URL.Path, "kind", kind, "error", err}
	switch {
	case status >= http.StatusInternalServerError:
		slog.Error("request failed", attrs...)
	case kind == apperr.KindRefConflict:
		slog.Warn("request failed", attrs...)
	default:
		slog.Info("request rejected", attrs...)
	}

	writeFail(w, status, kind, apperr.Message(err))
}

// MethodNotAllowed answers any unsupported method with a JSON 405.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeFail(w, http.StatusMethodNotAllowed, "method_not_allowed",
		"Method not allowed. Use "+allowedMethod(r.URL.Path)+".")
}

// NotFound answers unknown routes with a JSON 404.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeFail(w, http.StatusNotFound, apperr.KindNotFound, "No such endpoint.")
}

// Preflight answers OPTIONS with an empty 200.
func Preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func allowedMethod(path string) string {
	switch path {
	case "/checkWorkflow", "/health", "/getPost", "/getComment":
		return "GET"
	}
	return "POST"
}
