// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// forum server. Write routes sit behind the per-IP rate limiter; reads,
// status and health lookups do not.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"gitforum/internal/handlers"
	"gitforum/internal/middleware"
)

// Deps are the handlers and settings the router wires together.
type Deps struct {
	Forum       *handlers.Forum
	Status      *handlers.Status
	RateLimiter *middleware.RateLimiter // nil disables rate limiting
	CORSOrigins []string                // empty allows any origin
}

// New creates and returns the configured Chi router with all middleware
// and routes wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(corsHandler(d.CORSOrigins))
	r.Use(middleware.Identity)

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Get("/health", healthHandler)
	r.Options("/health", handlers.Preflight)

	r.Get("/checkWorkflow", d.Status.CheckWorkflow)
	r.Options("/checkWorkflow", handlers.Preflight)

	r.Get("/getPost", d.Forum.GetPost)
	r.Options("/getPost", handlers.Preflight)
	r.Get("/getComment", d.Forum.GetComment)
	r.Options("/getComment", handlers.Preflight)

	// Write routes: every one produces at most one commit.
	r.Group(func(r chi.Router) {
		if d.RateLimiter != nil {
			r.Use(d.RateLimiter.Middleware)
		}
		writes := map[string]http.HandlerFunc{
			"/submitForm":    d.Forum.SubmitForm,
			"/submitComment": d.Forum.SubmitComment,
			"/deleteContent": d.Forum.DeleteContent,
			"/deletePost":    d.Forum.DeletePost,
			"/deleteComment": d.Forum.DeleteComment,
		}
		for path, h := range writes {
			r.Post(path, h)
			r.Options(path, handlers.Preflight)
		}
	})

	return r
}

// corsHandler allows the static site (and any configured origin) to call
// the API from the browser.
func corsHandler(origins []string) func(http.Handler) http.Handler {
	// Cookies only travel to an explicit allow-list.
	credentials := len(origins) > 0
	if !credentials {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.IdentityHeader},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: credentials,
		MaxAge:           300,
	})
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"success":true,"data":{"status":"ok"}}`))
}
