// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the forum API server.
// It loads configuration, connects to the content repository, sets up
// routing, and starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitforum/internal/address"
	"gitforum/internal/buildstatus"
	"gitforum/internal/cache"
	"gitforum/internal/commit"
	"gitforum/internal/config"
	"gitforum/internal/forum"
	"gitforum/internal/gitstore"
	"gitforum/internal/handlers"
	"gitforum/internal/middleware"
	"gitforum/internal/router"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"backend", cfg.Backend,
	)

	// Content repository and the build pipeline that publishes it.
	var (
		store   gitstore.Store
		checker buildstatus.Checker
	)
	if cfg.BackendIsGitHub() {
		gh, err := gitstore.NewGitHub(gitstore.GitHubConfig{
			Owner:   cfg.GitHubOwner,
			Repo:    cfg.GitHubRepo,
			Branch:  cfg.GitHubBranch,
			Token:   cfg.GitHubToken,
			APIURL:  cfg.GitHubAPIURL,
			Timeout: cfg.RemoteTimeout,
		})
		if err != nil {
			slog.Error("failed to initialize github content store", "error", err)
			os.Exit(1)
		}
		owner, repo := gh.Repo()
		store = gh
		checker = buildstatus.NewGitHub(gh.Client(), owner, repo, cfg.RemoteTimeout)
		slog.Info("github content store ready", "owner", owner, "repo", repo, "branch", cfg.GitHubBranch)
	} else {
		store = gitstore.NewMemory(cfg.GitHubBranch)
		builds := buildstatus.NewMemory()
		builds.AutoComplete = true
		checker = builds
		slog.Warn("using in-memory content store; content is lost on restart")
	}

	// Short-lived build status cache in Valkey (optional).
	if cfg.CacheEnabled() {
		valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, 0)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		defer valkeyClient.Close()
		checker = cache.NewCachedChecker(checker, cache.NewStatusCache(valkeyClient, cfg.StatusCacheTTL))
	} else {
		slog.Info("valkey not configured, build status cache disabled")
	}

	builder := commit.New(store, commit.Options{
		Branch:       cfg.GitHubBranch,
		MaxBlobBytes: max(cfg.MaxPostImageBytes, cfg.MaxCommentImageBytes),
		Retries:      cfg.CommitRetries,
	})
	resolver := address.New(cfg.PostsRoot, cfg.CommentsRoot, cfg.SiteURL)
	svc := forum.NewService(builder, resolver, forum.Options{
		Limits: forum.Limits{
			MaxPostImageBytes:    cfg.MaxPostImageBytes,
			MaxCommentImageBytes: cfg.MaxCommentImageBytes,
			MaxPostImages:        cfg.MaxPostImages,
		},
	})

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	defer limiter.Stop()

	r := router.New(router.Deps{
		Forum:       handlers.NewForum(svc, cfg.MaxRequestBytes()),
		Status:      handlers.NewStatus(checker),
		RateLimiter: limiter,
		CORSOrigins: cfg.CORSOrigins,
	})

	// WriteTimeout must cover a full commit pipeline including retries.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give in-flight commits up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
