// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles server configuration loading from environment
// variables. It provides a centralized Config struct used by forumd.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Content backends.
const (
	BackendGitHub = "github"
	BackendMemory = "memory"
)

// Config holds all server configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// Content repository
	Backend       string // "github" or "memory"
	GitHubToken   string
	GitHubOwner   string
	GitHubRepo    string
	GitHubBranch  string
	GitHubAPIURL  string // empty for github.com
	PostsRoot     string
	CommentsRoot  string
	SiteURL       string
	RemoteTimeout time.Duration
	CommitRetries int

	// Upload limits
	MaxPostImageBytes    int64
	MaxCommentImageBytes int64
	MaxPostImages        int

	// HTTP surface
	CORSOrigins []string
	RateLimit   int
	RateWindow  time.Duration

	// Valkey (Redis-compatible cache); an empty host disables caching.
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	StatusCacheTTL time.Duration
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if a value does not
// parse or critical values are missing in production mode.
func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		Backend:      strings.ToLower(envOrDefault("CONTENT_BACKEND", BackendGitHub)),
		GitHubToken:  os.Getenv("GITHUB_TOKEN"),
		GitHubOwner:  os.Getenv("GITHUB_OWNER"),
		GitHubRepo:   os.Getenv("GITHUB_REPO"),
		GitHubBranch: envOrDefault("GITHUB_BRANCH", "main"),
		GitHubAPIURL: os.Getenv("GITHUB_API_URL"),
		PostsRoot:    envOrDefault("POSTS_ROOT", "_posts"),
		CommentsRoot: envOrDefault("COMMENTS_ROOT", "_data/comments"),
		SiteURL:      strings.TrimRight(os.Getenv("SITE_URL"), "/"),

		CORSOrigins: splitList(os.Getenv("CORS_ORIGINS")),

		ValkeyHost:     os.Getenv("VALKEY_HOST"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),
	}

	cfg.RemoteTimeout = envDuration("REMOTE_TIMEOUT", 30*time.Second, &errs)
	cfg.CommitRetries = envInt("COMMIT_RETRIES", 3, &errs)
	cfg.MaxPostImageBytes = int64(envInt("MAX_POST_IMAGE_BYTES", 10<<20, &errs))
	cfg.MaxCommentImageBytes = int64(envInt("MAX_COMMENT_IMAGE_BYTES", 5<<20, &errs))
	cfg.MaxPostImages = envInt("MAX_POST_IMAGES", 10, &errs)
	cfg.RateLimit = envInt("RATE_LIMIT", 30, &errs)
	cfg.RateWindow = envDuration("RATE_WINDOW", time.Minute, &errs)
	cfg.StatusCacheTTL = envDuration("STATUS_CACHE_TTL", 15*time.Second, &errs)

	switch cfg.Backend {
	case BackendGitHub, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("CONTENT_BACKEND must be %q or %q, got %q", BackendGitHub, BackendMemory, cfg.Backend))
	}

	if cfg.Env == "production" {
		if cfg.BackendIsGitHub() {
			for key, v := range map[string]string{
				"GITHUB_TOKEN": cfg.GitHubToken,
				"GITHUB_OWNER": cfg.GitHubOwner,
				"GITHUB_REPO":  cfg.GitHubRepo,
			} {
				if v == "" {
					errs = append(errs, fmt.Errorf("%s must be set in production", key))
				}
			}
		}
		if cfg.SiteURL == "" {
			errs = append(errs, errors.New("SITE_URL must be set in production"))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// BackendIsGitHub reports whether content is committed to GitHub.
func (c *Config) BackendIsGitHub() bool {
	return c.Backend == BackendGitHub
}

// CacheEnabled reports whether a Valkey host is configured.
func (c *Config) CacheEnabled() bool {
	return c.ValkeyHost != ""
}

// MaxRequestBytes bounds a request body: every post image at its limit
// plus room for the text fields and multipart framing.
func (c *Config) MaxRequestBytes() int64 {
	images := int64(c.MaxPostImages) * c.MaxPostImageBytes
	if c.MaxCommentImageBytes > images {
		images = c.MaxCommentImageBytes
	}
	return images + 1<<20
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid non-negative integer %q", key, v))
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
