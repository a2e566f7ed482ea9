// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter caps write requests per client address over a sliding
// window. Every accepted write becomes a commit, so the limit protects the
// content repository's API quota as much as the server.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time // accepted request times, oldest first

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter allows limit requests per window and client. A limit of
// zero disables limiting. Idle clients are forgotten by a background sweep
// until Stop is called.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
		stopCh: make(chan struct{}),
	}
	go rl.sweepLoop(5 * time.Minute)
	return rl
}

// Stop ends the background sweep. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stopCh:
			return
		}
	}
}

// recent drops the hits that fell out of the window ending at now.
func (rl *RateLimiter) recent(times []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-rl.window)
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	return times[i:]
}

// take records a request for key. When the client is over its limit it
// returns false and how long until the oldest hit leaves the window.
func (rl *RateLimiter) take(key string) (bool, time.Duration) {
	if rl.limit <= 0 {
		return true, 0
	}
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	times := rl.recent(rl.hits[key], now)
	if len(times) >= rl.limit {
		rl.hits[key] = times
		return false, times[0].Add(rl.window).Sub(now)
	}
	rl.hits[key] = append(times, now)
	return true, 0
}

// sweep forgets clients with no hit inside the window.
func (rl *RateLimiter) sweep() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, times := range rl.hits {
		if times = rl.recent(times, now); len(times) == 0 {
			delete(rl.hits, key)
		} else {
			rl.hits[key] = times
		}
	}
}

// Middleware rejects requests from clients over the limit with a JSON 429
// and a Retry-After header.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		ok, wait := rl.take(ip)
		if !ok {
			seconds := int(math.Ceil(wait.Seconds()))
			slog.Warn("rate limit exceeded", "remote", ip, "path", r.URL.Path, "retry_after", seconds)
			w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
			writeError(w, http.StatusTooManyRequests, "rate_limited", "Too many submissions. Please wait and try again.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the originating address: the leftmost X-Forwarded-For
// entry, then X-Real-IP, then the connection's host.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
