// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"gitforum/internal/address"
	"gitforum/internal/cache"
	"gitforum/internal/client"
	"gitforum/internal/models"
	"gitforum/internal/tracker"
)

// ErrBusy is returned when a write targets content whose previous
// submission is still being rebuilt.
var ErrBusy = errors.New("a previous submission for this content is still being published")

// App runs forumctl commands against one server and one submission store.
type App struct {
	client  *client.Client
	tracker *tracker.Tracker
	poll    time.Duration
	valkey  *redis.Client
	out     io.Writer
}

// NewApp connects the API client and the submission store described by
// cfg. The caller must defer Close.
func NewApp(cfg *Config, out io.Writer) (*App, error) {
	poll, ceiling, timeout, err := cfg.durations()
	if err != nil {
		return nil, err
	}

	c := client.New(cfg.Endpoint, cfg.Token, timeout)

	var (
		kv     tracker.KV
		valkey *redis.Client
	)
	if cfg.ValkeyAddr != "" {
		host, port, err := net.SplitHostPort(cfg.ValkeyAddr)
		if err != nil {
			return nil, fmt.Errorf("valkey_addr: %w", err)
		}
		valkey, err = cache.ConnectValkey(host, port, "", cfg.ValkeyDB)
		if err != nil {
			return nil, err
		}
		kv = tracker.NewValkeyKV(valkey, tracker.DefaultValkeyKey)
	} else {
		kv = tracker.NewFileKV(cfg.StateFile)
	}

	a := newApp(c, kv, tracker.Options{MinInterval: poll, Ceiling: ceiling}, out)
	a.valkey = valkey
	return a, nil
}

func newApp(c *client.Client, kv tracker.KV, opts tracker.Options, out io.Writer) *App {
	return &App{
		client:  c,
		tracker: tracker.New(kv, c, opts),
		poll:    opts.MinInterval,
		out:     out,
	}
}

// Close releases the Valkey connection, if any.
func (a *App) Close() error {
	if a.valkey != nil {
		return a.valkey.Close()
	}
	return nil
}

// guard maps a write to the tracked targets that must be idle before it
// may be sent.
type guard struct {
	kind   models.OperationKind
	target string
}

func (a *App) ensureIdle(ctx context.Context, guards ...guard) error {
	for _, g := range guards {
		active, err := a.tracker.IsActive(ctx, g.kind, g.target)
		if err != nil {
			return fmt.Errorf("checking submissions: %w", err)
		}
		if active {
			return fmt.Errorf("%w (%s %s)", ErrBusy, g.kind, g.target)
		}
	}
	return nil
}

func (a *App) track(ctx context.Context, kind models.OperationKind, target, commitID string) {
	if _, err := a.tracker.Track(ctx, kind, target, commitID); err != nil {
		// The write itself succeeded; only the local bookkeeping failed.
		slog.Warn("failed to track submission", "kind", kind, "target", target, "error", err)
	}
}

// storedSlug normalizes a user-supplied slug the same way the server does.
func storedSlug(postSlug, postDate string) (string, error) {
	s, err := address.New("", "", "").ResolvePostSlug(postSlug, postDate)
	if err != nil {
		return "", fmt.Errorf("post slug: %w", err)
	}
	return s, nil
}

// postGuards lists the targets that block a write to the post postSlug.
func postGuards(postSlug string) []guard {
	return []guard{{models.OpEditPost, postSlug}, {models.OpDeletePost, postSlug}}
}

// commentGuards lists the targets that block a write to comment id.
func commentGuards(id string) []guard {
	return []guard{{models.OpEditComment, id}, {models.OpDeleteComment, id}}
}

// Post creates a post, or edits one when req.Slug is set.
func (a *App) Post(ctx context.Context, req client.PostRequest) error {
	kind, target := models.OpNewPost, tracker.NewPostTarget
	if req.Slug != "" {
		slug, err := storedSlug(req.Slug, req.PostDate)
		if err != nil {
			return err
		}
		req.Slug, req.PostDate = slug, ""
		kind, target = models.OpEditPost, slug
		if err := a.ensureIdle(ctx, postGuards(slug)...); err != nil {
			return err
		}
	} else if err := a.ensureIdle(ctx, guard{kind, target}); err != nil {
		return err
	}

	res, err := a.client.SubmitPost(ctx, req)
	if err != nil {
		return err
	}
	a.track(ctx, kind, target, res.CommitSHA)

	fmt.Fprintf(a.out, "Post %s: %s\n", res.Operation, res.Slug)
	fmt.Fprintf(a.out, "URL:    %s\n", res.PostURL)
	fmt.Fprintf(a.out, "Commit: %s\n", res.CommitSHA)
	return nil
}

// Comment adds a comment, or edits one when req.CommentID is set.
func (a *App) Comment(ctx context.Context, req client.CommentRequest) error {
	slug, err := storedSlug(req.PostSlug, req.PostDate)
	if err != nil {
		return err
	}
	req.PostSlug, req.PostDate = slug, ""

	kind, target := models.OpNewComment, slug
	guards := []guard{{kind, target}}
	if req.CommentID != "" {
		kind, target = models.OpEditComment, req.CommentID
		guards = commentGuards(req.CommentID)
	}
	guards = append(guards, guard{models.OpDeletePost, slug})
	if err := a.ensureIdle(ctx, guards...); err != nil {
		return err
	}

	res, err := a.client.SubmitComment(ctx, req)
	if err != nil {
		return err
	}
	a.track(ctx, kind, target, res.CommitSHA)

	fmt.Fprintf(a.out, "Comment %s: %s on %s\n", res.Operation, res.CommentID, res.PostSlug)
	fmt.Fprintf(a.out, "Commit: %s\n", res.CommitSHA)
	return nil
}

// Delete removes a post or a comment.
func (a *App) Delete(ctx context.Context, req client.DeleteRequest) error {
	slug, err := storedSlug(req.PostSlug, req.PostDate)
	if err != nil {
		return err
	}
	req.PostSlug, req.PostDate = slug, ""

	kind, target, guards := models.OpDeletePost, slug, postGuards(slug)
	if req.CommentID != "" {
		kind, target, guards = models.OpDeleteComment, req.CommentID, commentGuards(req.CommentID)
	}
	if err := a.ensureIdle(ctx, guards...); err != nil {
		return err
	}

	res, err := a.client.Delete(ctx, req)
	if err != nil {
		return err
	}
	a.track(ctx, kind, target, res.CommitSHA)

	fmt.Fprintf(a.out, "Deleted %d file(s)\n", len(res.DeletedFiles))
	fmt.Fprintf(a.out, "Commit: %s\n", res.CommitSHA)
	return nil
}

func (a *App) printResolution(r tracker.Resolution) {
	s := r.Submission
	switch {
	case r.Err != nil:
		fmt.Fprintf(a.out, "%-15s %-40s check failed: %v\n", s.Kind, s.Target, r.Err)
	case r.State.Terminal():
		fmt.Fprintf(a.out, "%-15s %-40s %s\n", s.Kind, s.Target, r.State)
	}
}

// Status refreshes every due submission once and lists those still
// waiting for their rebuild.
func (a *App) Status(ctx context.Context) error {
	resolutions, err := a.tracker.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refreshing submissions: %w", err)
	}
	for _, r := range resolutions {
		a.printResolution(r)
	}

	active, err := a.tracker.Active(ctx)
	if err != nil {
		return err
	}
	if len(active) == 0 {
		fmt.Fprintln(a.out, "No pending submissions.")
		return nil
	}
	now := time.Now()
	for _, s := range active {
		last := s.LastStatus
		if last == "" {
			last = string(tracker.StateOf(s))
		}
		fmt.Fprintf(a.out, "%-15s %-40s %s  %s  %s\n",
			s.Kind,
			s.Target,
			s.CommitID[:min(len(s.CommitID), 12)],
			last,
			s.Age(now).Truncate(time.Second),
		)
	}
	return nil
}

// Watch polls until every submission has been resolved.
func (a *App) Watch(ctx context.Context) error {
	err := a.tracker.Watch(ctx, a.poll, a.printResolution)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "All submissions resolved.")
	return nil
}
