// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gitforum/internal/address"
	"gitforum/internal/buildstatus"
	"gitforum/internal/client"
	"gitforum/internal/commit"
	"gitforum/internal/forum"
	"gitforum/internal/gitstore"
	"gitforum/internal/handlers"
	"gitforum/internal/models"
	"gitforum/internal/router"
	"gitforum/internal/testutil"
	"gitforum/internal/tracker"
)

type testApp struct {
	*App
	kv     *tracker.MemoryKV
	builds *buildstatus.Memory
	clock  *testutil.StubClock
	out    *bytes.Buffer
}

// newTestApp runs a forumd router over the in-memory backend and points
// an App at it. A nil clock uses real time.
func newTestApp(t *testing.T, clock *testutil.StubClock, minInterval time.Duration) *testApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := gitstore.NewMemory("main")
	b := commit.New(mem, commit.Options{Branch: "main", Backoff: time.Millisecond, Logger: logger})
	svc := forum.NewService(b, address.New("", "", "https://forum.example.com"), forum.Options{
		Clock:  testutil.FixedClock(),
		IDs:    testutil.NewStubIDGenerator(),
		Logger: logger,
	})
	builds := buildstatus.NewMemory()
	srv := httptest.NewServer(router.New(router.Deps{
		Forum:  handlers.NewForum(svc, 20<<20),
		Status: handlers.NewStatus(builds),
	}))
	t.Cleanup(srv.Close)

	kv := tracker.NewMemoryKV()
	out := &bytes.Buffer{}
	opts := tracker.Options{MinInterval: minInterval, Logger: logger}
	if clock != nil {
		opts.Clock = clock
	}
	a := newApp(client.New(srv.URL, "alice", time.Second), kv, opts, out)
	return &testApp{App: a, kv: kv, builds: builds, clock: clock, out: out}
}

func (ta *testApp) submission(t *testing.T, kind models.OperationKind, target string) models.Submission {
	t.Helper()
	s, ok, err := ta.kv.Get(context.Background(), tracker.Key(kind, target))
	if err != nil || !ok {
		t.Fatalf("no tracked %s %s (err %v)", kind, target, err)
	}
	return s
}

func TestPostIsTrackedAndBlocksUntilPublished(t *testing.T) {
	ta := newTestApp(t, testutil.FixedClock(), 30*time.Second)
	ctx := context.Background()

	if err := ta.Post(ctx, client.PostRequest{Title: "Hello World", Description: "Hi."}); err != nil {
		t.Fatalf("Post: %v", err)
	}
	s := ta.submission(t, models.OpNewPost, tracker.NewPostTarget)

	err := ta.Post(ctx, client.PostRequest{Title: "Another", Description: "Too soon."})
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("second post: got %v, want ErrBusy", err)
	}

	ta.builds.Start(s.CommitID, ta.clock.Now())
	ta.builds.Finish(s.CommitID, buildstatus.ConclusionSuccess)
	ta.clock.Advance(31 * time.Second)

	ta.out.Reset()
	if err := ta.Status(ctx); err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !strings.Contains(ta.out.String(), "completed") {
		t.Errorf("status output should report completion:\n%s", ta.out.String())
	}
	if !strings.Contains(ta.out.String(), "No pending submissions.") {
		t.Errorf("status output should be empty after completion:\n%s", ta.out.String())
	}

	if err := ta.Post(ctx, client.PostRequest{Title: "Another", Description: "Now."}); err != nil {
		t.Fatalf("post after publish: %v", err)
	}
}

func TestEditAndDeleteShareTheirTarget(t *testing.T) {
	ta := newTestApp(t, testutil.FixedClock(), 30*time.Second)
	ctx := context.Background()

	if err := ta.Post(ctx, client.PostRequest{Title: "Topic", Description: "Body."}); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if err := ta.Post(ctx, client.PostRequest{Title: "Topic", Description: "Edited.", Slug: "topic", PostDate: "2026-03-14"}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	ta.submission(t, models.OpEditPost, "2026-03-14-topic")

	err := ta.Delete(ctx, client.DeleteRequest{PostSlug: "2026-03-14-topic"})
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("delete during edit: got %v, want ErrBusy", err)
	}

	// Comments on the post are not blocked by a post edit.
	if err := ta.Comment(ctx, client.CommentRequest{PostSlug: "2026-03-14-topic", Message: "First!"}); err != nil {
		t.Fatalf("Comment: %v", err)
	}
	ta.submission(t, models.OpNewComment, "2026-03-14-topic")

	if err := ta.tracker.Remove(ctx, models.OpEditPost, "2026-03-14-topic"); err != nil {
		t.Fatal(err)
	}
	if err := ta.Delete(ctx, client.DeleteRequest{PostSlug: "2026-03-14-topic"}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	ta.submission(t, models.OpDeletePost, "2026-03-14-topic")

	err = ta.Comment(ctx, client.CommentRequest{PostSlug: "2026-03-14-topic", CommentID: "id-1", Message: "Edit"})
	if !errors.Is(err, ErrBusy) {
		t.Errorf("comment on a post being deleted: got %v, want ErrBusy", err)
	}
}

func TestFailedSubmitIsNotTracked(t *testing.T) {
	ta := newTestApp(t, testutil.FixedClock(), 30*time.Second)
	ctx := context.Background()

	err := ta.Comment(ctx, client.CommentRequest{PostSlug: "2026-03-14-missing", Message: "Hello?"})
	if client.KindOf(err) != "not_found" {
		t.Fatalf("comment on missing post: got %v", err)
	}
	active, err := ta.tracker.Active(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 0 {
		t.Errorf("failed submit was tracked: %+v", active)
	}
}

func TestBadSlugIsRejectedLocally(t *testing.T) {
	ta := newTestApp(t, testutil.FixedClock(), 30*time.Second)
	err := ta.Delete(context.Background(), client.DeleteRequest{PostSlug: "no-date-here"})
	if err == nil || !strings.Contains(err.Error(), "post slug") {
		t.Errorf("got %v, want a post slug error", err)
	}
}

func TestWatchUntilResolved(t *testing.T) {
	ta := newTestApp(t, nil, 5*time.Millisecond)
	ta.builds.AutoComplete = true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := ta.Post(ctx, client.PostRequest{Title: "Watched", Description: "Body."}); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if err := ta.Watch(ctx); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if !strings.Contains(ta.out.String(), "All submissions resolved.") {
		t.Errorf("unexpected output:\n%s", ta.out.String())
	}
}
