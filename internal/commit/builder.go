// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package commit turns a set of logical file changes into exactly one
// commit on a branch. Each attempt reads the tip, builds a tree on top of
// it and advances the ref only if it still points at that tip; a lost
// race re-runs the whole attempt against the new tip.
package commit

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"gitforum/internal/apperr"
	"gitforum/internal/gitstore"
)

const (
	defaultRetries     = 3
	defaultBackoff     = 100 * time.Millisecond
	defaultConcurrency = 4
)

// Plan computes the changes for one attempt from the snapshot it will be
// committed on. It runs again on every retry.
type Plan func(ctx context.Context, snap *Snapshot) ([]FileChange, error)

// Options configures a Builder.
type Options struct {
	Branch string
	// MaxBlobBytes rejects any binary change larger than this. Zero means
	// no limit.
	MaxBlobBytes int64
	// Retries is the number of extra attempts after a ref conflict.
	// Negative disables retrying; zero uses the default.
	Retries int
	// Backoff is the base delay of the exponential backoff between attempts.
	Backoff time.Duration
	// Concurrency bounds parallel blob uploads.
	Concurrency int
	Logger      *slog.Logger
}

// Result describes a commit that was applied.
type Result struct {
	CommitID string
	URL      string
	Parent   string
	Paths    []string
	Deleted  []string
	Attempts int
}

// Builder applies plans as single commits.
type Builder struct {
	store        gitstore.Store
	branch       string
	maxBlobBytes int64
	retries      int
	backoff      time.Duration
	concurrency  int
	log          *slog.Logger
}

// New returns a Builder committing to opts.Branch of store.
func New(store gitstore.Store, opts Options) *Builder {
	b := &Builder{
		store:        store,
		branch:       opts.Branch,
		maxBlobBytes: opts.MaxBlobBytes,
		retries:      opts.Retries,
		backoff:      opts.Backoff,
		concurrency:  opts.Concurrency,
		log:          opts.Logger,
	}
	if b.branch == "" {
		b.branch = "main"
	}
	switch {
	case b.retries == 0:
		b.retries = defaultRetries
	case b.retries < 0:
		b.retries = 0
	}
	if b.backoff <= 0 {
		b.backoff = defaultBackoff
	}
	if b.concurrency <= 0 {
		b.concurrency = defaultConcurrency
	}
	if b.log == nil {
		b.log = slog.Default()
	}
	return b
}

// Store returns the backend the builder writes to.
func (b *Builder) Store() gitstore.Store { return b.store }

// Branch returns the branch the builder advances.
func (b *Builder) Branch() string { return b.branch }

// Commit applies a fixed change set.
func (b *Builder) Commit(ctx context.Context, message string, changes []FileChange) (Result, error) {
	return b.Apply(ctx, message, func(context.Context, *Snapshot) ([]FileChange, error) {
		return changes, nil
	})
}

// Apply evaluates plan against the branch tip and commits the result,
// retrying from a fresh snapshot when the branch moves underneath it.
// Errors are classified with apperr kinds; errors returned by plan are
// passed through unchanged.
func (b *Builder) Apply(ctx context.Context, message string, plan Plan) (Result, error) {
	const op = "commit.Apply"

	blobs := &blobCache{ids: make(map[[sha256.Size]byte]string)}
	attempts := 0
	backoff := retry.WithMaxRetries(uint64(b.retries), retry.NewExponential(b.backoff))

	res, err := retry.DoValue(ctx, backoff, func(ctx context.Context) (Result, error) {
		attempts++
		res, err := b.attempt(ctx, message, plan, blobs)
		if errors.Is(err, gitstore.ErrRefConflict) {
			b.log.Warn("branch moved during commit, retrying",
				"branch", b.branch, "attempt", attempts, "error", err)
			return Result{}, retry.RetryableError(err)
		}
		return res, err
	})
	if err != nil {
		return Result{}, classify(op, attempts, err)
	}

	res.Attempts = attempts
	b.log.Info("commit applied",
		"branch", b.branch, "commit", res.CommitID, "parent", res.Parent,
		"written", len(res.Paths), "deleted", len(res.Deleted), "attempts", attempts)
	return res, nil
}

// attempt performs one read-plan-write cycle. Nothing is visible on the
// branch unless the final UpdateRef succeeds.
func (b *Builder) attempt(ctx context.Context, message string, plan Plan, blobs *blobCache) (Result, error) {
	head, err := b.store.Head(ctx, b.branch)
	if err != nil {
		return Result{}, fmt.Errorf("read branch %s: %w", b.branch, err)
	}
	tip, err := b.store.Commit(ctx, head)
	if err != nil {
		return Result{}, fmt.Errorf("read commit %s: %w", head, err)
	}
	entries, err := b.store.Tree(ctx, tip.TreeID, true)
	if err != nil {
		return Result{}, fmt.Errorf("read tree %s: %w", tip.TreeID, err)
	}
	snap := newSnapshot(b.store, head, tip.TreeID, entries)

	changes, err := plan(ctx, snap)
	if err != nil {
		return Result{}, err
	}

	staged, err := b.stage(snap, changes)
	if err != nil {
		return Result{}, err
	}

	treeChanges, err := b.upload(ctx, staged, blobs)
	if err != nil {
		return Result{}, err
	}

	treeID, err := b.store.CreateTree(ctx, tip.TreeID, treeChanges)
	if err != nil {
		return Result{}, fmt.Errorf("create tree: %w", err)
	}
	commitID, err := b.store.CreateCommit(ctx, message, treeID, []string{head})
	if err != nil {
		return Result{}, fmt.Errorf("create commit: %w", err)
	}
	if err := b.store.UpdateRef(ctx, b.branch, commitID, head); err != nil {
		return Result{}, fmt.Errorf("update branch %s: %w", b.branch, err)
	}

	res := Result{
		CommitID: commitID,
		URL:      b.store.CommitURL(commitID),
		Parent:   head,
	}
	for _, ch := range staged {
		if ch.Delete {
			res.Deleted = append(res.Deleted, ch.Path)
		} else {
			res.Paths = append(res.Paths, ch.Path)
		}
	}
	return res, nil
}

// stage normalises changes against the snapshot: directory deletions are
// expanded to the files beneath them, deletions of absent files are
// dropped, and a later change to a path overrides an earlier one.
func (b *Builder) stage(snap *Snapshot, changes []FileChange) ([]FileChange, error) {
	const op = "commit.stage"

	var order []string
	byPath := make(map[string]FileChange)
	put := func(ch FileChange) {
		if _, ok := byPath[ch.Path]; !ok {
			order = append(order, ch.Path)
		}
		byPath[ch.Path] = ch
	}

	for _, ch := range changes {
		p := cleanPath(ch.Path)
		if p == "" {
			return nil, apperr.Validation(op, fmt.Sprintf("invalid path %q", ch.Path))
		}
		switch {
		case ch.DeleteTree:
			for _, f := range snap.Under(p) {
				put(FileChange{Path: f, Delete: true})
			}
		case ch.Delete:
			if snap.Has(p) {
				put(FileChange{Path: p, Delete: true})
			}
		default:
			if ch.Binary && b.maxBlobBytes > 0 && int64(len(ch.Content)) > b.maxBlobBytes {
				return nil, apperr.New(apperr.KindPayloadTooLarge, op,
					fmt.Sprintf("%s is larger than the %d byte limit", p, b.maxBlobBytes))
			}
			ch.Path = p
			ch.Delete, ch.DeleteTree = false, false
			if !ch.Binary && !utf8.Valid(ch.Content) {
				ch.Binary = true
			}
			put(ch)
		}
	}

	if len(order) == 0 {
		return nil, apperr.Validation(op, "Nothing to commit.")
	}
	out := make([]FileChange, 0, len(order))
	for _, p := range order {
		out = append(out, byPath[p])
	}
	return out, nil
}

// upload creates blobs for binary changes in parallel and returns the tree
// entries for every change, in order.
func (b *Builder) upload(ctx context.Context, staged []FileChange, blobs *blobCache) ([]gitstore.Change, error) {
	out := make([]gitstore.Change, len(staged))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, ch := range staged {
		switch {
		case ch.Delete:
			out[i] = gitstore.Change{Path: ch.Path, Delete: true}
		case !ch.Binary:
			out[i] = gitstore.Change{Path: ch.Path, Content: ch.Content}
		default:
			g.Go(func() error {
				id, err := blobs.create(gctx, b.store, ch.Content)
				if err != nil {
					return fmt.Errorf("create blob for %s: %w", ch.Path, err)
				}
				out[i] = gitstore.Change{Path: ch.Path, BlobID: id}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// blobCache remembers blob ids across attempts so a retry does not upload
// the same bytes again.
type blobCache struct {
	mu  sync.Mutex
	ids map[[sha256.Size]byte]string
}

func (c *blobCache) create(ctx context.Context, store gitstore.Store, data []byte) (string, error) {
	key := sha256.Sum256(data)
	c.mu.Lock()
	id, ok := c.ids[key]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	id, err := store.CreateBlob(ctx, data)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.ids[key] = id
	c.mu.Unlock()
	return id, nil
}

// classify converts store failures into apperr kinds.
func classify(op string, attempts int, err error) error {
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae):
		return err
	case errors.Is(err, gitstore.ErrRefConflict):
		return apperr.Wrap(apperr.KindRefConflict, op,
			fmt.Sprintf("branch kept moving after %d attempts", attempts), err)
	case errors.Is(err, gitstore.ErrTooLarge):
		return apperr.Wrap(apperr.KindPayloadTooLarge, op, "The content repository rejected the file as too large.", err)
	case errors.Is(err, gitstore.ErrUnavailable),
		errors.Is(err, gitstore.ErrNotFound),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return apperr.Wrap(apperr.KindRemoteUnavailable, op, "", err)
	default:
		return apperr.Wrap(apperr.KindInternal, op, "", err)
	}
}
