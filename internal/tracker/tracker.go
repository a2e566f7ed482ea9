// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package tracker follows forum submissions until the site rebuild that
// makes them visible has finished. While a submission is active the
// client refuses another write to the same target.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"gitforum/internal/buildstatus"
	"gitforum/internal/models"
)

// Defaults for Options.
const (
	DefaultMinInterval  = 30 * time.Second
	DefaultCeiling      = 10 * time.Minute
	DefaultQueryTimeout = 10 * time.Second

	// NewPostTarget identifies a post that has no slug yet.
	NewPostTarget = "new"

	pollConcurrency = 4
)

// State is where a submission stands.
type State string

const (
	StatePending   State = "pending"
	StatePolling   State = "polling"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
)

// Terminal reports whether a submission in state s is no longer tracked.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateTimedOut
}

// Source reports the build status for a commit.
type Source interface {
	Status(ctx context.Context, commitID string) (buildstatus.Status, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Resolution is the outcome of one submission in a Refresh.
type Resolution struct {
	Submission models.Submission
	State      State
	Status     buildstatus.Status
	Err        error // last query error, if the query failed
}

// Options tune the polling policy. Zero values select the defaults.
type Options struct {
	MinInterval  time.Duration
	Ceiling      time.Duration
	QueryTimeout time.Duration
	Clock        Clock
	Logger       *slog.Logger
}

// Tracker registers submissions and polls their build status.
type Tracker struct {
	kv           KV
	source       Source
	clock        Clock
	minInterval  time.Duration
	ceiling      time.Duration
	queryTimeout time.Duration
	log          *slog.Logger
}

// New creates a tracker over kv, querying source.
func New(kv KV, source Source, opts Options) *Tracker {
	t := &Tracker{
		kv:           kv,
		source:       source,
		clock:        opts.Clock,
		minInterval:  opts.MinInterval,
		ceiling:      opts.Ceiling,
		queryTimeout: opts.QueryTimeout,
		log:          opts.Logger,
	}
	if t.clock == nil {
		t.clock = realClock{}
	}
	if t.minInterval <= 0 {
		t.minInterval = DefaultMinInterval
	}
	if t.ceiling <= 0 {
		t.ceiling = DefaultCeiling
	}
	if t.queryTimeout <= 0 {
		t.queryTimeout = DefaultQueryTimeout
	}
	if t.log == nil {
		t.log = slog.Default()
	}
	return t
}

// Key returns the record key for a target.
func Key(kind models.OperationKind, identifier string) string {
	return string(kind) + "_" + identifier
}

// StateOf returns the in-flight state of a tracked submission.
func StateOf(s models.Submission) State {
	if s.Checked() {
		return StatePolling
	}
	return StatePending
}

// Track registers a submission for kind/identifier, replacing any earlier
// record for the same target.
func (t *Tracker) Track(ctx context.Context, kind models.OperationKind, identifier, commitID string) (models.Submission, error) {
	if !kind.Valid() {
		return models.Submission{}, fmt.Errorf("track: unknown operation %q", kind)
	}
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || commitID == "" {
		return models.Submission{}, fmt.Errorf("track: identifier and commit id are required")
	}
	s := models.Submission{
		Key:       Key(kind, identifier),
		Kind:      kind,
		Target:    identifier,
		CommitID:  commitID,
		CreatedAt: t.clock.Now().UTC(),
	}
	if err := t.kv.Put(ctx, s); err != nil {
		return models.Submission{}, fmt.Errorf("track %s: %w", s.Key, err)
	}
	t.log.Debug("tracking submission", "key", s.Key, "commit", commitID)
	return s, nil
}

func (t *Tracker) expired(s models.Submission, now time.Time) bool {
	return s.Age(now) >= t.ceiling
}

// IsActive reports whether a write to kind/identifier is still waiting
// for its rebuild. Records past the ceiling never count as active.
func (t *Tracker) IsActive(ctx context.Context, kind models.OperationKind, identifier string) (bool, error) {
	s, ok, err := t.kv.Get(ctx, Key(kind, identifier))
	if err != nil {
		return false, err
	}
	return ok && !t.expired(s, t.clock.Now()), nil
}

// Active lists the submissions still waiting, oldest first.
func (t *Tracker) Active(ctx context.Context) ([]models.Submission, error) {
	all, err := t.kv.List(ctx)
	if err != nil {
		return nil, err
	}
	now := t.clock.Now()
	out := all[:0]
	for _, s := range all {
		if !t.expired(s, now) {
			out = append(out, s)
		}
	}
	return out, nil
}

// Remove stops tracking kind/identifier.
func (t *Tracker) Remove(ctx context.Context, kind models.OperationKind, identifier string) error {
	return t.kv.Delete(ctx, Key(kind, identifier))
}

func (t *Tracker) due(s models.Submission, now time.Time) bool {
	last := s.CreatedAt
	if s.Checked() {
		last = s.LastCheckedAt
	}
	return now.Sub(last) >= t.minInterval
}

// Refresh polls every due submission once and returns what happened to
// each record it touched. Records past the ceiling are removed as timed
// out without a query. A due record is stamped before its query is sent,
// so an overlapping Refresh skips it. Query failures are reported in the
// Resolution and leave the record in place.
func (t *Tracker) Refresh(ctx context.Context) ([]Resolution, error) {
	all, err := t.kv.List(ctx)
	if err != nil {
		return nil, err
	}
	now := t.clock.Now()

	var (
		out []Resolution
		due []models.Submission
	)
	for _, s := range all {
		switch {
		case t.expired(s, now):
			if err := t.kv.Delete(ctx, s.Key); err != nil {
				return out, err
			}
			t.log.Info("submission timed out", "key", s.Key, "commit", s.CommitID, "age", s.Age(now).String())
			out = append(out, Resolution{Submission: s, State: StateTimedOut})
		case t.due(s, now):
			s.LastCheckedAt = now
			if err := t.kv.Put(ctx, s); err != nil {
				return out, err
			}
			due = append(due, s)
		}
	}

	results := make([]Resolution, len(due))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pollConcurrency)
	for i, s := range due {
		g.Go(func() error {
			results[i] = t.poll(gctx, s)
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range results {
		if res.State.Terminal() || res.Err == nil {
			if err := t.settle(ctx, res); err != nil {
				return out, err
			}
		}
		out = append(out, res)
	}
	return out, nil
}

// settle writes a poll result back, unless the record was removed or
// re-tracked with another commit while the query was in flight.
func (t *Tracker) settle(ctx context.Context, res Resolution) error {
	cur, ok, err := t.kv.Get(ctx, res.Submission.Key)
	if err != nil {
		return err
	}
	if !ok || cur.CommitID != res.Submission.CommitID {
		t.log.Debug("submission changed during poll", "key", res.Submission.Key, "commit", res.Submission.CommitID)
		return nil
	}
	if res.State.Terminal() {
		return t.kv.Delete(ctx, res.Submission.Key)
	}
	return t.kv.Put(ctx, res.Submission)
}

// poll queries one submission with its own timeout.
func (t *Tracker) poll(ctx context.Context, s models.Submission) Resolution {
	qctx, cancel := context.WithTimeout(ctx, t.queryTimeout)
	defer cancel()

	st, err := t.source.Status(qctx, s.CommitID)
	if err != nil {
		t.log.Warn("submission status query failed", "key", s.Key, "commit", s.CommitID, "error", err)
		return Resolution{Submission: s, State: StatePolling, Err: err}
	}

	if st.Found {
		s.RunID = st.RunID
		s.LastStatus = st.Status
	}
	res := Resolution{Submission: s, State: StatePolling, Status: st}
	if st.Terminal() {
		res.State = StateFailed
		if st.Succeeded() {
			res.State = StateCompleted
		}
		t.log.Info("submission resolved", "key", s.Key, "commit", s.CommitID, "state", res.State, "conclusion", st.Conclusion)
	}
	return res
}

// Watch refreshes every interval until no submission is active or ctx
// ends. notify, if non-nil, receives every resolution.
func (t *Tracker) Watch(ctx context.Context, every time.Duration, notify func(Resolution)) error {
	if every <= 0 {
		every = t.minInterval
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		resolutions, err := t.Refresh(ctx)
		if err != nil {
			return err
		}
		if notify != nil {
			for _, r := range resolutions {
				notify(r)
			}
		}
		active, err := t.Active(ctx)
		if err != nil {
			return err
		}
		if len(active) == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
