// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package buildstatus reports whether the site rebuild triggered by a
// commit has finished. A forum write is only visible to readers once the
// static site generator has run on it.
package buildstatus

import (
	"context"
	"time"
)

// Upstream run states and conclusions.
const (
	StatusQueued     = "queued"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"

	ConclusionSuccess   = "success"
	ConclusionFailure   = "failure"
	ConclusionCancelled = "cancelled"
	ConclusionTimedOut  = "timed_out"
)

// Status is the state of the newest build run for a commit.
type Status struct {
	RunID      int64     `json:"workflowId,omitempty"`
	Status     string    `json:"status,omitempty"`
	Conclusion string    `json:"conclusion,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
	URL        string    `json:"url,omitempty"`
	Found      bool      `json:"found"`
}

// Terminal reports whether the run has finished, whatever the outcome.
func (s Status) Terminal() bool {
	return s.Found && s.Status == StatusCompleted
}

// Succeeded reports whether the run finished successfully.
func (s Status) Succeeded() bool {
	return s.Terminal() && s.Conclusion == ConclusionSuccess
}

// Checker looks up build runs.
type Checker interface {
	// ForCommit returns the newest run for a commit. A commit with no run
	// yet reports Found == false and no error.
	ForCommit(ctx context.Context, sha string) (Status, error)
	// ForRun returns a run by id.
	ForRun(ctx context.Context, runID int64) (Status, error)
}
