// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// OperationKind names one of the six write workflows.
type OperationKind string

const (
	OpNewPost       OperationKind = "new-post"
	OpEditPost      OperationKind = "edit-post"
	OpDeletePost    OperationKind = "delete-post"
	OpNewComment    OperationKind = "new-comment"
	OpEditComment   OperationKind = "edit-comment"
	OpDeleteComment OperationKind = "delete-comment"
)

// Valid reports whether k is one of the known operation kinds.
func (k OperationKind) Valid() bool {
	switch k {
	case OpNewPost, OpEditPost, OpDeletePost, OpNewComment, OpEditComment, OpDeleteComment:
		return true
	}
	return false
}

// IsComment reports whether k operates on a comment.
func (k OperationKind) IsComment() bool {
	return k == OpNewComment || k == OpEditComment || k == OpDeleteComment
}

// Result describes the single commit produced by a successful operation.
type Result struct {
	Operation    OperationKind `json:"operation"`
	CommitID     string        `json:"commit_id"`
	CommitURL    string        `json:"commit_url"`
	PostSlug     string        `json:"post_slug,omitempty"`
	PostURL      string        `json:"post_url,omitempty"`
	CommentID    string        `json:"comment_id,omitempty"`
	Paths        []string      `json:"paths,omitempty"`
	DeletedPaths []string      `json:"deleted_paths,omitempty"`
	Attempts     int           `json:"attempts"`
}

// Submission is a client-side record of a write whose effect only becomes
// visible after the site rebuild triggered by CommitID completes.
type Submission struct {
	Key           string        `json:"key"`
	Kind          OperationKind `json:"kind"`
	Target        string        `json:"target"`
	CommitID      string        `json:"commit_id"`
	RunID         int64         `json:"run_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	LastCheckedAt time.Time     `json:"last_checked_at,omitempty"`
	LastStatus    string        `json:"last_status,omitempty"`
}

// Checked reports whether the submission has been polled at least once.
func (s *Submission) Checked() bool {
	return !s.LastCheckedAt.IsZero()
}

// Age returns how long ago the submission was registered.
func (s *Submission) Age(now time.Time) time.Duration {
	return now.Sub(s.CreatedAt)
}
