// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package gitstore is the forum's view of a commit-versioned content
// repository: blobs, flat path trees, commits and a single branch ref.
// Every backend is constructed explicitly and injected; there is no
// package-level client.
package gitstore

import (
	"context"
	"errors"
)

// Sentinel errors returned (wrapped) by every backend.
var (
	// ErrNotFound means the requested ref, commit, tree or path is absent.
	ErrNotFound = errors.New("gitstore: not found")
	// ErrRefConflict means the branch no longer points at the expected commit.
	ErrRefConflict = errors.New("gitstore: ref conflict")
	// ErrUnavailable covers transport, auth, server and timeout failures.
	ErrUnavailable = errors.New("gitstore: remote unavailable")
	// ErrTooLarge means the backend refused an object because of its size.
	ErrTooLarge = errors.New("gitstore: object too large")
)

// Entry types reported by Tree.
const (
	TypeBlob = "blob"
	TypeTree = "tree"
)

// CommitInfo describes a commit.
type CommitInfo struct {
	ID      string
	TreeID  string
	Parents []string
	Message string
}

// TreeEntry is one entry of a tree listing. In a recursive listing Path is
// the full path from the repository root.
type TreeEntry struct {
	Path string
	Type string
	ID   string
	Size int
}

// Change is one entry passed to CreateTree. Exactly one of Content, BlobID
// or Delete is meaningful: inline text content, a previously created blob,
// or removal of the path from the base tree.
type Change struct {
	Path    string
	Content []byte
	BlobID  string
	Delete  bool
}

// Store is the capability the commit pipeline needs from a backend.
type Store interface {
	// Head returns the commit the branch currently points at.
	Head(ctx context.Context, branch string) (string, error)
	Commit(ctx context.Context, id string) (CommitInfo, error)
	Tree(ctx context.Context, treeID string, recursive bool) ([]TreeEntry, error)
	// ReadFile returns the content of path at ref (a branch or commit id).
	ReadFile(ctx context.Context, path, ref string) ([]byte, error)
	CreateBlob(ctx context.Context, data []byte) (string, error)
	// CreateTree applies changes on top of baseTreeID and returns the new tree.
	CreateTree(ctx context.Context, baseTreeID string, changes []Change) (string, error)
	CreateCommit(ctx context.Context, message, treeID string, parents []string) (string, error)
	// UpdateRef moves branch to newID only if it still points at expectedOld.
	UpdateRef(ctx context.Context, branch, newID, expectedOld string) error

	// CommitURL and FileURL return remote-viewable locations.
	CommitURL(id string) string
	FileURL(path string) string
}
