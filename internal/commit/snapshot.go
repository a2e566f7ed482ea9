// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package commit

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"gitforum/internal/gitstore"
)

// Snapshot is the state of the branch a commit attempt is built on: the
// tip commit and every blob path in its tree.
type Snapshot struct {
	CommitID string
	TreeID   string

	store gitstore.Store
	files map[string]gitstore.TreeEntry
	paths []string
}

func newSnapshot(store gitstore.Store, commitID, treeID string, entries []gitstore.TreeEntry) *Snapshot {
	s := &Snapshot{
		CommitID: commitID,
		TreeID:   treeID,
		store:    store,
		files:    make(map[string]gitstore.TreeEntry, len(entries)),
	}
	for _, e := range entries {
		if e.Type != gitstore.TypeBlob {
			continue
		}
		s.files[e.Path] = e
		s.paths = append(s.paths, e.Path)
	}
	sort.Strings(s.paths)
	return s
}

// Has reports whether a file exists at p.
func (s *Snapshot) Has(p string) bool {
	_, ok := s.files[cleanPath(p)]
	return ok
}

// HasDir reports whether any file lies under dir.
func (s *Snapshot) HasDir(dir string) bool {
	dir = cleanPath(dir)
	if dir == "" {
		return false
	}
	i := sort.SearchStrings(s.paths, dir+"/")
	return i < len(s.paths) && strings.HasPrefix(s.paths[i], dir+"/")
}

// Paths returns every file path, sorted.
func (s *Snapshot) Paths() []string {
	return append([]string(nil), s.paths...)
}

// Under returns the files under any of the prefixes.
func (s *Snapshot) Under(prefixes ...string) []string {
	return PathsUnder(s.paths, prefixes...)
}

// List returns the names of the files directly inside dir, sorted.
func (s *Snapshot) List(dir string) []string {
	dir = cleanPath(dir)
	var names []string
	for _, p := range s.Under(dir) {
		if path.Dir(p) == dir {
			names = append(names, path.Base(p))
		}
	}
	return names
}

// ReadFile reads p as of the snapshot commit.
func (s *Snapshot) ReadFile(ctx context.Context, p string) ([]byte, error) {
	p = cleanPath(p)
	if _, ok := s.files[p]; !ok {
		return nil, fmt.Errorf("%s: %w", p, gitstore.ErrNotFound)
	}
	return s.store.ReadFile(ctx, p, s.CommitID)
}
