// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package gitstore

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	gocid "github.com/ipfs/go-cid"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"
)

// Memory is an in-process Store. Every object id is a base32 CIDv1 of the
// object's canonical encoding, so identical content always gets the same
// id. It backs the "memory" content backend and the tests.
type Memory struct {
	mu      sync.Mutex
	branch  string
	blobs   map[string][]byte
	trees   map[string]map[string]string // tree id -> path -> blob id
	commits map[string]CommitInfo
	refs    map[string]string

	// Fault, when set, is consulted before every operation; a non-nil
	// return fails the operation with that error.
	Fault func(op string) error
}

// NewMemory returns a store whose branch points at an empty root commit.
func NewMemory(branch string) *Memory {
	m := &Memory{
		branch:  branch,
		blobs:   make(map[string][]byte),
		trees:   make(map[string]map[string]string),
		commits: make(map[string]CommitInfo),
		refs:    make(map[string]string),
	}
	treeID := m.putTree(map[string]string{})
	root := m.putCommit("Initial commit", treeID, nil)
	m.refs[branch] = root
	return m
}

// objectID computes the id of an encoded object.
func objectID(data []byte) string {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		panic(fmt.Sprintf("gitstore: multihash: %v", err))
	}
	encoded, err := gocid.NewCidV1(gocid.Raw, mh).StringOfBase(multibase.Base32)
	if err != nil {
		panic(fmt.Sprintf("gitstore: encode cid: %v", err))
	}
	return encoded
}

func (m *Memory) fault(op string) error {
	if m.Fault == nil {
		return nil
	}
	if err := m.Fault(op); err != nil {
		return fmt.Errorf("memory %s: %w", op, err)
	}
	return nil
}

func (m *Memory) putBlob(data []byte) string {
	id := objectID(append([]byte("blob\x00"), data...))
	if _, ok := m.blobs[id]; !ok {
		m.blobs[id] = bytes.Clone(data)
	}
	return id
}

func (m *Memory) putTree(files map[string]string) string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var buf bytes.Buffer
	buf.WriteString("tree\x00")
	for _, p := range paths {
		fmt.Fprintf(&buf, "%s\x00%s\n", p, files[p])
	}
	id := objectID(buf.Bytes())
	if _, ok := m.trees[id]; !ok {
		clone := make(map[string]string, len(files))
		for p, b := range files {
			clone[p] = b
		}
		m.trees[id] = clone
	}
	return id
}

func (m *Memory) putCommit(message, treeID string, parents []string) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "commit\x00tree %s\n", treeID)
	for _, p := range parents {
		fmt.Fprintf(&buf, "parent %s\n", p)
	}
	fmt.Fprintf(&buf, "\n%s", message)
	id := objectID(buf.Bytes())
	m.commits[id] = CommitInfo{
		ID:      id,
		TreeID:  treeID,
		Parents: append([]string(nil), parents...),
		Message: message,
	}
	return id
}

// Head implements Store.
func (m *Memory) Head(_ context.Context, branch string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fault("head"); err != nil {
		return "", err
	}
	id, ok := m.refs[branch]
	if !ok {
		return "", fmt.Errorf("branch %q: %w", branch, ErrNotFound)
	}
	return id, nil
}

// Commit implements Store.
func (m *Memory) Commit(_ context.Context, id string) (CommitInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fault("commit"); err != nil {
		return CommitInfo{}, err
	}
	c, ok := m.commits[id]
	if !ok {
		return CommitInfo{}, fmt.Errorf("commit %q: %w", id, ErrNotFound)
	}
	c.Parents = append([]string(nil), c.Parents...)
	return c, nil
}

// Tree implements Store. A non-recursive listing returns the top-level
// blobs and one tree entry per top-level directory.
func (m *Memory) Tree(_ context.Context, treeID string, recursive bool) ([]TreeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fault("tree"); err != nil {
		return nil, err
	}
	files, ok := m.trees[treeID]
	if !ok {
		return nil, fmt.Errorf("tree %q: %w", treeID, ErrNotFound)
	}

	var entries []TreeEntry
	dirs := make(map[string]bool)
	for p, blobID := range files {
		if !recursive {
			if i := strings.IndexByte(p, '/'); i >= 0 {
				dirs[p[:i]] = true
				continue
			}
		}
		entries = append(entries, TreeEntry{Path: p, Type: TypeBlob, ID: blobID, Size: len(m.blobs[blobID])})
	}
	for d := range dirs {
		entries = append(entries, TreeEntry{Path: d, Type: TypeTree})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// ReadFile implements Store.
func (m *Memory) ReadFile(_ context.Context, p, ref string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fault("read"); err != nil {
		return nil, err
	}
	commitID := ref
	if id, ok := m.refs[ref]; ok {
		commitID = id
	}
	c, ok := m.commits[commitID]
	if !ok {
		return nil, fmt.Errorf("ref %q: %w", ref, ErrNotFound)
	}
	blobID, ok := m.trees[c.TreeID][p]
	if !ok {
		return nil, fmt.Errorf("%s at %s: %w", p, ref, ErrNotFound)
	}
	return bytes.Clone(m.blobs[blobID]), nil
}

// CreateBlob implements Store.
func (m *Memory) CreateBlob(_ context.Context, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fault("blob"); err != nil {
		return "", err
	}
	return m.putBlob(data), nil
}

// CreateTree implements Store. An empty baseTreeID starts from an empty tree.
func (m *Memory) CreateTree(_ context.Context, baseTreeID string, changes []Change) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fault("tree"); err != nil {
		return "", err
	}

	files := make(map[string]string)
	if baseTreeID != "" {
		base, ok := m.trees[baseTreeID]
		if !ok {
			return "", fmt.Errorf("base tree %q: %w", baseTreeID, ErrNotFound)
		}
		for p, b := range base {
			files[p] = b
		}
	}

	for _, ch := range changes {
		p := path.Clean(strings.TrimPrefix(ch.Path, "/"))
		switch {
		case ch.Delete:
			if _, ok := files[p]; !ok {
				return "", fmt.Errorf("delete %s: %w", p, ErrNotFound)
			}
			delete(files, p)
		case ch.BlobID != "":
			if _, ok := m.blobs[ch.BlobID]; !ok {
				return "", fmt.Errorf("blob %q: %w", ch.BlobID, ErrNotFound)
			}
			files[p] = ch.BlobID
		default:
			files[p] = m.putBlob(ch.Content)
		}
	}
	return m.putTree(files), nil
}

// CreateCommit implements Store.
func (m *Memory) CreateCommit(_ context.Context, message, treeID string, parents []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fault("commit"); err != nil {
		return "", err
	}
	if _, ok := m.trees[treeID]; !ok {
		return "", fmt.Errorf("tree %q: %w", treeID, ErrNotFound)
	}
	for _, p := range parents {
		if _, ok := m.commits[p]; !ok {
			return "", fmt.Errorf("parent %q: %w", p, ErrNotFound)
		}
	}
	return m.putCommit(message, treeID, parents), nil
}

// UpdateRef implements Store as a compare-and-swap on the branch.
func (m *Memory) UpdateRef(_ context.Context, branch, newID, expectedOld string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fault("ref"); err != nil {
		return err
	}
	if _, ok := m.commits[newID]; !ok {
		return fmt.Errorf("commit %q: %w", newID, ErrNotFound)
	}
	if cur := m.refs[branch]; cur != expectedOld {
		return fmt.Errorf("branch %q is at %s, expected %s: %w", branch, cur, expectedOld, ErrRefConflict)
	}
	m.refs[branch] = newID
	return nil
}

// CommitURL implements Store.
func (m *Memory) CommitURL(id string) string {
	return "memory://" + m.branch + "/commit/" + id
}

// FileURL implements Store.
func (m *Memory) FileURL(p string) string {
	return "memory://" + m.branch + "/blob/" + p
}

// Log returns the commits reachable from branch, newest first, following
// first parents.
func (m *Memory) Log(branch string) []CommitInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []CommitInfo
	id := m.refs[branch]
	for id != "" {
		c, ok := m.commits[id]
		if !ok {
			break
		}
		out = append(out, c)
		if len(c.Parents) == 0 {
			break
		}
		id = c.Parents[0]
	}
	return out
}

// Files returns every path and its content at the tip of branch.
func (m *Memory) Files(branch string) map[string][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string][]byte)
	c, ok := m.commits[m.refs[branch]]
	if !ok {
		return out
	}
	for p, b := range m.trees[c.TreeID] {
		out[p] = bytes.Clone(m.blobs[b])
	}
	return out
}
