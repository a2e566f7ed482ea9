// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package commit

import (
	"path"
	"sort"
	"strings"
)

// FileChange is one logical change to the repository tree. A change either
// writes Content at Path, deletes Path, or (DeleteTree) deletes every file
// whose path lies under the Path prefix.
type FileChange struct {
	Path       string
	Content    []byte
	Binary     bool
	Delete     bool
	DeleteTree bool
}

// Text writes a text document.
func Text(p string, content []byte) FileChange {
	return FileChange{Path: p, Content: content}
}

// Binary writes an opaque file through a separately created blob.
func Binary(p string, data []byte) FileChange {
	return FileChange{Path: p, Content: data, Binary: true}
}

// Delete removes a single file.
func Delete(p string) FileChange {
	return FileChange{Path: p, Delete: true}
}

// DeleteTree removes every file under the directory prefix.
func DeleteTree(prefix string) FileChange {
	return FileChange{Path: prefix, DeleteTree: true}
}

// cleanPath normalises a repository path: no leading slash, no dot
// segments. It returns "" for paths that would escape the root.
func cleanPath(p string) string {
	p = path.Clean("/" + strings.TrimSpace(p))
	p = strings.TrimPrefix(p, "/")
	if p == "" || p == "." {
		return ""
	}
	return p
}

// PathsUnder returns, sorted and without duplicates, every path that equals
// one of the prefixes or lies beneath one of them. It is pure: the same
// inputs always give the same set.
func PathsUnder(paths []string, prefixes ...string) []string {
	var clean []string
	for _, pre := range prefixes {
		if c := cleanPath(pre); c != "" {
			clean = append(clean, c)
		}
	}

	seen := make(map[string]bool)
	var out []string
	for _, p := range paths {
		if seen[p] {
			continue
		}
		for _, pre := range clean {
			if p == pre || strings.HasPrefix(p, pre+"/") {
				seen[p] = true
				out = append(out, p)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}
