// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package gitstore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
)

// DefaultTimeout bounds every remote call when GitHubConfig.Timeout is zero.
const DefaultTimeout = 30 * time.Second

const (
	fileMode = "100644"
	webURL   = "https://github.com"
)

// GitHubConfig configures a GitHub backend.
type GitHubConfig struct {
	Owner  string
	Repo   string
	Branch string
	Token  string

	// APIURL selects a GitHub Enterprise server, e.g.
	// https://git.example.com/api/v3/. Empty means github.com.
	APIURL  string
	Timeout time.Duration

	// HTTPClient overrides the transport. Nil uses http.DefaultClient.
	HTTPClient *http.Client
}

// GitHub is a Store backed by the GitHub git data API.
type GitHub struct {
	client  *github.Client
	owner   string
	repo    string
	branch  string
	web     string
	timeout time.Duration
}

// NewGitHub constructs a GitHub backend.
func NewGitHub(cfg GitHubConfig) (*GitHub, error) {
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, errors.New("gitstore: github owner and repo are required")
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	client := github.NewClient(cfg.HTTPClient)
	if cfg.Token != "" {
		client = client.WithAuthToken(cfg.Token)
	}
	web := webURL
	if cfg.APIURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(cfg.APIURL, cfg.APIURL)
		if err != nil {
			return nil, fmt.Errorf("gitstore: enterprise url: %w", err)
		}
		web = enterpriseWebURL(cfg.APIURL)
	}

	return &GitHub{
		client:  client,
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		branch:  cfg.Branch,
		web:     web,
		timeout: cfg.Timeout,
	}, nil
}

// enterpriseWebURL strips the API path from an enterprise API URL.
func enterpriseWebURL(apiURL string) string {
	u, err := url.Parse(apiURL)
	if err != nil {
		return strings.TrimRight(apiURL, "/")
	}
	u.Path = strings.TrimSuffix(strings.TrimRight(u.Path, "/"), "/api/v3")
	u.RawQuery = ""
	return strings.TrimRight(u.String(), "/")
}

// call runs fn with the per-call timeout and classifies its error.
func (g *GitHub) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return classify(op, fn(ctx))
}

// classify maps a go-github error onto the package sentinels.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var ge *github.ErrorResponse
	if errors.As(err, &ge) && ge.Response != nil {
		switch code := ge.Response.StatusCode; {
		case code == http.StatusNotFound:
			return fmt.Errorf("github %s: %w: %w", op, ErrNotFound, err)
		case code == http.StatusRequestEntityTooLarge:
			return fmt.Errorf("github %s: %w: %w", op, ErrTooLarge, err)
		case op == "update ref" && (code == http.StatusConflict || code == http.StatusUnprocessableEntity):
			return fmt.Errorf("github %s: %w: %w", op, ErrRefConflict, err)
		}
	}
	return fmt.Errorf("github %s: %w: %w", op, ErrUnavailable, err)
}

// Head implements Store.
func (g *GitHub) Head(ctx context.Context, branch string) (string, error) {
	var sha string
	err := g.call(ctx, "get ref", func(ctx context.Context) error {
		ref, _, err := g.client.Git.GetRef(ctx, g.owner, g.repo, "heads/"+branch)
		if err != nil {
			return err
		}
		sha = ref.GetObject().GetSHA()
		return nil
	})
	return sha, err
}

// Commit implements Store.
func (g *GitHub) Commit(ctx context.Context, id string) (CommitInfo, error) {
	var info CommitInfo
	err := g.call(ctx, "get commit", func(ctx context.Context) error {
		c, _, err := g.client.Git.GetCommit(ctx, g.owner, g.repo, id)
		if err != nil {
			return err
		}
		info = CommitInfo{
			ID:      c.GetSHA(),
			TreeID:  c.GetTree().GetSHA(),
			Message: c.GetMessage(),
		}
		for _, p := range c.Parents {
			info.Parents = append(info.Parents, p.GetSHA())
		}
		return nil
	})
	return info, err
}

// Tree implements Store. A truncated recursive listing is reported as
// unavailable since a partial snapshot would hide files from deletion.
func (g *GitHub) Tree(ctx context.Context, treeID string, recursive bool) ([]TreeEntry, error) {
	var entries []TreeEntry
	err := g.call(ctx, "get tree", func(ctx context.Context) error {
		t, _, err := g.client.Git.GetTree(ctx, g.owner, g.repo, treeID, recursive)
		if err != nil {
			return err
		}
		if t.GetTruncated() {
			return fmt.Errorf("tree %s listing truncated", treeID)
		}
		entries = make([]TreeEntry, 0, len(t.Entries))
		for _, e := range t.Entries {
			entries = append(entries, TreeEntry{
				Path: e.GetPath(),
				Type: e.GetType(),
				ID:   e.GetSHA(),
				Size: e.GetSize(),
			})
		}
		return nil
	})
	return entries, err
}

// ReadFile implements Store.
func (g *GitHub) ReadFile(ctx context.Context, path, ref string) ([]byte, error) {
	var data []byte
	err := g.call(ctx, "get contents", func(ctx context.Context) error {
		file, _, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, path,
			&github.RepositoryContentGetOptions{Ref: ref})
		if err != nil {
			return err
		}
		if file == nil {
			return fmt.Errorf("%s is a directory: %w", path, ErrNotFound)
		}
		content, err := file.GetContent()
		if err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		data = []byte(content)
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%s at %s: %w", path, ref, ErrNotFound)
	}
	return data, err
}

// CreateBlob implements Store. Content is sent base64 encoded.
func (g *GitHub) CreateBlob(ctx context.Context, data []byte) (string, error) {
	var sha string
	err := g.call(ctx, "create blob", func(ctx context.Context) error {
		b, _, err := g.client.Git.CreateBlob(ctx, g.owner, g.repo, &github.Blob{
			Content:  github.String(base64.StdEncoding.EncodeToString(data)),
			Encoding: github.String("base64"),
		})
		if err != nil {
			return err
		}
		sha = b.GetSHA()
		return nil
	})
	return sha, err
}

// CreateTree implements Store. Deletions are sent as entries with neither
// sha nor content, which go-github encodes as "sha": null.
func (g *GitHub) CreateTree(ctx context.Context, baseTreeID string, changes []Change) (string, error) {
	entries := make([]*github.TreeEntry, 0, len(changes))
	for _, ch := range changes {
		e := &github.TreeEntry{
			Path: github.String(ch.Path),
			Mode: github.String(fileMode),
			Type: github.String(TypeBlob),
		}
		switch {
		case ch.Delete:
		case ch.BlobID != "":
			e.SHA = github.String(ch.BlobID)
		default:
			e.Content = github.String(string(ch.Content))
		}
		entries = append(entries, e)
	}

	var sha string
	err := g.call(ctx, "create tree", func(ctx context.Context) error {
		t, _, err := g.client.Git.CreateTree(ctx, g.owner, g.repo, baseTreeID, entries)
		if err != nil {
			return err
		}
		sha = t.GetSHA()
		return nil
	})
	return sha, err
}

// CreateCommit implements Store.
func (g *GitHub) CreateCommit(ctx context.Context, message, treeID string, parents []string) (string, error) {
	commit := &github.Commit{
		Message: github.String(message),
		Tree:    &github.Tree{SHA: github.String(treeID)},
	}
	for _, p := range parents {
		commit.Parents = append(commit.Parents, &github.Commit{SHA: github.String(p)})
	}

	var sha string
	err := g.call(ctx, "create commit", func(ctx context.Context) error {
		c, _, err := g.client.Git.CreateCommit(ctx, g.owner, g.repo, commit, nil)
		if err != nil {
			return err
		}
		sha = c.GetSHA()
		return nil
	})
	return sha, err
}

// UpdateRef implements Store. GitHub has no compare-and-swap on refs; a
// non-forced update rejects anything that is not a fast-forward, and the
// new commit's only parent is expectedOld, so a moved branch is rejected.
func (g *GitHub) UpdateRef(ctx context.Context, branch, newID, expectedOld string) error {
	return g.call(ctx, "update ref", func(ctx context.Context) error {
		_, _, err := g.client.Git.UpdateRef(ctx, g.owner, g.repo, &github.Reference{
			Ref:    github.String("heads/" + branch),
			Object: &github.GitObject{SHA: github.String(newID)},
		}, false)
		return err
	})
}

// CommitURL implements Store.
func (g *GitHub) CommitURL(id string) string {
	return fmt.Sprintf("%s/%s/%s/commit/%s", g.web, g.owner, g.repo, id)
}

// FileURL implements Store. The raw query makes GitHub serve the bytes,
// which is what image references in post bodies need.
func (g *GitHub) FileURL(path string) string {
	return fmt.Sprintf("%s/%s/%s/blob/%s/%s?raw=true", g.web, g.owner, g.repo, g.branch, escapePath(path))
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}

// Client exposes the underlying API client for sibling services, such as
// build status lookups, that share credentials with the store.
func (g *GitHub) Client() *github.Client { return g.client }

// Repo returns the owner and repository name.
func (g *GitHub) Repo() (owner, repo string) { return g.owner, g.repo }
