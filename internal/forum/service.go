// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package forum implements the forum's write workflows: creating, editing
// and deleting posts and comments. Each workflow is a single commit.Plan,
// so existence and ownership checks are evaluated against the same
// snapshot the commit is built on, and a retried commit re-checks them.
package forum

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"gitforum/internal/address"
	"gitforum/internal/apperr"
	"gitforum/internal/commit"
	"gitforum/internal/frontmatter"
	"gitforum/internal/gitstore"
	"gitforum/internal/models"
	"gitforum/internal/ownership"
)

// Options configures a Service. Zero values fall back to real
// implementations and DefaultLimits.
type Options struct {
	Clock  Clock
	IDs    IDGenerator
	Limits Limits
	Logger *slog.Logger
}

// Service runs forum operations against one branch of a content store.
type Service struct {
	builder  *commit.Builder
	resolver *address.Resolver
	store    gitstore.Store
	clock    Clock
	ids      IDGenerator
	limits   Limits
	log      *slog.Logger
}

// NewService wires a Service.
func NewService(builder *commit.Builder, resolver *address.Resolver, opts Options) *Service {
	s := &Service{
		builder:  builder,
		resolver: resolver,
		store:    builder.Store(),
		clock:    opts.Clock,
		ids:      opts.IDs,
		limits:   opts.Limits,
		log:      opts.Logger,
	}
	if s.clock == nil {
		s.clock = RealClock{}
	}
	if s.ids == nil {
		s.ids = UUIDGenerator{}
	}
	if s.limits == (Limits{}) {
		s.limits = DefaultLimits
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// Resolver returns the address resolver used by the service.
func (s *Service) Resolver() *address.Resolver { return s.resolver }

// result fills the common fields of an operation result.
func (s *Service) result(kind models.OperationKind, postSlug string, res commit.Result) models.Result {
	return models.Result{
		Operation:    kind,
		CommitID:     res.CommitID,
		CommitURL:    res.URL,
		PostSlug:     postSlug,
		PostURL:      s.resolver.PostURL(postSlug),
		Paths:        res.Paths,
		DeletedPaths: res.Deleted,
		Attempts:     res.Attempts,
	}
}

// fileURL returns the remote URL for a file in a post directory.
func (s *Service) fileURL(dir string) func(string) string {
	return func(name string) string {
		return s.store.FileURL(path.Join(dir, name))
	}
}

// checkSlug rejects slugs that are not dated single path segments.
func checkSlug(op, postSlug string) error {
	if !address.ValidSlug(postSlug) {
		return apperr.Validation(op, "Invalid post slug.")
	}
	if _, _, ok := address.SplitSlug(postSlug); !ok {
		return apperr.Validation(op, "Post slug must start with its date.")
	}
	return nil
}

// loadPost reads and authorizes the post document at slug within snap.
// A missing post is NotFound.
func (s *Service) loadPost(ctx context.Context, op string, snap *commit.Snapshot, postSlug, caller string) (frontmatter.Post, error) {
	p := s.resolver.PostPath(postSlug)
	if !snap.Has(p) {
		return frontmatter.Post{}, apperr.NotFound(op, "Post not found.")
	}
	data, err := snap.ReadFile(ctx, p)
	if err != nil {
		return frontmatter.Post{}, fmt.Errorf("read post %s: %w", p, err)
	}
	if err := s.authorize(op, p, data, caller); err != nil {
		return frontmatter.Post{}, err
	}
	doc, err := frontmatter.DecodePost(data)
	if err != nil {
		return frontmatter.Post{}, apperr.Wrap(apperr.KindInternal, op, "", err)
	}
	return doc, nil
}

// authorize checks caller against the owner token recorded in a stored
// document. A document without a readable owner is owned by nobody.
func (s *Service) authorize(op, p string, data []byte, caller string) error {
	stored, ok := address.ParseOwnerToken(data)
	if !ok {
		s.log.Warn("document has no readable owner", "path", p)
	}
	return ownership.Authorize(op, stored, caller)
}

// loadComment reads and authorizes a comment document within snap.
func (s *Service) loadComment(ctx context.Context, op string, snap *commit.Snapshot, postSlug, id, caller string) (frontmatter.Comment, error) {
	p := s.resolver.CommentPath(postSlug, id)
	if !snap.Has(p) {
		return frontmatter.Comment{}, apperr.NotFound(op, "Comment not found.")
	}
	data, err := snap.ReadFile(ctx, p)
	if err != nil {
		return frontmatter.Comment{}, fmt.Errorf("read comment %s: %w", p, err)
	}
	if err := s.authorize(op, p, data, caller); err != nil {
		return frontmatter.Comment{}, err
	}
	doc, err := frontmatter.DecodeComment(data)
	if err != nil {
		return frontmatter.Comment{}, apperr.Wrap(apperr.KindInternal, op, "", err)
	}
	return doc, nil
}

// inPostDir reports whether p is a file inside the post's directory.
func (s *Service) inPostDir(postSlug, p string) bool {
	return strings.HasPrefix(p, s.resolver.PostDir(postSlug)+"/")
}

// readErr classifies a direct store read.
func readErr(op, what string, err error) error {
	if errors.Is(err, gitstore.ErrNotFound) {
		return apperr.NotFound(op, what+" not found.")
	}
	return apperr.Wrap(apperr.KindRemoteUnavailable, op, "", err)
}

// GetPost reads a post at the branch tip.
func (s *Service) GetPost(ctx context.Context, postSlug string) (models.Post, error) {
	const op = "forum.GetPost"
	if err := checkSlug(op, postSlug); err != nil {
		return models.Post{}, err
	}
	data, err := s.store.ReadFile(ctx, s.resolver.PostPath(postSlug), s.builder.Branch())
	if err != nil {
		return models.Post{}, readErr(op, "Post", err)
	}
	doc, err := frontmatter.DecodePost(data)
	if err != nil {
		return models.Post{}, apperr.Wrap(apperr.KindInternal, op, "", err)
	}
	created, _ := address.ParseTimestamp(data)
	owner, _ := address.ParseOwnerToken(data)
	_, titleSlug, _ := address.SplitSlug(postSlug)
	return models.Post{
		Slug:       postSlug,
		TitleSlug:  titleSlug,
		Title:      doc.Meta.Title,
		Body:       doc.Description,
		CreatedAt:  created,
		OwnerToken: owner,
		Images:     doc.Meta.Images,
	}, nil
}

// GetComment reads a comment at the branch tip.
func (s *Service) GetComment(ctx context.Context, postSlug, id string) (models.Comment, error) {
	const op = "forum.GetComment"
	if err := checkSlug(op, postSlug); err != nil {
		return models.Comment{}, err
	}
	if !address.ValidCommentID(id) {
		return models.Comment{}, apperr.Validation(op, "Invalid comment id.")
	}
	data, err := s.store.ReadFile(ctx, s.resolver.CommentPath(postSlug, id), s.builder.Branch())
	if err != nil {
		return models.Comment{}, readErr(op, "Comment", err)
	}
	doc, err := frontmatter.DecodeComment(data)
	if err != nil {
		return models.Comment{}, apperr.Wrap(apperr.KindInternal, op, "", err)
	}
	created, _ := address.ParseTimestamp(data)
	owner, _ := address.ParseOwnerToken(data)
	return models.Comment{
		ID:         doc.ID,
		PostSlug:   postSlug,
		CreatedAt:  created,
		OwnerToken: owner,
		Message:    doc.Message,
		ImageURL:   doc.Image,
		ImagePath:  doc.ImagePath,
	}, nil
}
