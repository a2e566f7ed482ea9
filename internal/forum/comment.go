// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package forum

import (
	"context"
	"fmt"
	"time"

	"gitforum/internal/address"
	"gitforum/internal/apperr"
	"gitforum/internal/commit"
	"gitforum/internal/frontmatter"
	"gitforum/internal/models"
)

// CreateCommentInput is a new comment submission.
type CreateCommentInput struct {
	PostSlug string
	// PostDate completes a PostSlug that lacks its date prefix.
	PostDate   string
	Message    string
	Image      *models.Image
	OwnerToken string
}

// EditCommentInput is an edit of an existing comment. A nil Image keeps
// the current attachment.
type EditCommentInput struct {
	PostSlug   string
	PostDate   string
	CommentID  string
	Message    string
	Image      *models.Image
	OwnerToken string
}

// ResolveSlug turns a client-supplied post slug (possibly undated, or a
// page URL) into the stored slug.
func (s *Service) ResolveSlug(op, postSlug, postDate string) (string, error) {
	resolved, err := s.resolver.ResolvePostSlug(postSlug, postDate)
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidation, op, "Invalid post slug or date.", err)
	}
	return resolved, nil
}

func (s *Service) checkCommentImage(op string, img *models.Image) error {
	if img == nil {
		return nil
	}
	return validateImage(op, img, s.limits.MaxCommentImageBytes)
}

// CreateComment commits a new comment document (and its image) under an
// existing post.
func (s *Service) CreateComment(ctx context.Context, in CreateCommentInput) (models.Result, error) {
	const op = "forum.CreateComment"
	if err := requireOwner(op, in.OwnerToken); err != nil {
		return models.Result{}, err
	}
	postSlug, err := s.ResolveSlug(op, in.PostSlug, in.PostDate)
	if err != nil {
		return models.Result{}, err
	}
	if err := validateMessage(op, in.Message); err != nil {
		return models.Result{}, err
	}
	if err := s.checkCommentImage(op, in.Image); err != nil {
		return models.Result{}, err
	}

	id := s.ids.New()
	if !address.ValidCommentID(id) {
		return models.Result{}, apperr.New(apperr.KindInternal, op, fmt.Sprintf("generated comment id %q is not path safe", id))
	}
	now := s.clock.Now().UTC().Truncate(time.Second)

	plan := func(ctx context.Context, snap *commit.Snapshot) ([]commit.FileChange, error) {
		if !snap.Has(s.resolver.PostPath(postSlug)) {
			return nil, apperr.NotFound(op, "Post not found.")
		}
		docPath := s.resolver.CommentPath(postSlug, id)
		if snap.Has(docPath) {
			return nil, apperr.New(apperr.KindInternal, op, "comment id collision: "+id)
		}

		doc := frontmatter.Comment{
			ID:         id,
			Date:       now,
			UserCookie: in.OwnerToken,
			Message:    in.Message,
		}
		var changes []commit.FileChange
		if in.Image != nil {
			imgPath := s.resolver.CommentImagePath(postSlug, id, in.Image.Filename)
			doc.Image = s.store.FileURL(imgPath)
			doc.ImagePath = imgPath
			changes = append(changes, commit.Binary(imgPath, in.Image.Data))
		}
		encoded, err := frontmatter.EncodeComment(doc)
		if err != nil {
			return nil, err
		}
		return append(changes, commit.Text(docPath, encoded)), nil
	}

	res, err := s.builder.Apply(ctx, "Add comment to post: "+postSlug, plan)
	if err != nil {
		return models.Result{}, err
	}
	s.log.Info("comment created", "slug", postSlug, "comment", id, "commit", res.CommitID)
	out := s.result(models.OpNewComment, postSlug, res)
	out.CommentID = id
	return out, nil
}

// EditComment rewrites a comment the caller owns. The creation date is
// kept, and so is the image unless a new one replaces it.
func (s *Service) EditComment(ctx context.Context, in EditCommentInput) (models.Result, error) {
	const op = "forum.EditComment"
	if err := requireOwner(op, in.OwnerToken); err != nil {
		return models.Result{}, err
	}
	postSlug, err := s.ResolveSlug(op, in.PostSlug, in.PostDate)
	if err != nil {
		return models.Result{}, err
	}
	if !address.ValidCommentID(in.CommentID) {
		return models.Result{}, apperr.Validation(op, "Invalid comment id.")
	}
	if err := validateMessage(op, in.Message); err != nil {
		return models.Result{}, err
	}
	if err := s.checkCommentImage(op, in.Image); err != nil {
		return models.Result{}, err
	}

	plan := func(ctx context.Context, snap *commit.Snapshot) ([]commit.FileChange, error) {
		doc, err := s.loadComment(ctx, op, snap, postSlug, in.CommentID, in.OwnerToken)
		if err != nil {
			return nil, err
		}
		doc.Message = in.Message

		var changes []commit.FileChange
		if in.Image != nil {
			imgPath := s.resolver.CommentImagePath(postSlug, in.CommentID, in.Image.Filename)
			if doc.ImagePath != "" && doc.ImagePath != imgPath && s.inPostDir(postSlug, doc.ImagePath) {
				changes = append(changes, commit.Delete(doc.ImagePath))
			}
			doc.Image = s.store.FileURL(imgPath)
			doc.ImagePath = imgPath
			changes = append(changes, commit.Binary(imgPath, in.Image.Data))
		}
		encoded, err := frontmatter.EncodeComment(doc)
		if err != nil {
			return nil, err
		}
		return append(changes, commit.Text(s.resolver.CommentPath(postSlug, in.CommentID), encoded)), nil
	}

	msg := fmt.Sprintf("Edit comment %s in post: %s", in.CommentID, postSlug)
	res, err := s.builder.Apply(ctx, msg, plan)
	if err != nil {
		return models.Result{}, err
	}
	s.log.Info("comment updated", "slug", postSlug, "comment", in.CommentID, "commit", res.CommitID)
	out := s.result(models.OpEditComment, postSlug, res)
	out.CommentID = in.CommentID
	return out, nil
}

// DeleteComment removes a comment the caller owns together with its image.
// postSlug must be the stored (dated) slug; see ResolveSlug.
func (s *Service) DeleteComment(ctx context.Context, postSlug, commentID, ownerToken string) (models.Result, error) {
	const op = "forum.DeleteComment"
	if err := requireOwner(op, ownerToken); err != nil {
		return models.Result{}, err
	}
	if err := checkSlug(op, postSlug); err != nil {
		return models.Result{}, err
	}
	if !address.ValidCommentID(commentID) {
		return models.Result{}, apperr.Validation(op, "Invalid comment id.")
	}

	plan := func(ctx context.Context, snap *commit.Snapshot) ([]commit.FileChange, error) {
		doc, err := s.loadComment(ctx, op, snap, postSlug, commentID, ownerToken)
		if err != nil {
			return nil, err
		}
		changes := []commit.FileChange{commit.Delete(s.resolver.CommentPath(postSlug, commentID))}
		if doc.ImagePath != "" && s.inPostDir(postSlug, doc.ImagePath) {
			changes = append(changes, commit.Delete(doc.ImagePath))
		}
		return changes, nil
	}

	msg := fmt.Sprintf("Delete comment %s from post: %s", commentID, postSlug)
	res, err := s.builder.Apply(ctx, msg, plan)
	if err != nil {
		return models.Result{}, err
	}
	s.log.Info("comment deleted", "slug", postSlug, "comment", commentID, "commit", res.CommitID)
	out := s.result(models.OpDeleteComment, postSlug, res)
	out.CommentID = commentID
	return out, nil
}
