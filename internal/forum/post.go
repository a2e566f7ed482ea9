// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package forum

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"gitforum/internal/address"
	"gitforum/internal/apperr"
	"gitforum/internal/commit"
	"gitforum/internal/frontmatter"
	"gitforum/internal/models"
)

// CreatePostInput is a new post submission.
type CreatePostInput struct {
	Title      string
	Body       string
	Images     []models.Image
	OwnerToken string
}

// EditPostInput is an edit of an existing post. DeletedImages may name
// either the stored file name or the originally uploaded one.
type EditPostInput struct {
	Slug          string
	Title         string
	Body          string
	NewImages     []models.Image
	DeletedImages []string
	OwnerToken    string
}

// imagePrefix is the title part of a dated slug, used to name attachments.
func imagePrefix(postSlug string) string {
	if _, title, ok := address.SplitSlug(postSlug); ok {
		return title
	}
	return address.DefaultTitleSlug
}

// stageImages validates uploads and returns their stored names in order.
// Two uploads that map to the same stored name are rejected.
func (s *Service) stageImages(op, prefix string, images []models.Image) ([]string, error) {
	if s.limits.MaxPostImages > 0 && len(images) > s.limits.MaxPostImages {
		return nil, apperr.Validation(op, fmt.Sprintf("At most %d images can be attached.", s.limits.MaxPostImages))
	}
	names := make([]string, 0, len(images))
	seen := make(map[string]bool, len(images))
	for i := range images {
		if err := validateImage(op, &images[i], s.limits.MaxPostImageBytes); err != nil {
			return nil, err
		}
		name := address.PostImageName(prefix, images[i].Filename)
		if seen[name] {
			return nil, apperr.Validation(op, fmt.Sprintf("Image %q was attached twice.", images[i].Filename))
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}

// CreatePost commits a new post directory. A slug already taken by another
// post gets a numeric suffix rather than overwriting it.
func (s *Service) CreatePost(ctx context.Context, in CreatePostInput) (models.Result, error) {
	const op = "forum.CreatePost"
	if err := requireOwner(op, in.OwnerToken); err != nil {
		return models.Result{}, err
	}
	if err := validatePost(op, in.Title, in.Body); err != nil {
		return models.Result{}, err
	}
	title := strings.TrimSpace(in.Title)
	now := s.clock.Now().UTC().Truncate(time.Second)
	base := s.resolver.PostSlug(title, now)

	var postSlug string
	plan := func(ctx context.Context, snap *commit.Snapshot) ([]commit.FileChange, error) {
		var err error
		postSlug, err = address.Disambiguate(base, func(candidate string) bool {
			return snap.HasDir(s.resolver.PostDir(candidate)) || snap.HasDir(s.resolver.CommentsDir(candidate))
		})
		if err != nil {
			return nil, apperr.Wrap(apperr.KindValidation, op, "Too many posts with this title today.", err)
		}

		names, err := s.stageImages(op, imagePrefix(postSlug), in.Images)
		if err != nil {
			return nil, err
		}
		dir := s.resolver.PostDir(postSlug)

		doc, err := frontmatter.EncodePost(frontmatter.Post{
			Meta: frontmatter.PostMeta{
				Title:      title,
				Date:       now,
				Slug:       postSlug,
				UserCookie: in.OwnerToken,
				Images:     names,
			},
			Description: in.Body,
		}, s.fileURL(dir))
		if err != nil {
			return nil, err
		}

		changes := make([]commit.FileChange, 0, len(names)+1)
		for i, name := range names {
			changes = append(changes, commit.Binary(path.Join(dir, name), in.Images[i].Data))
		}
		changes = append(changes, commit.Text(s.resolver.PostPath(postSlug), doc))
		return changes, nil
	}

	res, err := s.builder.Apply(ctx, "Create new blog post: "+title, plan)
	if err != nil {
		return models.Result{}, err
	}
	s.log.Info("post created", "slug", postSlug, "commit", res.CommitID, "images", len(in.Images))
	return s.result(models.OpNewPost, postSlug, res), nil
}

// EditPost rewrites a post the caller owns. The creation date and slug
// are preserved; surviving images keep their order and new images are
// appended, a new image replacing an existing one of the same name.
func (s *Service) EditPost(ctx context.Context, in EditPostInput) (models.Result, error) {
	const op = "forum.EditPost"
	if err := requireOwner(op, in.OwnerToken); err != nil {
		return models.Result{}, err
	}
	if err := checkSlug(op, in.Slug); err != nil {
		return models.Result{}, err
	}
	if err := validatePost(op, in.Title, in.Body); err != nil {
		return models.Result{}, err
	}
	title := strings.TrimSpace(in.Title)
	prefix := imagePrefix(in.Slug)
	dir := s.resolver.PostDir(in.Slug)

	newNames, err := s.stageImages(op, prefix, in.NewImages)
	if err != nil {
		return models.Result{}, err
	}

	plan := func(ctx context.Context, snap *commit.Snapshot) ([]commit.FileChange, error) {
		doc, err := s.loadPost(ctx, op, snap, in.Slug, in.OwnerToken)
		if err != nil {
			return nil, err
		}

		existing := existingImages(snap, dir, doc.Meta.Images)
		deleted := make(map[string]bool)
		for _, d := range in.DeletedImages {
			for _, name := range existing {
				if name == d || name == address.PostImageName(prefix, d) {
					deleted[name] = true
				}
			}
		}

		replaced := make(map[string]bool, len(newNames))
		for _, name := range newNames {
			replaced[name] = true
		}

		var changes []commit.FileChange
		var images []string
		for _, name := range existing {
			switch {
			case replaced[name]:
				images = append(images, name)
			case deleted[name]:
				changes = append(changes, commit.Delete(path.Join(dir, name)))
			default:
				images = append(images, name)
			}
		}
		for i, name := range newNames {
			if !contains(existing, name) {
				images = append(images, name)
			}
			changes = append(changes, commit.Binary(path.Join(dir, name), in.NewImages[i].Data))
		}

		meta := doc.Meta
		meta.Title = title
		meta.Images = images
		body, err := frontmatter.EncodePost(frontmatter.Post{Meta: meta, Description: in.Body}, s.fileURL(dir))
		if err != nil {
			return nil, err
		}
		return append(changes, commit.Text(s.resolver.PostPath(in.Slug), body)), nil
	}

	res, err := s.builder.Apply(ctx, "Update blog post: "+title, plan)
	if err != nil {
		return models.Result{}, err
	}
	s.log.Info("post updated", "slug", in.Slug, "commit", res.CommitID)
	return s.result(models.OpEditPost, in.Slug, res), nil
}

// existingImages lists the post's attachments present in the snapshot:
// the documented images first, in document order, then any other
// attachment found in the directory.
func existingImages(snap *commit.Snapshot, dir string, documented []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, name := range documented {
		if !seen[name] && snap.Has(path.Join(dir, name)) {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, name := range snap.List(dir) {
		if seen[name] || name == "index.md" || address.IsCommentImage(name) {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// DeletePost removes a post the caller owns together with every comment
// under it, in one commit.
func (s *Service) DeletePost(ctx context.Context, postSlug, ownerToken string) (models.Result, error) {
	const op = "forum.DeletePost"
	if err := requireOwner(op, ownerToken); err != nil {
		return models.Result{}, err
	}
	if err := checkSlug(op, postSlug); err != nil {
		return models.Result{}, err
	}

	plan := func(ctx context.Context, snap *commit.Snapshot) ([]commit.FileChange, error) {
		if _, err := s.loadPost(ctx, op, snap, postSlug, ownerToken); err != nil {
			return nil, err
		}
		return []commit.FileChange{
			commit.DeleteTree(s.resolver.PostDir(postSlug)),
			commit.DeleteTree(s.resolver.CommentsDir(postSlug)),
		}, nil
	}

	res, err := s.builder.Apply(ctx, "Delete post: "+postSlug, plan)
	if err != nil {
		return models.Result{}, err
	}
	s.log.Info("post deleted", "slug", postSlug, "commit", res.CommitID, "files", len(res.Deleted))
	return s.result(models.OpDeletePost, postSlug, res), nil
}
