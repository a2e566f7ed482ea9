// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"time"

	"gitforum/internal/apperr"
	"gitforum/internal/forum"
	"gitforum/internal/models"
)

// Forum groups the write endpoints. Each one runs a single forum operation,
// which produces at most one commit.
type Forum struct {
	svc      *forum.Service
	maxBytes int64
	now      func() time.Time
}

// NewForum creates the write handlers. maxBytes caps every request body.
func NewForum(svc *forum.Service, maxBytes int64) *Forum {
	return &Forum{svc: svc, maxBytes: maxBytes, now: time.Now}
}

// PostResponse is the data of a /submitForm response.
type PostResponse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Slug        string `json:"slug"`
	PostURL     string `json:"postUrl"`
	GitHubURL   string `json:"githubUrl"`
	CommitSHA   string `json:"commitSha"`
	SubmittedAt string `json:"submittedAt"`
	Operation   string `json:"operation"`
}

// CommentResponse is the data of a /submitComment response.
type CommentResponse struct {
	CommentID   string `json:"commentId"`
	PostSlug    string `json:"postSlug"`
	GitHubURL   string `json:"githubUrl"`
	CommitSHA   string `json:"commitSha"`
	SubmittedAt string `json:"submittedAt"`
	Operation   string `json:"operation"`
}

// DeleteResponse is the data of every delete response.
type DeleteResponse struct {
	PostSlug     string   `json:"postSlug"`
	CommentID    string   `json:"commentId,omitempty"`
	GitHubURL    string   `json:"githubUrl"`
	CommitSHA    string   `json:"commitSha"`
	DeletedFiles []string `json:"deletedFiles"`
}

// identityRequired writes the 401 for a request without an owner token.
func identityRequired(w http.ResponseWriter, what string) {
	writeFail(w, http.StatusUnauthorized, apperr.KindUnauthorized,
		"An identity token is required to "+what+". Please ensure you have a valid session.")
}

// SubmitForm creates a post, or edits one when a slug is supplied.
func (f *Forum) SubmitForm(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(w, r, f.maxBytes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	token := ownerToken(r, fields)
	if token == "" {
		identityRequired(w, "create or edit a post")
		return
	}
	images, err := formImages(r, "image")
	if err != nil {
		writeError(w, r, err)
		return
	}

	title := field(fields, "title")
	description := fields.Get("description")
	postSlug := field(fields, "slug")

	var (
		res       models.Result
		operation = "create"
		message   = "Blog post submitted successfully!"
	)
	if postSlug == "" {
		res, err = f.svc.CreatePost(r.Context(), forum.CreatePostInput{
			Title:      title,
			Body:       description,
			Images:     images,
			OwnerToken: token,
		})
	} else {
		operation, message = "update", "Blog post updated successfully!"
		postSlug, err = f.svc.ResolveSlug("handlers.SubmitForm", postSlug, field(fields, "postDate"))
		if err == nil {
			res, err = f.svc.EditPost(r.Context(), forum.EditPostInput{
				Slug:          postSlug,
				Title:         title,
				Body:          description,
				NewImages:     images,
				DeletedImages: listField(fields, "deletedImages"),
				OwnerToken:    token,
			})
		}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOK(w, message, PostResponse{
		Title:       title,
		Description: description,
		Slug:        res.PostSlug,
		PostURL:     res.PostURL,
		GitHubURL:   res.CommitURL,
		CommitSHA:   res.CommitID,
		SubmittedAt: f.now().UTC().Format(time.RFC3339),
		Operation:   operation,
	})
}

// SubmitComment adds a comment, or edits one when a commentId is supplied.
func (f *Forum) SubmitComment(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.SubmitComment"
	fields, err := readFields(w, r, f.maxBytes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	token := ownerToken(r, fields)
	if token == "" {
		identityRequired(w, "comment")
		return
	}
	images, err := formImages(r, "image")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(images) > 1 {
		writeError(w, r, apperr.Validation(op, "Only one image can be attached to a comment."))
		return
	}
	var image *models.Image
	if len(images) == 1 {
		image = &images[0]
	}

	var (
		res       models.Result
		operation = "create"
		message   = "Comment submitted successfully!"
	)
	commentID := field(fields, "commentId")
	if commentID == "" {
		res, err = f.svc.CreateComment(r.Context(), forum.CreateCommentInput{
			PostSlug:   field(fields, "postSlug"),
			PostDate:   field(fields, "postDate"),
			Message:    fields.Get("comment"),
			Image:      image,
			OwnerToken: token,
		})
	} else {
		operation, message = "update", "Comment updated successfully!"
		res, err = f.svc.EditComment(r.Context(), forum.EditCommentInput{
			PostSlug:   field(fields, "postSlug"),
			PostDate:   field(fields, "postDate"),
			CommentID:  commentID,
			Message:    fields.Get("comment"),
			Image:      image,
			OwnerToken: token,
		})
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOK(w, message, CommentResponse{
		CommentID:   res.CommentID,
		PostSlug:    res.PostSlug,
		GitHubURL:   res.CommitURL,
		CommitSHA:   res.CommitID,
		SubmittedAt: f.now().UTC().Format(time.RFC3339),
		Operation:   operation,
	})
}

// deleteTarget selects what a delete request removes.
type deleteTarget int

const (
	deleteAny deleteTarget = iota
	deletePostOnly
	deleteCommentOnly
)

// DeleteContent deletes a comment when commentId is supplied, else the
// post with all of its comments.
func (f *Forum) DeleteContent(w http.ResponseWriter, r *http.Request) {
	f.delete(w, r, deleteAny)
}

// DeletePost deletes a post with all of its comments.
func (f *Forum) DeletePost(w http.ResponseWriter, r *http.Request) {
	f.delete(w, r, deletePostOnly)
}

// DeleteComment deletes one comment and its image.
func (f *Forum) DeleteComment(w http.ResponseWriter, r *http.Request) {
	f.delete(w, r, deleteCommentOnly)
}

func (f *Forum) delete(w http.ResponseWriter, r *http.Request, target deleteTarget) {
	const op = "handlers.Delete"
	fields, err := readFields(w, r, f.maxBytes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	token := ownerToken(r, fields)
	if token == "" {
		identityRequired(w, "delete content")
		return
	}

	commentID := field(fields, "commentId")
	if target == deletePostOnly {
		commentID = ""
	}
	if target == deleteCommentOnly && commentID == "" {
		writeError(w, r, apperr.Validation(op, "commentId is required."))
		return
	}

	postSlug, err := f.svc.ResolveSlug(op, field(fields, "postSlug"), field(fields, "postDate"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var (
		res     models.Result
		message string
	)
	if commentID != "" {
		res, err = f.svc.DeleteComment(r.Context(), postSlug, commentID, token)
		message = "Comment deleted successfully!"
	} else {
		res, err = f.svc.DeletePost(r.Context(), postSlug, token)
		message = "Post and all its comments deleted successfully!"
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	deleted := res.DeletedPaths
	if deleted == nil {
		deleted = []string{}
	}
	writeOK(w, message, DeleteResponse{
		PostSlug:     res.PostSlug,
		CommentID:    res.CommentID,
		GitHubURL:    res.CommitURL,
		CommitSHA:    res.CommitID,
		DeletedFiles: deleted,
	})
}
