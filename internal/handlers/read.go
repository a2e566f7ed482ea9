// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"

	"gitforum/internal/apperr"
	"gitforum/internal/middleware"
	"gitforum/internal/models"
	"gitforum/internal/ownership"
)

// PostView is the data of a /getPost response. Editable tells the caller
// whether its identity owns the post.
type PostView struct {
	models.Post
	Editable bool `json:"editable"`
}

// CommentView is the data of a /getComment response.
type CommentView struct {
	models.Comment
	Editable bool `json:"editable"`
}

// GetPost serves ?slug=<post slug>[&postDate=YYYY-MM-DD] as stored at the
// branch tip.
func (f *Forum) GetPost(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.GetPost"
	q := r.URL.Query()
	postSlug, err := f.svc.ResolveSlug(op, strings.TrimSpace(q.Get("slug")), strings.TrimSpace(q.Get("postDate")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	post, err := f.svc.GetPost(r.Context(), postSlug)
	if err != nil {
		writeError(w, r, err)
		return
	}
	caller := middleware.IdentityFromCtx(r.Context())
	writeOK(w, "", PostView{Post: post, Editable: ownership.Check(post.OwnerToken, caller)})
}

// GetComment serves ?postSlug=<slug>&commentId=<id>[&postDate=YYYY-MM-DD].
func (f *Forum) GetComment(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.GetComment"
	q := r.URL.Query()
	id := strings.TrimSpace(q.Get("commentId"))
	if id == "" {
		writeError(w, r, apperr.Validation(op, "Missing required parameter: commentId."))
		return
	}
	postSlug, err := f.svc.ResolveSlug(op, strings.TrimSpace(q.Get("postSlug")), strings.TrimSpace(q.Get("postDate")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := f.svc.GetComment(r.Context(), postSlug, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	caller := middleware.IdentityFromCtx(r.Context())
	writeOK(w, "", CommentView{Comment: c, Editable: ownership.Check(c.OwnerToken, caller)})
}
