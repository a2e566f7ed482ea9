// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package client talks to a forumd server over its JSON API. It is used by
// forumctl and serves as the build status source of the tracker.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gitforum/internal/buildstatus"
	"gitforum/internal/handlers"
	"gitforum/internal/middleware"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 60 * time.Second

// Client is a forum API client bound to one endpoint and identity.
type Client struct {
	endpoint string
	token    string
	client   *http.Client
}

// New creates a client for endpoint (e.g. "https://forum.example.com")
// acting as the owner token. A zero timeout uses DefaultTimeout.
func New(endpoint, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		client:   &http.Client{Timeout: timeout},
	}
}

// APIError is a failure reported by the server.
type APIError struct {
	Status  int
	Kind    string
	Message string
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("forum API %d (%s): %s", e.Status, e.Kind, e.Message)
	}
	return fmt.Sprintf("forum API %d: %s", e.Status, e.Message)
}

// KindOf returns the server-reported kind of err, or "".
func KindOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// File is an attachment to upload.
type File struct {
	Name string
	Data []byte
}

// ReadFile loads an attachment from disk.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read attachment: %w", err)
	}
	return File{Name: filepath.Base(path), Data: data}, nil
}

// PostRequest creates a post, or edits one when Slug is set.
type PostRequest struct {
	Title         string
	Description   string
	Slug          string
	PostDate      string
	DeletedImages []string
	Images        []File
}

// CommentRequest adds a comment, or edits one when CommentID is set.
type CommentRequest struct {
	PostSlug  string
	PostDate  string
	CommentID string
	Message   string
	Image     *File
}

// DeleteRequest deletes a comment when CommentID is set, else a post.
type DeleteRequest struct {
	PostSlug  string
	PostDate  string
	CommentID string
}

// envelope mirrors the server's response body.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Kind    string          `json:"kind"`
}

// SubmitPost sends a post form.
func (c *Client) SubmitPost(ctx context.Context, in PostRequest) (handlers.PostResponse, error) {
	fields := map[string][]string{
		"title":         {in.Title},
		"description":   {in.Description},
		"slug":          {in.Slug},
		"postDate":      {in.PostDate},
		"deletedImages": in.DeletedImages,
	}
	var out handlers.PostResponse
	err := c.postMultipart(ctx, "/submitForm", fields, in.Images, &out)
	return out, err
}

// SubmitComment sends a comment form.
func (c *Client) SubmitComment(ctx context.Context, in CommentRequest) (handlers.CommentResponse, error) {
	fields := map[string][]string{
		"postSlug":  {in.PostSlug},
		"postDate":  {in.PostDate},
		"commentId": {in.CommentID},
		"comment":   {in.Message},
	}
	var files []File
	if in.Image != nil {
		files = append(files, *in.Image)
	}
	var out handlers.CommentResponse
	err := c.postMultipart(ctx, "/submitComment", fields, files, &out)
	return out, err
}

// Delete removes a post (with its comments) or one comment.
func (c *Client) Delete(ctx context.Context, in DeleteRequest) (handlers.DeleteResponse, error) {
	payload, err := json.Marshal(map[string]string{
		"postSlug":  in.PostSlug,
		"postDate":  in.PostDate,
		"commentId": in.CommentID,
	})
	if err != nil {
		return handlers.DeleteResponse{}, fmt.Errorf("forum marshal: %w", err)
	}
	var out handlers.DeleteResponse
	err = c.do(ctx, http.MethodPost, "/deleteContent", "application/json", bytes.NewReader(payload), &out)
	return out, err
}

// CommitStatus returns the build status for a commit.
func (c *Client) CommitStatus(ctx context.Context, sha string) (buildstatus.Status, error) {
	var out buildstatus.Status
	err := c.do(ctx, http.MethodGet, "/checkWorkflow?sha="+url.QueryEscape(sha), "", nil, &out)
	return out, err
}

// RunStatus returns a build run by id.
func (c *Client) RunStatus(ctx context.Context, runID int64) (buildstatus.Status, error) {
	var out buildstatus.Status
	err := c.do(ctx, http.MethodGet, "/checkWorkflow?workflowId="+strconv.FormatInt(runID, 10), "", nil, &out)
	return out, err
}

// Status implements tracker.Source.
func (c *Client) Status(ctx context.Context, commitID string) (buildstatus.Status, error) {
	return c.CommitStatus(ctx, commitID)
}

// Health checks that the server answers.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", "", nil, nil)
}

func (c *Client) postMultipart(ctx context.Context, path string, fields map[string][]string, files []File, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, values := range fields {
		for _, v := range values {
			if v == "" {
				continue
			}
			if err := mw.WriteField(key, v); err != nil {
				return fmt.Errorf("forum form: %w", err)
			}
		}
	}
	for _, f := range files {
		w, err := mw.CreateFormFile("image", f.Name)
		if err != nil {
			return fmt.Errorf("forum form: %w", err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return fmt.Errorf("forum form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("forum form: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, mw.FormDataContentType(), &buf, out)
}

// do sends one request and decodes the envelope's data into out.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("forum request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set(middleware.IdentityHeader, c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("forum http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("forum read body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}
	if !env.Success || resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode, Kind: env.Kind, Message: env.Error}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("forum unmarshal: %w", err)
		}
	}
	return nil
}
