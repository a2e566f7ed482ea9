// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package address computes where forum entities live in the content
// repository and recovers their identity from committed documents.
//
// Layout:
//
//	<posts-root>/<YYYY-MM-DD>-<title-slug>/index.md
//	<posts-root>/<YYYY-MM-DD>-<title-slug>/<title-slug>-<filename>
//	<posts-root>/<YYYY-MM-DD>-<title-slug>/comment-<id>-<filename>
//	<comments-root>/<YYYY-MM-DD>-<title-slug>/<id>.yml
package address

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gitforum/internal/frontmatter"
	"gitforum/internal/slug"
)

const (
	// DateLayout is the date prefix of every post slug.
	DateLayout = "2006-01-02"

	// DefaultTitleSlug stands in for titles that slugify to nothing.
	DefaultTitleSlug = "post"

	postDocument       = "index.md"
	commentExt         = ".yml"
	commentImagePrefix = "comment-"

	// maxDisambiguation bounds the suffix search in Disambiguate.
	maxDisambiguation = 1000
)

var (
	datedSlugRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-(.+)$`)
	commentIDRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)
)

// Resolver maps forum entities to repository paths and public URLs.
type Resolver struct {
	PostsRoot    string
	CommentsRoot string
	SiteURL      string
}

// New returns a Resolver with the given roots, falling back to the Jekyll
// defaults for empty values.
func New(postsRoot, commentsRoot, siteURL string) *Resolver {
	if postsRoot == "" {
		postsRoot = "_posts"
	}
	if commentsRoot == "" {
		commentsRoot = "_data/comments"
	}
	return &Resolver{
		PostsRoot:    strings.Trim(postsRoot, "/"),
		CommentsRoot: strings.Trim(commentsRoot, "/"),
		SiteURL:      strings.TrimRight(siteURL, "/"),
	}
}

// TitleSlug slugifies a title, never returning an empty string.
func TitleSlug(title string) string {
	if s := slug.Generate(title); s != "" {
		return s
	}
	return DefaultTitleSlug
}

// PostSlug returns the dated storage slug for a post created at t.
func (r *Resolver) PostSlug(title string, t time.Time) string {
	return t.UTC().Format(DateLayout) + "-" + TitleSlug(title)
}

// SplitSlug separates a dated slug into its date and title parts.
func SplitSlug(postSlug string) (date time.Time, titleSlug string, ok bool) {
	m := datedSlugRe.FindStringSubmatch(postSlug)
	if m == nil {
		return time.Time{}, "", false
	}
	d, err := time.Parse(DateLayout, m[1])
	if err != nil {
		return time.Time{}, "", false
	}
	return d, m[2], true
}

// ValidSlug reports whether s is usable as a single path segment.
func ValidSlug(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	if strings.ContainsAny(s, `/\`) {
		return false
	}
	return slug.Generate(s) == s
}

// ResolvePostSlug returns the stored slug for a client-supplied one. A slug
// without a date prefix is prefixed with postDate (YYYY-MM-DD or RFC 3339).
func (r *Resolver) ResolvePostSlug(postSlug, postDate string) (string, error) {
	postSlug = strings.Trim(strings.TrimSpace(postSlug), "/")
	if i := strings.LastIndex(postSlug, "/"); i >= 0 {
		postSlug = postSlug[i+1:]
	}
	postSlug = strings.TrimSuffix(postSlug, ".html")
	if !ValidSlug(postSlug) {
		return "", fmt.Errorf("invalid post slug %q", postSlug)
	}
	if _, _, ok := SplitSlug(postSlug); ok {
		return postSlug, nil
	}
	if postDate == "" {
		return "", fmt.Errorf("post slug %q has no date and no post date was given", postSlug)
	}
	d, ok := ParseDate(postDate)
	if !ok {
		return "", fmt.Errorf("invalid post date %q", postDate)
	}
	return d.Format(DateLayout) + "-" + postSlug, nil
}

// ParseDate accepts a plain date or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// PostDir is the directory holding a post's document and images.
func (r *Resolver) PostDir(postSlug string) string {
	return path.Join(r.PostsRoot, postSlug)
}

// PostPath is the path of a post's document.
func (r *Resolver) PostPath(postSlug string) string {
	return path.Join(r.PostDir(postSlug), postDocument)
}

// CommentsDir is the directory holding a post's comment documents.
func (r *Resolver) CommentsDir(postSlug string) string {
	return path.Join(r.CommentsRoot, postSlug)
}

// CommentPath is the path of a single comment document.
func (r *Resolver) CommentPath(postSlug, commentID string) string {
	return path.Join(r.CommentsDir(postSlug), commentID+commentExt)
}

// ValidCommentID reports whether id is a well-formed comment id.
func ValidCommentID(id string) bool {
	return commentIDRe.MatchString(id)
}

// PostImageName is the stored filename of a post attachment.
func PostImageName(titleSlug, filename string) string {
	return titleSlug + "-" + CleanFilename(filename)
}

// PostImagePath is the path of a post attachment.
func (r *Resolver) PostImagePath(postSlug, titleSlug, filename string) string {
	return path.Join(r.PostDir(postSlug), PostImageName(titleSlug, filename))
}

// CommentImagePath is the path of a comment attachment. Comment images are
// colocated in the post directory.
func (r *Resolver) CommentImagePath(postSlug, commentID, filename string) string {
	return path.Join(r.PostDir(postSlug), commentImagePrefix+commentID+"-"+CleanFilename(filename))
}

// IsCommentImage reports whether a file in a post directory belongs to a
// comment rather than to the post.
func IsCommentImage(name string) bool {
	return strings.HasPrefix(path.Base(name), commentImagePrefix)
}

// CleanFilename makes an uploaded filename safe to use as a path segment.
func CleanFilename(name string) string {
	if s := slug.Filename(name); s != "" {
		return s
	}
	return "image"
}

// PostURL is the public page URL the static site generator produces for a
// post: <site>/<YYYY>/<MM>/<DD>/<title-slug>.html.
func (r *Resolver) PostURL(postSlug string) string {
	d, title, ok := SplitSlug(postSlug)
	if !ok {
		return r.SiteURL + "/" + postSlug + ".html"
	}
	return fmt.Sprintf("%s/%s/%s.html", r.SiteURL, d.Format("2006/01/02"), title)
}

// Disambiguate returns base if it is free, else the first of base-2,
// base-3, ... for which exists reports false.
func Disambiguate(base string, exists func(string) bool) (string, error) {
	if !exists(base) {
		return base, nil
	}
	for i := 2; i < maxDisambiguation; i++ {
		candidate := base + "-" + strconv.Itoa(i)
		if !exists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free slug for %q", base)
}

// ParseOwnerToken returns the owner token recorded in a post or comment
// document. A malformed document or an empty token yields false.
func ParseOwnerToken(content []byte) (string, bool) {
	h, err := frontmatter.Inspect(content)
	if err != nil || h.OwnerToken == "" {
		return "", false
	}
	return h.OwnerToken, true
}

// ParseTimestamp returns the creation time recorded in a post or comment
// document.
func ParseTimestamp(content []byte) (time.Time, bool) {
	h, err := frontmatter.Inspect(content)
	if err != nil || h.Date.IsZero() {
		return time.Time{}, false
	}
	return h.Date, true
}
