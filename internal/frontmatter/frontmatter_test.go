// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package frontmatter

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var created = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func rawURL(name string) string {
	return "https://github.com/acme/site/blob/main/_posts/2026-03-14-hello/" + name + "?raw=true"
}

func TestEncodeDecodePost(t *testing.T) {
	in := Post{
		Meta: PostMeta{
			Title:      "Hello: World",
			Date:       created,
			Slug:       "2026-03-14-hello-world",
			UserCookie: "tok-123",
			Images:     []string{"hello-world-b.png", "hello-world-a.jpg"},
		},
		Description: "first post\n\nsecond paragraph",
	}

	doc, err := EncodePost(in, rawURL)
	if err != nil {
		t.Fatalf("EncodePost: %v", err)
	}
	s := string(doc)
	if !strings.HasPrefix(s, "---\n") {
		t.Errorf("document should start with a fence, got %q", s[:10])
	}
	for _, want := range []string{"layout: post", "author: Anonymous", "user_cookie: tok-123", "schema: 1", AttachmentMarker} {
		if !strings.Contains(s, want) {
			t.Errorf("document missing %q:\n%s", want, s)
		}
	}
	if strings.Index(s, "hello-world-b.png?raw") > strings.Index(s, "hello-world-a.jpg?raw") {
		t.Error("attachment lines should follow the images order")
	}

	out, err := DecodePost(doc)
	if err != nil {
		t.Fatalf("DecodePost: %v", err)
	}
	if out.Meta.Title != in.Meta.Title {
		t.Errorf("title: got %q, want %q", out.Meta.Title, in.Meta.Title)
	}
	if !out.Meta.Date.Equal(created) {
		t.Errorf("date: got %v, want %v", out.Meta.Date, created)
	}
	if out.Description != in.Description {
		t.Errorf("description: got %q, want %q", out.Description, in.Description)
	}
	if strings.Join(out.Meta.Images, ",") != "hello-world-b.png,hello-world-a.jpg" {
		t.Errorf("images: got %v", out.Meta.Images)
	}
}

func TestEncodePostWithoutImages(t *testing.T) {
	doc, err := EncodePost(Post{Meta: PostMeta{Title: "t", Date: created}, Description: "body"}, nil)
	if err != nil {
		t.Fatalf("EncodePost: %v", err)
	}
	if strings.Contains(string(doc), AttachmentMarker) {
		t.Error("no attachment block expected without images")
	}
	if strings.Contains(string(doc), "images:") {
		t.Error("images key should be omitted when empty")
	}
}

func TestDecodePostMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no fence", "title: x\n"},
		{"no closing fence", "---\ntitle: x\ndate: 2026-03-14T09:26:53Z\n"},
		{"empty header", "---\n---\nbody\n"},
		{"unknown key", "---\ntitle: x\ndate: 2026-03-14T09:26:53Z\nuserCookie: abc\n---\n\nbody\n"},
		{"newer schema", "---\nschema: 9\ntitle: x\ndate: 2026-03-14T09:26:53Z\n---\n\nbody\n"},
		{"missing title", "---\ndate: 2026-03-14T09:26:53Z\n---\n\nbody\n"},
		{"missing date", "---\ntitle: x\n---\n\nbody\n"},
		{"invalid yaml", "---\ntitle: [x\n---\n\nbody\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePost([]byte(tt.doc))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestDecodePostCRLF(t *testing.T) {
	doc := "---\r\ntitle: x\r\ndate: 2026-03-14T09:26:53Z\r\nuser_cookie: abc\r\n---\r\n\r\nbody\r\n"
	p, err := DecodePost([]byte(doc))
	if err != nil {
		t.Fatalf("DecodePost: %v", err)
	}
	if p.Meta.UserCookie != "abc" || p.Description != "body" {
		t.Errorf("got %+v", p)
	}
}

func TestDecodePostLegacyImages(t *testing.T) {
	doc := "---\ntitle: Old\ndate: 2024-01-02T10:00:00Z\nuser_cookie: abc\n---\n\n" +
		"some text\n\n" +
		"![cat.png](https://github.com/acme/site/blob/main/_posts/2024-01-02-old/old-cat.png?raw=true)\n" +
		"![dog.png](https://github.com/acme/site/blob/main/_posts/2024-01-02-old/old-dog.png?raw=true)\n"

	p, err := DecodePost([]byte(doc))
	if err != nil {
		t.Fatalf("DecodePost: %v", err)
	}
	if strings.Join(p.Meta.Images, ",") != "old-cat.png,old-dog.png" {
		t.Errorf("images: got %v", p.Meta.Images)
	}
	if p.Description != "some text" {
		t.Errorf("description: got %q", p.Description)
	}
}

func TestDecodePostKeepsVersionedBody(t *testing.T) {
	tests := []struct {
		name   string
		desc   string
		images []string
	}{
		{"inline image without attachments", "intro\n\n![chart](https://example.com/chart.png)\n\nmore", nil},
		{"marker text without attachments", "how we separate blocks: <!-- attachments --> then the rest", nil},
		{"marker line without attachments", "before\n" + AttachmentMarker + "\nafter", nil},
		{"marker line with attachments", "before\n" + AttachmentMarker + "\nafter", []string{"hello-a.png"}},
		{"inline image with attachments", "see ![x](https://example.com/x.png) here", []string{"hello-a.png", "hello-b.png"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := EncodePost(Post{
				Meta:        PostMeta{Title: "t", Date: created, UserCookie: "abc", Images: tt.images},
				Description: tt.desc,
			}, rawURL)
			if err != nil {
				t.Fatalf("EncodePost: %v", err)
			}
			p, err := DecodePost(doc)
			if err != nil {
				t.Fatalf("DecodePost: %v", err)
			}
			if p.Description != tt.desc {
				t.Errorf("description: got %q, want %q", p.Description, tt.desc)
			}
			if strings.Join(p.Meta.Images, ",") != strings.Join(tt.images, ",") {
				t.Errorf("images: got %v, want %v", p.Meta.Images, tt.images)
			}
		})
	}
}

func TestCommentRoundTrip(t *testing.T) {
	in := Comment{
		ID:         "5f0c",
		Date:       created,
		UserCookie: "tok",
		Message:    "nice post\nwith: colons",
		Image:      "https://example.com/img.png",
		ImagePath:  "_posts/2026-03-14-hello/comment-5f0c-img.png",
	}
	doc, err := EncodeComment(in)
	if err != nil {
		t.Fatalf("EncodeComment: %v", err)
	}
	out, err := DecodeComment(doc)
	if err != nil {
		t.Fatalf("DecodeComment: %v", err)
	}
	in.Schema = SchemaVersion
	if out.ID != in.ID || out.Message != in.Message || out.ImagePath != in.ImagePath || !out.Date.Equal(in.Date) || out.Schema != in.Schema {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestDecodeCommentMalformed(t *testing.T) {
	tests := map[string]string{
		"empty":          "",
		"unknown key":    "id: a\ndate: 2026-03-14T09:26:53Z\nname: bob\n",
		"missing id":     "date: 2026-03-14T09:26:53Z\n",
		"missing date":   "id: a\n",
		"dangling image": "id: a\ndate: 2026-03-14T09:26:53Z\nimage_path: x.png\n",
		"future schema":  "schema: 2\nid: a\ndate: 2026-03-14T09:26:53Z\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeComment([]byte(doc)); !errors.Is(err, ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestInspect(t *testing.T) {
	post := []byte("---\ntitle: x\ndate: 2026-03-14T09:26:53Z\nuser_cookie: owner-a\n---\n\nbody\n")
	h, err := Inspect(post)
	if err != nil {
		t.Fatalf("Inspect(post): %v", err)
	}
	if h.OwnerToken != "owner-a" || !h.Date.Equal(created) {
		t.Errorf("post header: got %+v", h)
	}

	comment := []byte("id: c1\ndate: 2026-03-14T09:26:53Z\nuser_cookie: owner-b\nmessage: hi\n")
	h, err = Inspect(comment)
	if err != nil {
		t.Fatalf("Inspect(comment): %v", err)
	}
	if h.OwnerToken != "owner-b" {
		t.Errorf("comment header: got %+v", h)
	}
}
