// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models holds the forum's data types. Posts and comments are not
// rows in a database: each one is a document committed to the content
// repository, and these structs are their decoded form.
package models

import "time"

// Post is a directory-identified forum post. Slug is the dated directory
// name ("2026-10-19-hello-world") and is the post's storage identity;
// TitleSlug is the slug of the title alone, used for the public URL.
type Post struct {
	Slug       string    `json:"slug"`
	TitleSlug  string    `json:"title_slug"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
	OwnerToken string    `json:"-"`
	Images     []string  `json:"images,omitempty"` // file names within the post directory, in display order
}

// HasImage reports whether name is one of the post's attached images.
func (p *Post) HasImage(name string) bool {
	for _, img := range p.Images {
		if img == name {
			return true
		}
	}
	return false
}
