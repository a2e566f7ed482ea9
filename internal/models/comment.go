// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Comment is a single comment document stored under its post's comment
// directory. ImagePath is the repository path of the attached image, if
// any; ImageURL is the link embedded in the document for the site build.
type Comment struct {
	ID         string    `json:"id"`
	PostSlug   string    `json:"post_slug"`
	CreatedAt  time.Time `json:"created_at"`
	OwnerToken string    `json:"-"`
	Message    string    `json:"message"`
	ImageURL   string    `json:"image,omitempty"`
	ImagePath  string    `json:"image_path,omitempty"`
}

// HasImage reports whether the comment references an attached image.
func (c *Comment) HasImage() bool {
	return c.ImagePath != ""
}
