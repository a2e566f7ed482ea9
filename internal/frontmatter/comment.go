// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package frontmatter

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Comment is a comment document as committed under the comments root.
type Comment struct {
	Schema     int       `yaml:"schema"`
	ID         string    `yaml:"id"`
	Date       time.Time `yaml:"date"`
	UserCookie string    `yaml:"user_cookie"`
	Message    string    `yaml:"message"`
	Image      string    `yaml:"image,omitempty"`
	ImagePath  string    `yaml:"image_path,omitempty"`
}

// EncodeComment renders c as YAML at the current schema version.
func EncodeComment(c Comment) ([]byte, error) {
	c.Schema = SchemaVersion
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode comment: %w", err)
	}
	return out, nil
}

// DecodeComment parses a comment document.
func DecodeComment(data []byte) (Comment, error) {
	var c Comment
	if err := decodeStrict(normalize(data), &c); err != nil {
		return Comment{}, err
	}
	if err := checkSchema(c.Schema); err != nil {
		return Comment{}, err
	}
	if strings.TrimSpace(c.ID) == "" {
		return Comment{}, fmt.Errorf("%w: comment id is missing", ErrMalformed)
	}
	if c.Date.IsZero() {
		return Comment{}, fmt.Errorf("%w: comment date is missing", ErrMalformed)
	}
	if c.ImagePath != "" && c.Image == "" {
		return Comment{}, fmt.Errorf("%w: image_path without image", ErrMalformed)
	}
	return c, nil
}
