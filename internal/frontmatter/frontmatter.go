// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package frontmatter encodes and decodes the two document shapes the forum
// commits to the content repository: Jekyll post documents (a YAML header
// between "---" fences followed by a Markdown body) and plain YAML comment
// documents. Decoding is strict: unknown keys, missing required fields or a
// schema newer than SchemaVersion make the document malformed.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// SchemaVersion is the newest document schema this package writes and reads.
const SchemaVersion = 1

// ErrMalformed is returned (wrapped) for any document that does not decode
// under the strict schema.
var ErrMalformed = errors.New("frontmatter: malformed document")

const fence = "---"

// Header is the subset of fields shared by posts and comments. It is what
// ownership and timestamp lookups need, regardless of document kind.
type Header struct {
	OwnerToken string
	Date       time.Time
}

// Inspect decodes data as either a post or a comment document and returns
// the shared header fields.
func Inspect(data []byte) (Header, error) {
	if IsPost(data) {
		p, err := DecodePost(data)
		if err != nil {
			return Header{}, err
		}
		return Header{OwnerToken: p.Meta.UserCookie, Date: p.Meta.Date}, nil
	}
	c, err := DecodeComment(data)
	if err != nil {
		return Header{}, err
	}
	return Header{OwnerToken: c.UserCookie, Date: c.Date}, nil
}

// IsPost reports whether data starts with a front-matter fence.
func IsPost(data []byte) bool {
	data = normalize(data)
	return bytes.HasPrefix(data, []byte(fence+"\n"))
}

// decodeStrict unmarshals src into out, rejecting unknown keys.
func decodeStrict(src []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty document", ErrMalformed)
		}
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func checkSchema(v int) error {
	if v > SchemaVersion {
		return fmt.Errorf("%w: schema %d is newer than supported %d", ErrMalformed, v, SchemaVersion)
	}
	if v < 0 {
		return fmt.Errorf("%w: invalid schema %d", ErrMalformed, v)
	}
	return nil
}

func normalize(data []byte) []byte {
	return bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
}
