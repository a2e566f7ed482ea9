// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package frontmatter

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"gitforum/internal/markdown"
)

// AttachmentMarker separates the author's description from the generated
// image reference lines in a post body.
const AttachmentMarker = "<!-- attachments -->"

// PostMeta is the YAML header of a post document.
type PostMeta struct {
	Schema     int       `yaml:"schema"`
	Layout     string    `yaml:"layout"`
	Title      string    `yaml:"title"`
	Date       time.Time `yaml:"date"`
	Author     string    `yaml:"author"`
	Slug       string    `yaml:"slug"`
	UserCookie string    `yaml:"user_cookie"`
	Images     []string  `yaml:"images,omitempty"`
}

// Post is a decoded post document.
type Post struct {
	Meta        PostMeta
	Description string
}

// EncodePost renders p as a Jekyll document. imageURL maps a stored image
// filename to the URL written into the attachment block.
func EncodePost(p Post, imageURL func(filename string) string) ([]byte, error) {
	meta := p.Meta
	meta.Schema = SchemaVersion
	if meta.Layout == "" {
		meta.Layout = "post"
	}
	if meta.Author == "" {
		meta.Author = "Anonymous"
	}

	head, err := yaml.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode post header: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(fence + "\n")
	buf.Write(head)
	buf.WriteString(fence + "\n\n")
	buf.WriteString(strings.TrimRight(p.Description, "\n"))
	buf.WriteString("\n")

	if len(meta.Images) > 0 {
		buf.WriteString("\n" + AttachmentMarker + "\n")
		for _, name := range meta.Images {
			buf.WriteString(markdown.ImageLine(name, imageURL(name)))
			buf.WriteString("\n")
		}
	}
	return buf.Bytes(), nil
}

// DecodePost parses a post document. Documents without a schema predate
// the images header and recover their image list from the references in
// the body; versioned documents keep their body verbatim.
func DecodePost(data []byte) (Post, error) {
	head, body, err := split(normalize(data))
	if err != nil {
		return Post{}, err
	}

	var meta PostMeta
	if err := decodeStrict(head, &meta); err != nil {
		return Post{}, err
	}
	if err := checkSchema(meta.Schema); err != nil {
		return Post{}, err
	}
	if strings.TrimSpace(meta.Title) == "" {
		return Post{}, fmt.Errorf("%w: post title is missing", ErrMalformed)
	}
	if meta.Date.IsZero() {
		return Post{}, fmt.Errorf("%w: post date is missing", ErrMalformed)
	}

	body = strings.TrimLeft(body, "\n")
	if meta.Schema == 0 {
		if i := strings.Index(body, AttachmentMarker); i >= 0 {
			return Post{Meta: meta, Description: strings.TrimRight(body[:i], "\n")}, nil
		}
		desc := strings.TrimRight(body, "\n")
		if len(meta.Images) == 0 {
			meta.Images, desc = legacyImages(desc)
		}
		return Post{Meta: meta, Description: desc}, nil
	}

	// The generated attachment block is always last, and only written
	// when the header lists images.
	if len(meta.Images) > 0 {
		if i := strings.LastIndex("\n"+body, "\n"+AttachmentMarker+"\n"); i >= 0 {
			body = body[:i]
		}
	}
	return Post{Meta: meta, Description: strings.TrimRight(body, "\n")}, nil
}

// split separates the YAML header from the body.
func split(data []byte) (head []byte, body string, err error) {
	if !bytes.HasPrefix(data, []byte(fence+"\n")) {
		return nil, "", fmt.Errorf("%w: missing opening fence", ErrMalformed)
	}
	rest := data[len(fence)+1:]

	closing := []byte("\n" + fence + "\n")
	if bytes.HasPrefix(rest, []byte(fence+"\n")) {
		return nil, string(rest[len(fence)+1:]), fmt.Errorf("%w: empty header", ErrMalformed)
	}
	i := bytes.Index(rest, closing)
	if i < 0 {
		if bytes.HasSuffix(rest, []byte("\n"+fence)) {
			return rest[:len(rest)-len(fence)-1], "", nil
		}
		return nil, "", fmt.Errorf("%w: missing closing fence", ErrMalformed)
	}
	return rest[:i+1], string(rest[i+len(closing):]), nil
}

// legacyImages extracts image references from a body that has no attachment
// block and returns the stored filenames plus the body with reference-only
// lines removed.
func legacyImages(body string) ([]string, string) {
	refs := markdown.ImageRefs(body)
	if len(refs) == 0 {
		return nil, body
	}

	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		if name := filenameFromURL(ref.Destination); name != "" {
			names = append(names, name)
		}
	}

	var kept []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "![") && strings.HasSuffix(trimmed, ")") && len(markdown.ImageRefs(trimmed)) == 1 {
			continue
		}
		kept = append(kept, line)
	}
	return names, strings.TrimRight(strings.Join(kept, "\n"), "\n")
}

func filenameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	p := u.Path
	if p == "" {
		return ""
	}
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	return base
}
