// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown inspects and emits the small amount of Markdown the
// forum writes into post bodies: inline image references for attachments.
// Parsing goes through goldmark so references inside code spans or fenced
// blocks are not mistaken for real images.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// md is the configured goldmark instance, reused across calls.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// ImageRef is one image reference found in a Markdown document.
type ImageRef struct {
	Alt         string
	Destination string
}

// ImageRefs returns the image references in source, in document order.
func ImageRefs(source string) []ImageRef {
	src := []byte(source)
	doc := md.Parser().Parse(text.NewReader(src))

	var refs []ImageRef
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		img, ok := n.(*ast.Image)
		if !ok {
			return ast.WalkContinue, nil
		}
		refs = append(refs, ImageRef{
			Alt:         altText(img, src),
			Destination: string(img.Destination),
		})
		return ast.WalkSkipChildren, nil
	})
	return refs
}

// altText concatenates the text segments under an image node.
func altText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			continue
		}
		buf.WriteString(altText(c, src))
	}
	return buf.String()
}

// ImageLine renders a single inline image reference. Brackets in alt and
// spaces in the destination are escaped so the line parses back to the
// same reference.
func ImageLine(alt, destination string) string {
	alt = strings.NewReplacer(`[`, `\[`, `]`, `\]`).Replace(alt)
	destination = strings.ReplaceAll(destination, " ", "%20")
	return fmt.Sprintf("![%s](%s)", alt, destination)
}
