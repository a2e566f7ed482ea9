// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-safe identifiers for post titles and
// repository-safe names for uploaded files.
package slug

import (
	"path"
	"regexp"
	"strings"
)

var (
	// nonAlphanumeric matches anything that isn't a lowercase letter, digit,
	// whitespace, or hyphen.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// whitespace matches runs of any whitespace, including tabs and newlines.
	whitespace = regexp.MustCompile(`\s+`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
	// unsafeFilename matches characters not allowed in a stored file name.
	unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]`)
)

// Generate creates a URL-friendly slug from the given string.
// Example: "Hello, World! 2026" → "hello-world-2026"
// The result may be empty when s has no letters or digits.
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = whitespace.ReplaceAllString(result, "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// Filename reduces an uploaded file name to a single path element made of
// letters, digits, dots, underscores, and hyphens. Directory components
// are dropped and whitespace becomes a hyphen. Returns "" when nothing
// usable remains.
func Filename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" {
		return ""
	}
	name = whitespace.ReplaceAllString(name, "-")
	name = unsafeFilename.ReplaceAllString(name, "")
	name = multipleHyphens.ReplaceAllString(name, "-")
	name = strings.TrimLeft(name, ".-")
	return name
}
