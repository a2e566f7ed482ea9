// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"strings"
)

// Image is an uploaded attachment as received from a form submission.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// IsImage returns true if the upload declares an image content type.
func (i *Image) IsImage() bool {
	return strings.HasPrefix(i.ContentType, "image/")
}

// Size returns the attachment size in bytes.
func (i *Image) Size() int64 {
	return int64(len(i.Data))
}

// HumanSize returns a human-readable file size string.
func (i *Image) HumanSize() string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	n := i.Size()
	switch {
	case n >= mb:
		return fmt.Sprintf("%.1f MB", float64(n)/float64(mb))
	case n >= kb:
		return fmt.Sprintf("%.0f KB", float64(n)/float64(kb))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
