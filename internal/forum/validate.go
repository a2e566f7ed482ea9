// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package forum

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"gitforum/internal/apperr"
	"gitforum/internal/models"
)

// Validation limits for submitted fields.
const (
	maxTitleLen   = 300
	maxBodyLen    = 100_000
	maxMessageLen = 10_000
)

// Limits bounds attachments.
type Limits struct {
	MaxPostImageBytes    int64
	MaxCommentImageBytes int64
	MaxPostImages        int
}

// DefaultLimits matches the serverless function limits the forum was
// designed around.
var DefaultLimits = Limits{
	MaxPostImageBytes:    10 << 20,
	MaxCommentImageBytes: 5 << 20,
	MaxPostImages:        10,
}

func requireOwner(op, token string) error {
	if token == "" {
		return apperr.Validation(op, "An identity token is required.")
	}
	return nil
}

// validatePost checks post form inputs and returns the first error found.
func validatePost(op, title, body string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return apperr.Validation(op, "Title is required.")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return apperr.Validation(op, "Title is too long (max 300 characters).")
	}
	if strings.TrimSpace(body) == "" {
		return apperr.Validation(op, "Description is required.")
	}
	if utf8.RuneCountInString(body) > maxBodyLen {
		return apperr.Validation(op, "Description is too long (max 100,000 characters).")
	}
	return nil
}

// validateMessage checks a comment body.
func validateMessage(op, message string) error {
	if strings.TrimSpace(message) == "" {
		return apperr.Validation(op, "Comment is required.")
	}
	if utf8.RuneCountInString(message) > maxMessageLen {
		return apperr.Validation(op, "Comment is too long (max 10,000 characters).")
	}
	return nil
}

// validateImage checks one attachment against a size ceiling.
func validateImage(op string, img *models.Image, maxBytes int64) error {
	if len(img.Data) == 0 {
		return apperr.Validation(op, fmt.Sprintf("Image %q is empty.", img.Filename))
	}
	if img.ContentType != "" && !img.IsImage() {
		return apperr.Validation(op, fmt.Sprintf("%q is not an image.", img.Filename))
	}
	if maxBytes > 0 && img.Size() > maxBytes {
		return apperr.New(apperr.KindPayloadTooLarge, op,
			fmt.Sprintf("Image %q is %s; the limit is %d MB.", img.Filename, img.HumanSize(), maxBytes>>20))
	}
	return nil
}
