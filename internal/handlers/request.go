// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"gitforum/internal/apperr"
	"gitforum/internal/middleware"
	"gitforum/internal/models"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling file parts to disk.
const multipartMemory = 32 << 20

// identityField is the form or JSON field consulted when neither the
// header nor the cookie carries an owner token.
const identityField = "userCookie"

// readFields caps the request body at maxBytes and parses it as a
// multipart form, a urlencoded form, or a flat JSON object.
func readFields(w http.ResponseWriter, r *http.Request, maxBytes int64) (url.Values, error) {
	const op = "handlers.readFields"
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var err error
	switch mediaType {
	case "multipart/form-data":
		err = r.ParseMultipartForm(multipartMemory)
	case "application/json":
		var fields url.Values
		fields, err = decodeJSONFields(r.Body)
		if err == nil {
			return fields, nil
		}
	default:
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperr.New(apperr.KindPayloadTooLarge, op,
				fmt.Sprintf("Request body exceeds %d MB.", maxBytes>>20))
		}
		return nil, apperr.Wrap(apperr.KindValidation, op, "Malformed request body.", err)
	}
	return r.Form, nil
}

// decodeJSONFields reads a JSON object whose values are strings, numbers,
// booleans or arrays of strings.
func decodeJSONFields(body io.Reader) (url.Values, error) {
	var raw map[string]any
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, err
	}
	fields := url.Values{}
	for key, v := range raw {
		switch v := v.(type) {
		case string:
			fields.Add(key, v)
		case float64, bool:
			fields.Add(key, fmt.Sprint(v))
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					fields.Add(key, s)
				}
			}
		}
	}
	return fields, nil
}

// ownerToken returns the caller's identity: the header or cookie loaded by
// middleware.Identity, else the userCookie field. A field token longer
// than middleware.MaxTokenLen is ignored, as the middleware does.
func ownerToken(r *http.Request, fields url.Values) string {
	if token := middleware.IdentityFromCtx(r.Context()); token != "" {
		return token
	}
	token := strings.TrimSpace(fields.Get(identityField))
	if len(token) > middleware.MaxTokenLen {
		return ""
	}
	return token
}

func field(fields url.Values, key string) string {
	return strings.TrimSpace(fields.Get(key))
}

// listField collects a repeatable field whose values may also be comma
// separated lists.
func listField(fields url.Values, key string) []string {
	var out []string
	for _, v := range fields[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// formImages reads every file uploaded under key. Content types are
// sniffed from the bytes, never taken from the client, and anything that
// is not an image is rejected.
func formImages(r *http.Request, key string) ([]models.Image, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[key]
	images := make([]models.Image, 0, len(headers))
	for _, fh := range headers {
		img, err := readImage(fh)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

func readImage(fh *multipart.FileHeader) (models.Image, error) {
	const op = "handlers.readImage"
	f, err := fh.Open()
	if err != nil {
		return models.Image{}, apperr.Wrap(apperr.KindValidation, op, "Failed to read upload.", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return models.Image{}, apperr.Wrap(apperr.KindValidation, op, "Failed to read upload.", err)
	}
	if len(data) == 0 {
		return models.Image{}, apperr.Validation(op, fmt.Sprintf("Image %q is empty.", fh.Filename))
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return models.Image{}, apperr.Validation(op,
			fmt.Sprintf("File %q is not an image (detected %s).", fh.Filename, contentType))
	}
	return models.Image{Filename: fh.Filename, ContentType: contentType, Data: data}, nil
}
