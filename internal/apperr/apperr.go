// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package apperr defines the error kinds that cross the boundary between
// the forum's write pipeline and its HTTP surface. Every failure reaching a
// handler is classified into exactly one Kind, which decides the status code
// and whether the detail may be shown to the client.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindUnauthorized      Kind = "unauthorized"
	KindNotFound          Kind = "not_found"
	KindRefConflict       Kind = "ref_conflict"
	KindRemoteUnavailable Kind = "remote_unavailable"
	KindPayloadTooLarge   Kind = "payload_too_large"
	KindInternal          Kind = "internal"
)

// Error is a classified failure. Op names the operation that failed
// (e.g. "forum.EditPost"), Msg is safe to show to a client, and Err keeps
// the underlying cause for logging.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := string(e.Kind)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error without an underlying cause.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, op, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// Validation is shorthand for a KindValidation error.
func Validation(op, msg string) *Error { return New(KindValidation, op, msg) }

// Unauthorized is shorthand for a KindUnauthorized error.
func Unauthorized(op, msg string) *Error { return New(KindUnauthorized, op, msg) }

// NotFound is shorthand for a KindNotFound error.
func NotFound(op, msg string) *Error { return New(KindNotFound, op, msg) }

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when the chain carries no classification.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the client-safe message for err. Remote and internal
// failures get a generic text so backend details never reach the client.
func Message(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "An unexpected error occurred."
	}
	switch e.Kind {
	case KindRemoteUnavailable:
		return "The content repository is temporarily unavailable. Please try again."
	case KindRefConflict:
		return "The content repository changed while saving. Please try again."
	case KindInternal:
		return "An unexpected error occurred."
	}
	if e.Msg != "" {
		return e.Msg
	}
	return string(e.Kind)
}

// HTTPStatus maps a kind to the status code returned by the handlers.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRefConflict:
		return http.StatusConflict
	case KindRemoteUnavailable:
		return http.StatusServiceUnavailable
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
