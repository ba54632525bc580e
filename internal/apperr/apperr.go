// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package apperr defines the application error taxonomy shared by services
// and handlers. Callers classify failures with errors.Is against the kind
// sentinels; the message of an Error is safe to show to API clients, internal
// datastore error text stays in the wrapped cause.
package apperr

import (
	"errors"
	"fmt"
)

// Kind sentinels. Compare with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrAuth         = errors.New("authentication failed")
	ErrNotFound     = errors.New("not found")
	ErrBusinessRule = errors.New("operation not valid for current state")
	ErrStorage      = errors.New("storage failure")
	ErrFileSystem   = errors.New("file system failure")
)

// Error carries a stable, client-visible message together with its kind and
// an optional internal cause.
type Error struct {
	kind    error
	message string
	cause   error
}

func (e *Error) Error() string {
	return e.message
}

// Is matches the error kind sentinel.
func (e *Error) Is(target error) bool {
	return target == e.kind
}

// Unwrap exposes the internal cause for logging; nil for precondition errors.
func (e *Error) Unwrap() error {
	return e.cause
}

// New creates an error of the given kind with a client-visible message.
func New(kind error, message string) *Error {
	return &Error{kind: kind, message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind error, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind keeping cause for diagnostics.
// The message is what clients see; cause never leaks through Error().
func Wrap(kind error, message string, cause error) *Error {
	return &Error{kind: kind, message: message, cause: cause}
}

// Validation is shorthand for New(ErrValidation, message).
func Validation(message string) *Error {
	return New(ErrValidation, message)
}

// Conflict is shorthand for New(ErrConflict, message).
func Conflict(message string) *Error {
	return New(ErrConflict, message)
}

// NotFound is shorthand for New(ErrNotFound, message).
func NotFound(message string) *Error {
	return New(ErrNotFound, message)
}

// BusinessRule is shorthand for New(ErrBusinessRule, message).
func BusinessRule(message string) *Error {
	return New(ErrBusinessRule, message)
}

// Storage wraps a datastore failure behind a stable message.
func Storage(cause error) *Error {
	return Wrap(ErrStorage, "storage operation failed", cause)
}

// FileSystem wraps a blob read/write failure behind a stable message.
func FileSystem(cause error) *Error {
	return Wrap(ErrFileSystem, "file operation failed", cause)
}
