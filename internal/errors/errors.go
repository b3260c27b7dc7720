// Package errors defines the kind-tagged error type shared by the build pipeline.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error by the scope it aborts.
type Kind string

const (
	// KindConfig aborts the whole build before any document is processed.
	KindConfig Kind = "config"
	// KindMalformedDirective aborts the containing document.
	KindMalformedDirective Kind = "malformed_directive"
	// KindInvalidViewport aborts the containing document.
	KindInvalidViewport Kind = "invalid_viewport"
	// KindUnsupportedSource aborts processing of a single image.
	KindUnsupportedSource Kind = "unsupported_source"
	// KindAdapter is recovered per work item.
	KindAdapter Kind = "adapter"
	KindIO      Kind = "io"
	KindUnknown Kind = "unknown"
)

// Error is an operation error tagged with a Kind.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Wrap tags err with kind. An err that already carries a Kind is returned as is.
func Wrap(kind Kind, op, message string, err error) *Error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Cause:   err,
	}
}

func New(kind Kind, op, message string) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
	}
}

// Newf is New with a formatted message.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return New(kind, op, fmt.Sprintf(format, args...))
}

// IsKind checks whether the first tagged error in the chain matches kind.
func IsKind(err error, kind Kind) bool {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first tagged error in the chain.
func KindOf(err error) Kind {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind
	}
	return KindUnknown
}
