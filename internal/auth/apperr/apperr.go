// Package apperr is the identity service's error taxonomy. Every failure a
// caller is meant to see is an *Error with a Kind, a stable Code and a
// message; anything else is treated as a system fault at the boundary.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

// Kind classifies an Error.
type Kind int

const (
	KindSystem Kind = iota
	KindNotFound
	KindUnauthorized
	KindBadRequest
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindBadRequest:
		return "bad_request"
	case KindForbidden:
		return "forbidden"
	default:
		return "system"
	}
}

// HTTPStatus maps the kind to its response status.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindBadRequest:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Stable codes clients can switch on.
const (
	CodeNotFound        = "Not Found"
	CodeUnauthorized    = "UnAuthorized"
	CodeInvalidRequest  = "Invalid Request"
	CodeAccessDenied    = "Access Denied"
	CodeSystemError     = "SYSTEM_ERROR"
	CodePasswordExpired = "PasswordExpired"
	CodeAuthFailed      = "AUTHFAILED"
)

// SystemErrorMessage is the only thing a client learns about a system fault.
const SystemErrorMessage = "Unexpected error occured please try again or confirm current operation status"

// ValidationMessage heads every request validation failure.
const ValidationMessage = "One or more validation failures have occurred."

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Code    string
	Message string

	// Fields holds per-field validation failures, keyed by field name.
	Fields map[string][]string

	// Err is the underlying cause, if any. Never shown to clients.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind and code, so sentinel-style
// comparisons work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Code: CodeUnauthorized, Message: msg}
}

func BadRequest(msg string) *Error {
	return &Error{Kind: KindBadRequest, Code: CodeInvalidRequest, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Code: CodeAccessDenied, Message: msg}
}

// System wraps an unexpected fault.
func System(err error) *Error {
	return &Error{Kind: KindSystem, Code: CodeSystemError, Message: SystemErrorMessage, Err: err}
}

// Validation builds the BadRequest reported for malformed request bodies.
func Validation(fields map[string][]string) *Error {
	return &Error{
		Kind:    KindBadRequest,
		Code:    CodeInvalidRequest,
		Message: ValidationMessage,
		Fields:  fields,
	}
}

// WithCode returns a copy of e carrying code.
func (e *Error) WithCode(code string) *Error {
	c := *e
	c.Code = code
	return &c
}

// As extracts an *Error from err's chain. Anything unclassified comes back
// as a system error wrapping err.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return System(err)
}

// Flatten joins the messages along err's Unwrap chain with ": ", dropping
// the part of each message that merely repeats its cause.
func Flatten(err error) string {
	var parts []string
	for err != nil {
		msg := err.Error()
		next := errors.Unwrap(err)
		if next != nil {
			msg = strings.TrimSuffix(msg, next.Error())
			msg = strings.TrimSuffix(strings.TrimSpace(msg), ":")
		}
		if msg = strings.TrimSpace(msg); msg != "" {
			parts = append(parts, msg)
		}
		err = next
	}
	return strings.Join(parts, ": ")
}
