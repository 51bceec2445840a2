// Package apierr classifies failures of forum API calls so that callers
// can branch on the failure class instead of string-matching messages.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the failure class of an API call.
type Kind int

const (
	// KindValidation is a client-side rejection raised before any network call.
	KindValidation Kind = iota
	// KindAuthRejected means the server refused the bearer credential.
	KindAuthRejected
	// KindNotFound means the requested entity does not exist.
	KindNotFound
	// KindHTTP is any other non-2xx response.
	KindHTTP
	// KindNetwork means no response was received at all.
	KindNetwork
	// KindTimeout means the request deadline elapsed before a response.
	KindTimeout
	// KindDecode means the response arrived but its body did not match the
	// expected shape.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthRejected:
		return "auth_rejected"
	case KindNotFound:
		return "not_found"
	case KindHTTP:
		return "http"
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindDecode:
		return "decode"
	}
	return "unknown"
}

// Error carries the failure class plus whatever detail the server provided.
type Error struct {
	Kind   Kind
	Status int    // HTTP status, zero when no response was received
	Detail string // server "detail" field or a generic message
	Err    error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error without an underlying cause.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Wrap builds an Error around an underlying cause.
func Wrap(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// FromStatus classifies a non-2xx response. Only 401 counts as an
// authentication rejection; 403 means the credential is valid but the
// operation is forbidden and must not invalidate the session.
func FromStatus(status int, detail string) *Error {
	if detail == "" {
		detail = http.StatusText(status)
	}
	switch status {
	case http.StatusUnauthorized:
		return &Error{Kind: KindAuthRejected, Status: status, Detail: detail}
	case http.StatusNotFound:
		return &Error{Kind: KindNotFound, Status: status, Detail: detail}
	default:
		return &Error{Kind: KindHTTP, Status: status, Detail: detail}
	}
}

// KindOf reports the Kind of err when it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsAuthRejected reports whether err is an authentication rejection.
func IsAuthRejected(err error) bool { return is(err, KindAuthRejected) }

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool { return is(err, KindNotFound) }

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool { return is(err, KindTimeout) }

// IsValidation reports whether err is a client-side validation rejection.
func IsValidation(err error) bool { return is(err, KindValidation) }

// Detail extracts a user-presentable message from err.
func Detail(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Detail
	}
	return err.Error()
}
