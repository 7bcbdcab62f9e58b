package apierr

import (
	"errors"
	"fmt"
)

// Kind classifies failures from the external API clients so callers can
// decide between retrying, surfacing and treating absence as data.
type Kind string

const (
	KindConfig    Kind = "CONFIG_ERROR"
	KindAuth      Kind = "AUTH_ERROR"
	KindRateLimit Kind = "RATE_LIMIT"
	KindUpstream  Kind = "UPSTREAM_ERROR"
	KindTransport Kind = "TRANSPORT_ERROR"
	KindNotFound  Kind = "NOT_FOUND"
)

// Error carries a Kind, the final HTTP status when one was seen, and an
// optional wrapped cause.
type Error struct {
	Kind   Kind
	Status int
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: %s (status %d)", e.Kind, e.Msg, e.Status)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a classified error.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WithStatus builds a classified error carrying the final HTTP status.
func WithStatus(kind Kind, status int, format string, args ...any) *Error {
	return &Error{Kind: kind, Status: status, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds a classified error around a cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the Kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
