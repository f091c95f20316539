package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrorKind classifies a failure so the HTTP layer can pick a status code.
type ErrorKind string

const (
	KindValidation    ErrorKind = "ValidationError"
	KindNotFound      ErrorKind = "NotFound"
	KindAlreadyExists ErrorKind = "AlreadyExists"
	KindUnauthorized  ErrorKind = "Unauthorized"
	KindForbidden     ErrorKind = "Forbidden"
	KindUpstream      ErrorKind = "UpstreamFailure"
)

// ErrMediaHost marks upstream failures caused by the media host rather than
// the catalog store.
var ErrMediaHost = errors.New("media host failure")

// Error is the error type returned by every service operation.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func ValidationError(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundError(what string) error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func AlreadyExistsError(format string, args ...interface{}) error {
	return &Error{Kind: KindAlreadyExists, Message: fmt.Sprintf(format, args...)}
}

func UnauthorizedError(message string) error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func ForbiddenError(message string) error {
	return &Error{Kind: KindForbidden, Message: message}
}

func UpstreamError(message string, err error) error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

func MediaError(message string, err error) error {
	return &Error{Kind: KindUpstream, Message: message, Err: fmt.Errorf("%w: %v", ErrMediaHost, err)}
}

// KindOf returns the kind of err, or "" when err is not a service error.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// IsKind reports whether err is a service error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// dbError translates a store error. Missing rows become NotFound for what,
// service errors raised inside a transaction pass through untouched and
// everything else is a persistence failure.
func dbError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFoundError(what)
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return UpstreamError("failed to access "+what, err)
}
