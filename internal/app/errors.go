package app

import (
	"context"
	"errors"
)

type ErrorKind int

const (
	KindInvalidInput ErrorKind = iota + 1
	KindNotFound
	KindDuplicateUsername
	KindInvalidCredentials
	KindStorage
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindDuplicateUsername:
		return "duplicate_username"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindStorage:
		return "storage_error"
	default:
		return "unknown"
	}
}

// Error is the tagged result services return for expected failures.
// Message is safe to show to callers; Err keeps the underlying cause for logs.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func AsError(err error) (*Error, bool) {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}

func IsKind(err error, kind ErrorKind) bool {
	svcErr, ok := AsError(err)
	return ok && svcErr.Kind == kind
}

// unexpected reports failures that are not storage outcomes, such as a request
// being cancelled; those bypass the tagged result.
func unexpected(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
