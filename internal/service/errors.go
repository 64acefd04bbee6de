package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure. Handlers map kinds to status codes.
type Kind int

const (
	KindStore        Kind = iota // backend unavailable or query failure
	KindValidation               // malformed or missing input
	KindNotFound                 // email or token absent
	KindConflict                 // duplicate email
	KindUnauthorized             // bad credentials or unusable token
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	}
	return "store"
}

// Error is the only error type returned by this package. Message is safe
// to show to end users; Err keeps the underlying cause for logs.
type Error struct {
	Kind    Kind
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

// Outcomes with a fixed message. Compare with errors.Is.
var (
	ErrEmailExists        = &Error{Kind: KindConflict, Message: "Email already registered"}
	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Message: "Invalid email or password"}
	ErrEmailNotFound      = &Error{Kind: KindNotFound, Message: "Email not found"}
	ErrTokenInvalid       = &Error{Kind: KindUnauthorized, Message: "Invalid token"}
	ErrTokenUsed          = &Error{Kind: KindUnauthorized, Message: "Token already used"}
	ErrTokenExpired       = &Error{Kind: KindUnauthorized, Message: "Token expired"}
)

func validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

func storeError(err error) *Error {
	return &Error{Kind: KindStore, Message: "Database error", Err: err}
}

// KindOf returns the kind of err, treating foreign errors as store errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindStore
}

// MessageOf returns the user-facing message of err.
func MessageOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	return "Server error"
}
