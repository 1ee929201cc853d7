// Package domerrors defines the coded error taxonomy services surface to
// transports. Handlers map codes onto HTTP statuses without inspecting
// messages; infra failures stay wrapped as the cause and never leak to
// callers.
package domerrors

import "errors"

// Code classifies an error for transport mapping.
type Code string

const (
	// CodeNotFound: the referenced entity does not exist.
	CodeNotFound Code = "not_found"
	// CodeValidation: required input is missing or malformed.
	CodeValidation Code = "validation"
	// CodeBadRequest: the request itself could not be read.
	CodeBadRequest Code = "bad_request"
	// CodeConflict: the operation contradicts current state.
	CodeConflict Code = "conflict"
	// CodeInternal: unexpected failure; details stay server-side.
	CodeInternal Code = "internal"
)

// Error is a coded domain error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a coded error with err retained as the cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the code from err. Errors outside the taxonomy classify as
// internal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
