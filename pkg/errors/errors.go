// Package errors provides structured error types for the depscope engine.
//
// Error codes give the CLI and serve layers a machine-readable handle on
// failure categories without string matching:
//   - ROOT_NOT_FOUND: the analysis root does not exist (fatal)
//   - UNSUPPORTED_FAMILY: no extractor strategy registered for the family (fatal)
//   - NODE_NOT_FOUND: per-node query against an unknown artifact ID
//   - INVALID_*: input validation failures
//   - INTERNAL_ERROR: unexpected internal failures
//
// Non-fatal conditions (unreadable files, malformed references) are not
// errors at all; they travel as warnings beside successful results.
//
// Usage:
//
//	err := errors.New(errors.ErrCodeNodeNotFound, "no artifact %q", id)
//	if errors.Is(err, errors.ErrCodeNodeNotFound) {
//	    // 404 territory
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different failure categories.
const (
	ErrCodeRootNotFound      Code = "ROOT_NOT_FOUND"
	ErrCodeUnsupportedFamily Code = "UNSUPPORTED_FAMILY"
	ErrCodeNodeNotFound      Code = "NODE_NOT_FOUND"

	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err carries the given error code anywhere in its chain.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
