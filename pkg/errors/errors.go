// Package errors provides structured error types for flowlens.
//
// Every user-facing failure carries a machine-readable [Code] so that the CLI,
// the HTTP API, and the workspace can decide how to surface it:
//
//   - INVALID_*: the input was rejected (structural validation, bad format)
//   - *_NOT_FOUND: a flow, state, or sample does not exist
//   - STORAGE_FAILED: the persistence collaborator failed
//   - INTERNAL_ERROR / UNSUPPORTED: everything else
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidFlow, "flow has no states")
//	if errors.Is(err, errors.ErrCodeInvalidFlow) {
//	    // reject the import, keep the current flow
//	}
//
//	err := errors.Wrap(errors.ErrCodeStorage, cause, "save flow %s", name)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFlow   Code = "INVALID_FLOW"
	ErrCodeInvalidState  Code = "INVALID_STATE"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound       Code = "NOT_FOUND"
	ErrCodeFlowNotFound   Code = "FLOW_NOT_FOUND"
	ErrCodeStateNotFound  Code = "STATE_NOT_FOUND"
	ErrCodeSampleNotFound Code = "SAMPLE_NOT_FOUND"

	// Persistence errors
	ErrCodeStorage Code = "STORAGE_FAILED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
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

// IsNotFound reports whether err carries any of the not-found codes.
func IsNotFound(err error) bool {
	switch GetCode(err) {
	case ErrCodeNotFound, ErrCodeFlowNotFound, ErrCodeStateNotFound, ErrCodeSampleNotFound:
		return true
	}
	return false
}

// IsInvalid reports whether err carries any of the input validation codes.
func IsInvalid(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidFlow, ErrCodeInvalidState, ErrCodeInvalidFormat, ErrCodeInvalidPath:
		return true
	}
	return false
}
