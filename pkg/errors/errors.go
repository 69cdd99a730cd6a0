// Package errors provides structured error types for carepath.
//
// Every failure that crosses a package boundary towards the CLI or the
// document service carries a machine-readable [Code]:
//
//   - PARSE_ERROR: a graph document could not be decoded or validated
//   - VALIDATION_ERROR: a recommendation block or request is incomplete
//   - NETWORK_ERROR: the persistence collaborator could not be reached
//   - NOT_FOUND: a graph or algorithm does not exist remotely
//
// Missing IDs inside the editor are not errors; those operations are no-ops.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeValidation, "block %d: intervention is required", i)
//	if errors.Is(err, errors.ErrCodeValidation) {
//	    // show pendency
//	}
//
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "save graph %s", id)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeValidation    Code = "VALIDATION_ERROR"
	ErrCodeParse         Code = "PARSE_ERROR"

	ErrCodeNotFound Code = "NOT_FOUND"

	ErrCodeNetwork      Code = "NETWORK_ERROR"
	ErrCodeTimeout      Code = "TIMEOUT"
	ErrCodeUnauthorized Code = "UNAUTHORIZED"

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

// ValidationError lists every pendency that blocked an operation.
type ValidationError struct {
	Items []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Items) == 1 {
		return fmt.Sprintf("validation failed: %s", e.Items[0])
	}
	return fmt.Sprintf("validation failed: %d pending fields", len(e.Items))
}

// Code returns the error code for this error type.
func (e *ValidationError) Code() Code {
	return ErrCodeValidation
}
