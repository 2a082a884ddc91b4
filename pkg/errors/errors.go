// Package errors provides structured error types for gridplan.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library, CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The codes mirror the failure taxonomy of the blueprint engine:
//   - PLACEMENT_BLOCKED: overlap rules rejected a placement (recoverable)
//   - ROTATION_REJECTED: the entity cannot turn, or would overlap (recoverable)
//   - UNKNOWN_ENTITY: an operation referenced a stale entity id (caller bug)
//   - UNKNOWN_KIND: the catalog has no entry for a kind
//   - NO_SOLUTION: a layout generator found no valid device set (recoverable)
//   - INVALID_*: input validation failures
//   - INTERNAL_ERROR: unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodePlacementBlocked, "%s blocked at %v", kind, pos)
//	if errors.Is(err, errors.ErrCodePlacementBlocked) {
//	    // Leave the cell empty
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidFormat, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Editing errors
	ErrCodePlacementBlocked Code = "PLACEMENT_BLOCKED"
	ErrCodeRotationRejected Code = "ROTATION_REJECTED"
	ErrCodeUnknownEntity    Code = "UNKNOWN_ENTITY"
	ErrCodeUnknownKind      Code = "UNKNOWN_KIND"

	// Generator errors
	ErrCodeNoSolution Code = "NO_SOLUTION"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource errors
	ErrCodeNotFound Code = "NOT_FOUND"

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

// Recoverable reports whether err describes a condition the caller is
// expected to handle by simply not applying the edit: blocked placements,
// rejected rotations and generators without a solution.
func Recoverable(err error) bool {
	switch GetCode(err) {
	case ErrCodePlacementBlocked, ErrCodeRotationRejected, ErrCodeNoSolution:
		return true
	}
	return false
}
