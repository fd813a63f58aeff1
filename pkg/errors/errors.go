// Package errors provides structured error types for cutline.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the engine, CLI and HTTP API
//   - Machine-readable codes for arrangement rejections
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Rejection codes mirror the reasons an arrangement operation can be
// refused (collision, locked track, out of bounds, duration too small,
// invalid crop). They are not failures of the program: the engine returns
// the prior placement and the caller decides whether to show feedback.
// INVALID_* and NOT_FOUND codes cover malformed input; INTERNAL_ERROR marks
// broken invariants, which are bugs.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeLockedTrack, "track %d is locked", 3)
//	if errors.Is(err, errors.ErrCodeLockedTrack) {
//	    // flash the lock icon
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidScene, origErr, "load %s", path)
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
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidScene Code = "INVALID_SCENE"
	ErrCodeInvalidName  Code = "INVALID_NAME"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"

	// Arrangement rejections
	ErrCodeCollision        Code = "COLLISION"
	ErrCodeLockedTrack      Code = "LOCKED_TRACK"
	ErrCodeOutOfBounds      Code = "OUT_OF_BOUNDS"
	ErrCodeDurationTooSmall Code = "DURATION_TOO_SMALL"
	ErrCodeInvalidCrop      Code = "INVALID_CROP"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// IsRejection reports whether code is one of the arrangement rejection
// codes.
func (c Code) IsRejection() bool {
	switch c {
	case ErrCodeCollision, ErrCodeLockedTrack, ErrCodeOutOfBounds, ErrCodeDurationTooSmall, ErrCodeInvalidCrop:
		return true
	}
	return false
}

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
