// Package errors provides structured error types for pipebuilder.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the editor core, CLI and service
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - UNKNOWN_*, DANGLING_*: Structural violations reported by the graph store
//   - NETWORK_*, TIMEOUT, REMOTE_*: Failures talking to the validation service
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownKind, "unknown node kind: %s", kind)
//	if errors.Is(err, errors.ErrCodeUnknownKind) {
//	    // Tell the user the palette entry is stale
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to reach %s", url)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidParameter Code = "INVALID_PARAMETER"
	ErrCodeInvalidSnapshot  Code = "INVALID_SNAPSHOT"
	ErrCodeInvalidTemplate  Code = "INVALID_TEMPLATE"
	ErrCodeInvalidPath      Code = "INVALID_PATH"
	ErrCodeOutOfBounds      Code = "OUT_OF_BOUNDS"
	ErrCodeEmptyPipeline    Code = "EMPTY_PIPELINE"
	ErrCodeTooLarge         Code = "TOO_LARGE"

	// Graph structure errors
	ErrCodeUnknownKind       Code = "UNKNOWN_KIND"
	ErrCodeDanglingReference Code = "DANGLING_REFERENCE"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Network errors
	ErrCodeNetwork        Code = "NETWORK_ERROR"
	ErrCodeTimeout        Code = "TIMEOUT"
	ErrCodeRemoteRejected Code = "REMOTE_REJECTED"

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

// IsRemote reports whether err came from talking to the validation service.
// Remote failures are transient notices, never reasons to touch local state.
func IsRemote(err error) bool {
	switch GetCode(err) {
	case ErrCodeNetwork, ErrCodeTimeout, ErrCodeRemoteRejected:
		return true
	}
	return false
}

// HTTPStatus maps err onto the status the validation service answers with.
// Errors without a code are internal.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidParameter, ErrCodeInvalidSnapshot,
		ErrCodeInvalidTemplate, ErrCodeOutOfBounds, ErrCodeEmptyPipeline,
		ErrCodeUnknownKind, ErrCodeDanglingReference:
		return http.StatusUnprocessableEntity
	case ErrCodeInvalidPath:
		return http.StatusBadRequest
	case ErrCodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrCodeNotFound, ErrCodeFileNotFound:
		return http.StatusNotFound
	case ErrCodeUnsupported:
		return http.StatusNotImplemented
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeNetwork, ErrCodeRemoteRejected:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// StatusError describes a non-2xx answer from a remote endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}
