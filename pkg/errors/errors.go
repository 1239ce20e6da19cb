// Package errors provides structured error types for callflow.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the pipeline
//   - Machine-readable error codes for programmatic handling
//   - Recoverable diagnostics that travel with a result instead of failing it
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *_NOT_FOUND: Resource not found
//   - DANGLING_PARENT, EMPTY_AGGREGATION, RUNTIME_MISMATCH: recoverable
//     pipeline diagnostics
//   - GRAPH_HAS_CYCLE, INTERNAL_*: internal-consistency failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "level %d has no groups", lvl)
//	if errors.GetCode(err) == errors.ErrCodeInvalidInput {
//	    // Handle validation error
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
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Recoverable pipeline diagnostics
	ErrCodeDanglingParent   Code = "DANGLING_PARENT"
	ErrCodeEmptyAggregation Code = "EMPTY_AGGREGATION"
	ErrCodeRuntimeMismatch  Code = "RUNTIME_MISMATCH"

	// Internal errors
	ErrCodeGraphHasCycle Code = "GRAPH_HAS_CYCLE"
	ErrCodeInternal      Code = "INTERNAL_ERROR"
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

// GetCode extracts the error code from an error, if available. It unwraps
// the chain and returns the code of the outermost *Error, or "" if there is
// none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Diagnostic is a recoverable problem found while building a graph. It is
// reported alongside a result rather than failing the run.
type Diagnostic struct {
	Code    Code   `json:"code"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Error implements the error interface so a diagnostic can be surfaced as one.
func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %s", d.Code, d.Stage, d.Message)
}

// Diagnostics is an ordered list of diagnostics.
type Diagnostics []Diagnostic

// Count returns how many diagnostics carry code.
func (ds Diagnostics) Count(code Code) int {
	n := 0
	for _, d := range ds {
		if d.Code == code {
			n++
		}
	}
	return n
}

// Has reports whether any diagnostic carries code.
func (ds Diagnostics) Has(code Code) bool { return ds.Count(code) > 0 }
