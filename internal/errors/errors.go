// Package xerrors defines stable error codes for xmlref failure modes.
package xerrors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error code.
type Code string

const (
	// ParseError indicates a document is not well-formed XML
	ParseError Code = "PARSE_ERROR"
	// InvalidIdentifier indicates an empty old or new identifier
	InvalidIdentifier Code = "INVALID_IDENTIFIER"
	// SameIdentifier indicates a rename whose old and new ids are equal
	SameIdentifier Code = "SAME_IDENTIFIER"
	// SnapshotFailed indicates the working copy could not be created
	SnapshotFailed Code = "SNAPSHOT_FAILED"
	// SchemaInvalid indicates a malformed classification table
	SchemaInvalid Code = "SCHEMA_INVALID"
	// NotFound indicates an identifier or document is unknown
	NotFound Code = "NOT_FOUND"
	// Ambiguous indicates a query matched several identifiers
	Ambiguous Code = "AMBIGUOUS"
	// InternalError indicates an unexpected failure
	InternalError Code = "INTERNAL_ERROR"
)

// Error carries a code, a message and an optional cause.
type Error struct {
	Code    Code        `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error
}

// New creates an Error.
func New(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Newf creates an Error with a formatted message and no cause.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetails attaches structured details to the error.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) (Code, bool) {
	var xe *Error
	if errors.As(err, &xe) {
		return xe.Code, true
	}
	return "", false
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	got, ok := CodeOf(err)
	return ok && got == code
}
