// Package errors provides structured error types for ent.
//
// Every failure the engine can report carries a machine-readable [Code]. The
// same codes are used for three audiences:
//   - parse diagnostics attached to a recipe manifest (MISSING_NAME, ...)
//   - per-recipe check errors that end up in a report (TIMEOUT, NOT_FOUND, ...)
//   - skip reasons for recipes that are intentionally not checked
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidLocator, "bad locator %q", loc)
//	if errors.Is(err, errors.ErrCodeInvalidLocator) {
//	    // surface immediately, do not retry
//	}
//
//	err = errors.Wrap(errors.ErrCodeUnreachable, origErr, "fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Parse diagnostics.
const (
	ErrCodeMissingName     Code = "MISSING_NAME"
	ErrCodeMalformedSource Code = "MALFORMED_SOURCE"
	ErrCodeEncoding        Code = "ENCODING_ERROR"
	ErrCodeInvalidSyntax   Code = "INVALID_SYNTAX"
	ErrCodeUnreadable      Code = "UNREADABLE"
	ErrCodeDuplicateName   Code = "DUPLICATE_NAME"
)

// Check errors.
const (
	ErrCodeTimeout            Code = "TIMEOUT"
	ErrCodeNotFound           Code = "NOT_FOUND"
	ErrCodeUnreachable        Code = "UNREACHABLE"
	ErrCodeRateLimited        Code = "RATE_LIMITED"
	ErrCodeUnparseableVersion Code = "UNPARSEABLE_VERSION"
	ErrCodeInvalidLocator     Code = "INVALID_LOCATOR"
	ErrCodeNoCandidates       Code = "NO_CANDIDATES"
	ErrCodeUnsupported        Code = "UNSUPPORTED"
)

// Skip reasons.
const (
	ErrCodeNoCurrentVersion Code = "NO_CURRENT_VERSION"
	ErrCodeNoUpstream       Code = "NO_UPSTREAM"
)

// Run level.
const (
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
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

// Is reports whether err has the given error code.
// The outermost *Error in the chain decides.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error chain holds no *Error or *RateLimitedError.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl.Code()
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message (and cause) without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Message + ": " + e.Cause.Error()
		}
		return e.Message
	}
	return err.Error()
}

// RateLimitedError provides additional information for rate-limited responses.
type RateLimitedError struct {
	RetryAfter int // Seconds to wait before retrying
	Host       string
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	msg := "rate limited"
	if e.Host != "" {
		msg += " by " + e.Host
	}
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: retry after %d seconds", msg, e.RetryAfter)
	}
	return msg
}

// Code returns the error code for this error type.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}
