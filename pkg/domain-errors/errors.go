// Package domainerrors defines the coded error type shared by all domain
// services. Codes classify failures so transport layers can translate them
// into responses without inspecting error strings, and so callers can
// distinguish outcomes (locked vs. wrong vs. expired) that must stay
// indistinguishable in their payload details.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies the class of a domain error.
type Code string

const (
	// CodeValidation: input failed a domain validation rule (missing
	// attestation, out-of-range score, oversized batch). Nothing persisted.
	CodeValidation Code = "validation"
	// CodeInvalidInput: input is structurally malformed (bad UUID, bad enum).
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest: the request as a whole cannot be processed.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound: the referenced entity does not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict: the entity exists but is in a state that forbids the
	// operation (locked result, double certification, wrong lifecycle stage).
	CodeConflict Code = "conflict"
	// CodeUnauthorized: credentials did not match any session.
	CodeUnauthorized Code = "unauthorized"
	// CodeLocked: the credential is inside a lockout window.
	CodeLocked Code = "locked"
	// CodeExpired: the referenced session or certificate is past its deadline.
	CodeExpired Code = "expired"
	// CodeInvariantViolation: a domain invariant would be broken.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeTimeout: an upstream call exceeded its deadline.
	CodeTimeout Code = "timeout"
	// CodeInternal: unexpected infrastructure failure; safe to retry.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. The message is safe to log; whether it is
// safe to return to a caller depends on the code (see ToHTTPStatus users).
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with a static message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates an underlying error with a code and message. A nil err
// returns nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// uncoded errors so unclassified failures never leak as client faults.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Is allows errors.Is matching on code equality.
func (e *Error) Is(target error) bool {
	var de *Error
	if errors.As(target, &de) {
		return e.Code == de.Code
	}
	return false
}

// ToHTTPStatus maps a code to the HTTP status the transport layer should use.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeInvalidInput, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvariantViolation:
		return http.StatusConflict
	case CodeUnauthorized, CodeExpired:
		return http.StatusUnauthorized
	case CodeLocked:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
