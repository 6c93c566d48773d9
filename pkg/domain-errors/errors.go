// Package domainerrors defines the coded error taxonomy shared by every
// component. I/O-facing failures are translated into these codes at component
// boundaries so no raw transport error crosses into calling code.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Code identifies a class of failure. Codes are stable and appear verbatim in
// API error envelopes and logs.
type Code string

const (
	// Transport-level codes.
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeInternal     Code = "internal_error"
	CodeTimeout      Code = "timeout"
	CodeInvalidInput Code = "invalid_input"

	// Engine taxonomy.

	// CodeAuthenticationFailure: token exchange with an external source failed.
	// Retryable after backoff; touches no maintenance fact.
	CodeAuthenticationFailure Code = "authentication_failure"

	// CodeSourceUnavailable: network error, 5xx, or timeout from an external
	// source. Retryable; sync status degrades but prior facts are preserved.
	CodeSourceUnavailable Code = "source_unavailable"

	// CodeAssetNotRecognized: the ambiguity policy confirmed neither source
	// knows this asset. Not retryable until registration data changes.
	CodeAssetNotRecognized Code = "asset_not_recognized"

	// CodeRateLimited: the source asked us to back off. Kept distinct from
	// source_unavailable so callers can apply the source-indicated delay.
	CodeRateLimited Code = "rate_limited"

	// CodeValidation: a completion field value was malformed or a required
	// field was missing. Always names the offending field(s).
	CodeValidation Code = "validation_failure"

	// CodeLedgerWrite: a history entry could not be written. Fatal to the
	// enclosing operation; the paired fact mutation must not survive it.
	CodeLedgerWrite Code = "ledger_write_failure"
)

// Error is the coded error type carried across component boundaries.
type Error struct {
	Code    Code
	Message string
	// Fields names the offending fields for validation failures.
	Fields []string
	cause  error
}

func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s (fields: %s)", e.Code, e.Message, strings.Join(e.Fields, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// NewValidation constructs a validation failure naming the offending fields.
// Field names are sorted so error output is deterministic.
func NewValidation(message string, fields ...string) *Error {
	sorted := append([]string(nil), fields...)
	sort.Strings(sorted)
	return &Error{Code: CodeValidation, Message: message, Fields: sorted}
}

// CodeOf extracts the code from an error, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// FieldsOf returns the offending field names for validation failures.
func FieldsOf(err error) []string {
	var de *Error
	if errors.As(err, &de) {
		return de.Fields
	}
	return nil
}

// IsRetryable reports whether the failure class is worth retrying without
// caller correction.
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case CodeAuthenticationFailure, CodeSourceUnavailable, CodeRateLimited, CodeTimeout:
		return true
	default:
		return false
	}
}

// HTTPStatus maps a code to the response status used by the HTTP layer.
func HTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput, CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound, CodeAssetNotRecognized:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeSourceUnavailable, CodeAuthenticationFailure:
		return http.StatusBadGateway
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
