// Package source defines the contract every external maintenance-data source
// implements, plus the normalized failure taxonomy. Concrete clients live in
// subpackages; nothing above this layer sees a transport-level error.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleetworks/pkg/domain"
)

// Name identifies a source in results, errors, and logs.
type Name string

const (
	NameTestHistory  Name = "test_history"
	NameRegistration Name = "registration"
)

// ErrorCategory is the normalized failure taxonomy. Callers branch on the
// category, never on transport details.
type ErrorCategory string

const (
	// ErrorAuthentication indicates the token exchange or credentials failed.
	ErrorAuthentication ErrorCategory = "authentication"

	// ErrorTimeout indicates the source took too long to respond.
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorOutage indicates the source is unavailable (network, 5xx).
	ErrorOutage ErrorCategory = "outage"

	// ErrorRateLimited indicates too many requests. Kept distinct from
	// ErrorOutage because callers back off differently.
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorBadData indicates the source answered with an undecodable body.
	ErrorBadData ErrorCategory = "bad_data"
)

// Error wraps a source failure with its normalized category.
type Error struct {
	Source     Name
	Category   ErrorCategory
	Message    string
	RetryAfter time.Duration
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("source %s [%s]: %s: %v", e.Source, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("source %s [%s]: %s", e.Source, e.Category, e.Message)
}

func (e *Error) Unwrap() error { return e.Underlying }

// NewError creates a normalized source error.
func NewError(source Name, category ErrorCategory, message string, underlying error) *Error {
	return &Error{Source: source, Category: category, Message: message, Underlying: underlying}
}

// CategoryOf extracts the category from an error chain, or "" for errors
// that did not originate in a source.
func CategoryOf(err error) ErrorCategory {
	var se *Error
	if errors.As(err, &se) {
		return se.Category
	}
	return ""
}

// IsHardFailure reports whether an error means the source could not answer
// at all, as opposed to answering "no data". The recognition policy only
// counts hard failures.
func IsHardFailure(err error) bool {
	return CategoryOf(err) != ""
}

// TestResult is the outcome of one completed periodic test.
type TestResult string

const (
	ResultPassed TestResult = "PASSED"
	ResultFailed TestResult = "FAILED"
)

// Defect is one recorded fault from a completed test.
type Defect struct {
	Text      string
	Type      string
	Dangerous bool
}

// TestRecord is one completed periodic test as reported by the test-history
// source. ExpiryDate is only set for passed tests.
type TestRecord struct {
	CompletedDate time.Time
	Result        TestResult
	ExpiryDate    *time.Time
	OdometerValue int64
	OdometerUnit  string
	TestNumber    string
	Defects       []Defect
}

func (r TestRecord) Passed() bool { return r.Result == ResultPassed }

// VehicleHistory is the test-history source's full answer for one asset.
// FirstTestDue is only set for assets too new to have been tested.
type VehicleHistory struct {
	Registration  domain.VRM
	Make          string
	Model         string
	FuelType      string
	FirstUsedDate *time.Time
	Tests         []TestRecord
	FirstTestDue  *time.Time
}

// RegistrationRecord is the registration source's answer: coarse identity
// facts used only as a last-resort fallback.
type RegistrationRecord struct {
	Registration domain.VRM
	Make         string
	// FirstRegistered has month precision only; its day is meaningless.
	FirstRegistered *time.Time
	TaxDueDate      *time.Time
	TaxStatus       string
}

// TestHistoryClient fetches completed-test history by registration. A nil
// result with a nil error means the source answered but knows nothing about
// the asset.
type TestHistoryClient interface {
	Lookup(ctx context.Context, vrm domain.VRM) (*VehicleHistory, error)
}

// RegistrationClient fetches registration facts by registration number.
type RegistrationClient interface {
	Lookup(ctx context.Context, vrm domain.VRM) (*RegistrationRecord, error)
}
