// Package reconcile merges up to two independent external sources into one
// authoritative maintenance fact per asset, then persists the outcome through
// the history ledger.
package reconcile

import (
	"time"

	"fleetworks/internal/reconcile/source"
	"fleetworks/pkg/domain"
)

// Resolution is the outcome of the due-date precedence policy for one asset.
type Resolution struct {
	// DueDate is nil when no source could supply one. Never fabricated.
	DueDate *time.Time
	// FirstDue marks a date taken from a "first test due" answer for an
	// asset too new to have been tested.
	FirstDue bool
	// Winner is the source the date came from, or "" when none.
	Winner source.Name
}

// ResolveDueDate applies the due-date precedence, first match wins:
//
//  1. Most recent passed test's recorded expiry date.
//  2. The source's "first test due" date, flagged first-due.
//  3. Registration month, widened to the last day of that month. The
//     registration source has month precision only; rounding down would
//     invent grace period the asset may not have.
//  4. Nothing. No date is fabricated.
func ResolveDueDate(history *source.VehicleHistory, reg *source.RegistrationRecord) Resolution {
	if history != nil {
		if expiry := latestPassedExpiry(history.Tests); expiry != nil {
			return Resolution{DueDate: expiry, Winner: source.NameTestHistory}
		}
		if history.FirstTestDue != nil {
			d := *history.FirstTestDue
			return Resolution{DueDate: &d, FirstDue: true, Winner: source.NameTestHistory}
		}
	}
	if reg != nil && reg.FirstRegistered != nil {
		d := lastDayOfMonth(*reg.FirstRegistered)
		return Resolution{DueDate: &d, Winner: source.NameRegistration}
	}
	return Resolution{}
}

// latestPassedExpiry returns the expiry of the most recent passed test.
// Tests arrive newest first from the client, so the first passed record with
// an expiry wins.
func latestPassedExpiry(tests []source.TestRecord) *time.Time {
	for _, t := range tests {
		if t.Passed() && t.ExpiryDate != nil {
			d := *t.ExpiryDate
			return &d
		}
	}
	return nil
}

func lastDayOfMonth(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
}

// Recognition is the outcome of the asset-recognition ambiguity policy.
type Recognition int

const (
	// Recognized: at least one source returned identity data for the asset.
	Recognized Recognition = iota
	// NotRecognized: confirmed absent. Distinct from "no tests yet" and
	// never conflated with a transient failure.
	NotRecognized
	// Indeterminate: at least one source failed, so absence cannot be
	// confirmed. Treated as a source failure, not as absence.
	Indeterminate
)

// ResolveRecognition decides whether an asset is confirmed unknown to the
// outside world. An asset is NotRecognized only when it is a designated test
// fixture, or when neither source supplied any identity data and both
// answered definitively (an explicit miss, not an outage or timeout).
func ResolveRecognition(vrm domain.VRM, fixtures map[domain.VRM]struct{},
	history *source.VehicleHistory, historyErr error,
	reg *source.RegistrationRecord, regErr error,
) Recognition {
	if _, ok := fixtures[vrm]; ok {
		return NotRecognized
	}
	if history != nil || reg != nil {
		return Recognized
	}
	if source.IsHardFailure(historyErr) || source.IsHardFailure(regErr) {
		return Indeterminate
	}
	// Both sources answered and neither knows the asset.
	return NotRecognized
}
