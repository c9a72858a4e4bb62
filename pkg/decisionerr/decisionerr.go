// Package decisionerr implements the error taxonomy of the decision pipeline:
// every public operation returns either a success record or a structured error
// carrying a machine-readable Kind, never a bare exception-style failure.
package decisionerr

import "fmt"

// Kind is the top-level error taxonomy.
type Kind string

const (
	KindIntegrity    Kind = "INTEGRITY"
	KindContract     Kind = "CONTRACT"
	KindCalibration  Kind = "CALIBRATION"
	KindAvailability Kind = "AVAILABILITY"
	KindPersistence  Kind = "PERSISTENCE"
	KindGrading      Kind = "GRADING"
)

// Code is a machine-readable reason code attached to decisions and audit records.
type Code string

const (
	CodeMarketContractMismatch Code = "MARKET_CONTRACT_MISMATCH"
	CodeSymmetryViolation      Code = "SYMMETRY_VIOLATION"
	CodeContextMismatch        Code = "CONTEXT_HASH_MISMATCH"
	CodeRosterUnavailable      Code = "ROSTER_UNAVAILABLE"
	CodeStaleOdds              Code = "STALE_ODDS"
	CodeMissingMarketLine      Code = "MISSING_MARKET_LINE"
	CodeContractFieldMissing   Code = "CONTRACT_FIELD_MISSING"
	CodeSelectionInconsistent  Code = "SELECTION_INCONSISTENT"
	CodeBackpressureDropped    Code = "BACKPRESSURE_DROPPED"
)

// Error is the structured error type returned by every public operation.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s/%s: %s: %v", e.Kind, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s/%s: %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a structured error of a given kind/code.
func New(kind Kind, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap builds a structured error wrapping an underlying cause.
func Wrap(kind Kind, code Code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// IsKind reports whether err (or something it wraps) carries the given Kind.
func IsKind(err error, kind Kind) bool {
	var de *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			de = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return de != nil && de.Kind == kind
}
