// Package attendance implements the core attendance domain: matching a probe
// face encoding to a registered identity, recording daily check-ins, and
// reconciling sparse attendance rows into a dense Present/Absent calendar.
package attendance

import (
	"errors"
	"time"
)

const (
	// StatusPresent is the only status ever stored. Absence is inferred
	// during reconciliation, never written to the ledger.
	StatusPresent = "Present"
	StatusAbsent  = "Absent"

	// EncodingDim is the length of a stored face encoding vector.
	EncodingDim = 128

	// DefaultTolerance is the maximum Euclidean distance between two
	// encodings for them to be considered the same person. Lower is stricter.
	DefaultTolerance = 0.5

	// DateLayout and TimeLayout are the wire formats for calendar dates
	// and check-in times.
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

var (
	// ErrIdentityNotFound indicates a check-in resolved to an employee ID
	// that no longer exists in the identity store.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrInvalidRange indicates a reconciliation request where the start
	// date falls after the end date.
	ErrInvalidRange = errors.New("start date is after end date")

	// ErrDuplicateIdentity indicates an attempt to register an employee ID
	// or username that already exists.
	ErrDuplicateIdentity = errors.New("identity already exists")
)

// Identity is a registered employee with an optional stored face encoding.
// An identity without an encoding can never be matched.
type Identity struct {
	EmployeeID string
	FirstName  string
	LastName   string
	Department string
	Encoding   []float32 // nil until face registration completes
}

// DisplayName returns the human-readable name for an identity.
func (i Identity) DisplayName() string {
	switch {
	case i.FirstName != "" && i.LastName != "":
		return i.FirstName + " " + i.LastName
	case i.FirstName != "":
		return i.FirstName
	case i.LastName != "":
		return i.LastName
	}
	return i.EmployeeID
}

// Record is one stored attendance row: at most one per (employee, date).
// CheckIn is the first check-in time of the day in TimeLayout format,
// empty if never set.
type Record struct {
	EmployeeID string
	Date       time.Time
	CheckIn    string
	Status     string
}

// Entry is a derived per-day calendar entry produced by reconciliation.
// It is never persisted.
type Entry struct {
	EmployeeID string
	Date       time.Time
	CheckIn    string
	Status     string
}

// DateOf truncates a timestamp to its calendar date at midnight UTC.
// All ledger and reconciler dates are normalized through this.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
