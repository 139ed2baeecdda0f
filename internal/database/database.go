// Package database defines the persistence boundary for identities and
// attendance records, with PostgreSQL and MySQL backends and an in-memory
// mock for tests.
package database

import (
	"context"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
)

// EmployeeStore provides identity persistence. Lookups return (nil, nil)
// when the row does not exist; Create returns
// attendance.ErrDuplicateIdentity when the employee ID or username is
// already taken, committing nothing.
type EmployeeStore interface {
	Create(ctx context.Context, e *Employee) error
	GetByEmployeeID(ctx context.Context, employeeID string) (*Employee, error)
	GetByUsername(ctx context.Context, username string) (*Employee, error)
	List(ctx context.Context) ([]Employee, error)
	ListWithEncoding(ctx context.Context) ([]Employee, error)
	UpdateFace(ctx context.Context, employeeID, imagePath string, encoding []float32) error
	IdentityExists(ctx context.Context, employeeID string) (bool, error)
}

// AttendanceStore provides ledger persistence. UpsertCheckIn must be atomic
// with first-write-wins semantics on the check-in time; implementations use
// a single upsert statement, never a read-then-write pair.
type AttendanceStore interface {
	UpsertCheckIn(ctx context.Context, employeeID string, date time.Time, checkIn string) (attendance.Record, bool, error)
	RecordsInRange(ctx context.Context, employeeIDs []string, start, end time.Time) ([]attendance.Record, error)
}

// Stores bundles the backends handed to the web server and CLI commands.
type Stores struct {
	Employees  EmployeeStore
	Attendance AttendanceStore
}

// ledgerStore adapts the bundled stores to attendance.LedgerStore.
type ledgerStore struct {
	s Stores
}

func (l ledgerStore) IdentityExists(ctx context.Context, employeeID string) (bool, error) {
	return l.s.Employees.IdentityExists(ctx, employeeID)
}

func (l ledgerStore) UpsertCheckIn(ctx context.Context, employeeID string, date time.Time, checkIn string) (attendance.Record, bool, error) {
	return l.s.Attendance.UpsertCheckIn(ctx, employeeID, date, checkIn)
}

// NewLedgerStore exposes the stores through the ledger's narrow interface.
func NewLedgerStore(s Stores) attendance.LedgerStore {
	return ledgerStore{s: s}
}
