package attendance

import (
	"context"
	"fmt"
	"time"
)

// LedgerStore is the persistence boundary the ledger writes through.
// UpsertCheckIn must be a single atomic read-modify-write: create the row
// with the given check-in time if it does not exist, otherwise keep the
// existing check-in time if one is already set. A check-then-act pair would
// race under concurrent check-ins for the same (employee, date) key.
type LedgerStore interface {
	IdentityExists(ctx context.Context, employeeID string) (bool, error)
	UpsertCheckIn(ctx context.Context, employeeID string, date time.Time, checkIn string) (Record, bool, error)
}

// Ledger records daily check-ins, one row per (employee, date).
type Ledger struct {
	store LedgerStore
}

// NewLedger creates a ledger backed by the given store.
func NewLedger(store LedgerStore) *Ledger {
	return &Ledger{store: store}
}

// RecordCheckIn records a check-in for an employee on the given date.
// The first check-in of the day wins: repeated calls for the same
// (employee, date) never move an existing check-in time. Returns the stored
// record and whether a new row was created. Fails with ErrIdentityNotFound
// when the employee does not exist; no row is created in that case.
func (l *Ledger) RecordCheckIn(ctx context.Context, employeeID string, at time.Time) (Record, bool, error) {
	exists, err := l.store.IdentityExists(ctx, employeeID)
	if err != nil {
		return Record{}, false, fmt.Errorf("checking identity %q: %w", employeeID, err)
	}
	if !exists {
		return Record{}, false, fmt.Errorf("employee %q: %w", employeeID, ErrIdentityNotFound)
	}

	date := DateOf(at)
	checkIn := at.Format(TimeLayout)

	record, created, err := l.store.UpsertCheckIn(ctx, employeeID, date, checkIn)
	if err != nil {
		return Record{}, false, fmt.Errorf("recording check-in for %q on %s: %w",
			employeeID, date.Format(DateLayout), err)
	}
	return record, created, nil
}
