package attendance

import (
	"context"
	"fmt"
	"time"
)

// RecordSource reads stored attendance rows for a set of employees within an
// inclusive date range.
type RecordSource interface {
	RecordsInRange(ctx context.Context, employeeIDs []string, start, end time.Time) ([]Record, error)
}

// Reconciler overlays sparse ledger rows onto a requested date range to
// produce a dense per-day Present/Absent calendar. It is range-size
// agnostic: the dashboard asks for 7 days, the list view for 7 or 30, and
// the spreadsheet export for an arbitrary, possibly multi-year window.
type Reconciler struct {
	source RecordSource
}

// NewReconciler creates a reconciler reading from the given source.
func NewReconciler(source RecordSource) *Reconciler {
	return &Reconciler{source: source}
}

// Reconcile produces one entry per (identity, date) pair for every date in
// [start, end] inclusive, in identity order as supplied and ascending date
// order within each identity. A date with a stored row yields Present with
// that row's check-in time; a date with none yields Absent with an empty
// check-in time. Fails with ErrInvalidRange when start is after end.
func (r *Reconciler) Reconcile(ctx context.Context, identities []Identity, start, end time.Time) ([]Entry, error) {
	start, end = DateOf(start), DateOf(end)
	if start.After(end) {
		return nil, fmt.Errorf("range %s to %s: %w",
			start.Format(DateLayout), end.Format(DateLayout), ErrInvalidRange)
	}
	if len(identities) == 0 {
		return []Entry{}, nil
	}

	ids := make([]string, len(identities))
	for i, identity := range identities {
		ids[i] = identity.EmployeeID
	}

	records, err := r.source.RecordsInRange(ctx, ids, start, end)
	if err != nil {
		return nil, fmt.Errorf("loading attendance records: %w", err)
	}

	return overlay(identities, start, end, records), nil
}

// recordKey identifies a stored row by employee and calendar date.
type recordKey struct {
	employeeID string
	date       time.Time
}

// overlay builds the dense calendar from the fetched rows. Pure: output
// depends only on its inputs, so the result is reproducible.
func overlay(identities []Identity, start, end time.Time, records []Record) []Entry {
	byKey := make(map[recordKey]Record, len(records))
	for _, rec := range records {
		byKey[recordKey{rec.EmployeeID, DateOf(rec.Date)}] = rec
	}

	days := int(end.Sub(start).Hours()/24) + 1
	entries := make([]Entry, 0, days*len(identities))

	for _, identity := range identities {
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if rec, ok := byKey[recordKey{identity.EmployeeID, d}]; ok {
				entries = append(entries, Entry{
					EmployeeID: identity.EmployeeID,
					Date:       d,
					CheckIn:    rec.CheckIn,
					Status:     StatusPresent,
				})
				continue
			}
			entries = append(entries, Entry{
				EmployeeID: identity.EmployeeID,
				Date:       d,
				Status:     StatusAbsent,
			})
		}
	}
	return entries
}
