package attendance

import (
	"context"
	"errors"
	"testing"
	"time"
)

// stubRecordSource returns a fixed set of records for any query.
type stubRecordSource struct {
	records []Record
	err     error
}

func (s *stubRecordSource) RecordsInRange(ctx context.Context, employeeIDs []string, start, end time.Time) ([]Record, error) {
	return s.records, s.err
}

func day(s string) time.Time {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestReconcile_AllAbsent(t *testing.T) {
	r := NewReconciler(&stubRecordSource{})
	identities := []Identity{{EmployeeID: "E001"}}

	entries, err := r.Reconcile(context.Background(), identities, day("2024-01-01"), day("2024-01-03"))
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	for i, want := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
		e := entries[i]
		if e.Date.Format(DateLayout) != want {
			t.Errorf("entry %d date = %s, want %s", i, e.Date.Format(DateLayout), want)
		}
		if e.Status != StatusAbsent || e.CheckIn != "" {
			t.Errorf("entry %d = %+v, want Absent with empty check-in", i, e)
		}
	}
}

func TestReconcile_OverlaysStoredRecords(t *testing.T) {
	source := &stubRecordSource{records: []Record{
		{EmployeeID: "E001", Date: day("2024-01-02"), CheckIn: "09:15:00", Status: StatusPresent},
	}}
	r := NewReconciler(source)

	entries, err := r.Reconcile(context.Background(), []Identity{{EmployeeID: "E001"}},
		day("2024-01-01"), day("2024-01-03"))
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}

	want := []struct {
		status  string
		checkIn string
	}{
		{StatusAbsent, ""},
		{StatusPresent, "09:15:00"},
		{StatusAbsent, ""},
	}
	for i, w := range want {
		if entries[i].Status != w.status || entries[i].CheckIn != w.checkIn {
			t.Errorf("entry %d = (%s, %q), want (%s, %q)",
				i, entries[i].Status, entries[i].CheckIn, w.status, w.checkIn)
		}
	}
}

func TestReconcile_Completeness(t *testing.T) {
	source := &stubRecordSource{records: []Record{
		{EmployeeID: "E002", Date: day("2024-02-10"), CheckIn: "08:00:00", Status: StatusPresent},
	}}
	r := NewReconciler(source)
	identities := []Identity{{EmployeeID: "E001"}, {EmployeeID: "E002"}, {EmployeeID: "E003"}}

	start, end := day("2024-02-01"), day("2024-02-29") // leap February
	entries, err := r.Reconcile(context.Background(), identities, start, end)
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}

	if want := 29 * 3; len(entries) != want {
		t.Fatalf("got %d entries, want %d", len(entries), want)
	}

	// Each date appears exactly once per identity, identities in supplied
	// order, dates ascending within each identity.
	for i, e := range entries {
		wantID := identities[i/29].EmployeeID
		wantDate := start.AddDate(0, 0, i%29)
		if e.EmployeeID != wantID || !e.Date.Equal(wantDate) {
			t.Fatalf("entry %d = (%s, %s), want (%s, %s)",
				i, e.EmployeeID, e.Date.Format(DateLayout), wantID, wantDate.Format(DateLayout))
		}
	}
}

func TestReconcile_InvalidRange(t *testing.T) {
	r := NewReconciler(&stubRecordSource{})

	_, err := r.Reconcile(context.Background(), []Identity{{EmployeeID: "E001"}},
		day("2024-01-03"), day("2024-01-01"))
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("got %v, want ErrInvalidRange", err)
	}
}

func TestReconcile_SingleDayRange(t *testing.T) {
	r := NewReconciler(&stubRecordSource{})

	entries, err := r.Reconcile(context.Background(), []Identity{{EmployeeID: "E001"}},
		day("2024-01-01"), day("2024-01-01"))
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries, want 1", len(entries))
	}
}

func TestReconcile_NoIdentities(t *testing.T) {
	r := NewReconciler(&stubRecordSource{err: errors.New("should not be called")})

	entries, err := r.Reconcile(context.Background(), nil, day("2024-01-01"), day("2024-01-03"))
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}

func TestReconcile_MultiYearRange(t *testing.T) {
	r := NewReconciler(&stubRecordSource{})

	start, end := day("2022-01-01"), day("2024-12-31")
	entries, err := r.Reconcile(context.Background(), []Identity{{EmployeeID: "E001"}}, start, end)
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}

	want := 365 + 365 + 366 // 2024 is a leap year
	if len(entries) != want {
		t.Errorf("got %d entries, want %d", len(entries), want)
	}
	if !entries[len(entries)-1].Date.Equal(end) {
		t.Errorf("last entry date = %s, want %s",
			entries[len(entries)-1].Date.Format(DateLayout), end.Format(DateLayout))
	}
}

func TestReconcile_SourceError(t *testing.T) {
	r := NewReconciler(&stubRecordSource{err: errors.New("db down")})

	_, err := r.Reconcile(context.Background(), []Identity{{EmployeeID: "E001"}},
		day("2024-01-01"), day("2024-01-02"))
	if err == nil {
		t.Error("expected error from record source")
	}
}
