// Package mock provides in-memory implementations of the database
// interfaces for testing.
package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// EmployeeStore is an in-memory database.EmployeeStore.
type EmployeeStore struct {
	mu        sync.RWMutex
	employees map[string]*database.Employee // keyed by employee ID
	nextID    int64

	// Error injection
	CreateError error
	GetError    error
	ListError   error
	UpdateError error
}

// NewEmployeeStore creates an empty in-memory employee store.
func NewEmployeeStore() *EmployeeStore {
	return &EmployeeStore{employees: make(map[string]*database.Employee)}
}

// Add seeds an employee without uniqueness checks.
func (m *EmployeeStore) Add(e database.Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	e.ID = m.nextID
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	m.employees[e.EmployeeID] = &e
}

func (m *EmployeeStore) Create(ctx context.Context, e *database.Employee) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.employees[e.EmployeeID]; ok {
		return fmt.Errorf("employee %q: %w", e.EmployeeID, attendance.ErrDuplicateIdentity)
	}
	for _, existing := range m.employees {
		if existing.Username == e.Username {
			return fmt.Errorf("user %q: %w", e.Username, attendance.ErrDuplicateIdentity)
		}
	}

	m.nextID++
	e.ID = m.nextID
	e.CreatedAt = time.Now()
	clone := *e
	m.employees[e.EmployeeID] = &clone
	return nil
}

func (m *EmployeeStore) GetByEmployeeID(ctx context.Context, employeeID string) (*database.Employee, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.employees[employeeID]; ok {
		clone := *e
		return &clone, nil
	}
	return nil, nil
}

func (m *EmployeeStore) GetByUsername(ctx context.Context, username string) (*database.Employee, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.employees {
		if e.Username == username {
			clone := *e
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *EmployeeStore) List(ctx context.Context) ([]database.Employee, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	return m.list(func(e *database.Employee) bool { return true }), nil
}

func (m *EmployeeStore) ListWithEncoding(ctx context.Context) ([]database.Employee, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	return m.list(func(e *database.Employee) bool { return len(e.Encoding) > 0 }), nil
}

func (m *EmployeeStore) list(keep func(*database.Employee) bool) []database.Employee {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var employees []database.Employee
	for _, e := range m.employees {
		if keep(e) {
			employees = append(employees, *e)
		}
	}
	sort.Slice(employees, func(i, j int) bool {
		return employees[i].EmployeeID < employees[j].EmployeeID
	})
	return employees
}

func (m *EmployeeStore) UpdateFace(ctx context.Context, employeeID, imagePath string, encoding []float32) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.employees[employeeID]
	if !ok {
		return fmt.Errorf("employee %q: %w", employeeID, attendance.ErrIdentityNotFound)
	}
	e.FaceImage = imagePath
	if len(encoding) > 0 {
		e.Encoding = append([]float32(nil), encoding...)
	}
	return nil
}

func (m *EmployeeStore) IdentityExists(ctx context.Context, employeeID string) (bool, error) {
	if m.GetError != nil {
		return false, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.employees[employeeID]
	return ok, nil
}

// AttendanceStore is an in-memory database.AttendanceStore with the same
// first-write-wins upsert semantics as the SQL backends.
type AttendanceStore struct {
	mu      sync.RWMutex
	records map[string]attendance.Record // keyed by employeeID + date

	// Error injection
	UpsertError error
	RangeError  error
}

// NewAttendanceStore creates an empty in-memory attendance store.
func NewAttendanceStore() *AttendanceStore {
	return &AttendanceStore{records: make(map[string]attendance.Record)}
}

func recordKey(employeeID string, date time.Time) string {
	return employeeID + "/" + date.Format(attendance.DateLayout)
}

func (m *AttendanceStore) UpsertCheckIn(ctx context.Context, employeeID string, date time.Time, checkIn string) (attendance.Record, bool, error) {
	if m.UpsertError != nil {
		return attendance.Record{}, false, m.UpsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	date = attendance.DateOf(date)
	key := recordKey(employeeID, date)
	if existing, ok := m.records[key]; ok {
		if existing.CheckIn == "" {
			existing.CheckIn = checkIn
			m.records[key] = existing
		}
		return m.records[key], false, nil
	}

	rec := attendance.Record{
		EmployeeID: employeeID,
		Date:       date,
		CheckIn:    checkIn,
		Status:     attendance.StatusPresent,
	}
	m.records[key] = rec
	return rec, true, nil
}

func (m *AttendanceStore) RecordsInRange(ctx context.Context, employeeIDs []string, start, end time.Time) ([]attendance.Record, error) {
	if m.RangeError != nil {
		return nil, m.RangeError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[string]bool, len(employeeIDs))
	for _, id := range employeeIDs {
		wanted[id] = true
	}

	var records []attendance.Record
	for _, rec := range m.records {
		if !wanted[rec.EmployeeID] {
			continue
		}
		if rec.Date.Before(attendance.DateOf(start)) || rec.Date.After(attendance.DateOf(end)) {
			continue
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].EmployeeID != records[j].EmployeeID {
			return records[i].EmployeeID < records[j].EmployeeID
		}
		return records[i].Date.Before(records[j].Date)
	})
	return records, nil
}

// Count returns the number of stored records.
func (m *AttendanceStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Stores returns a database.Stores bundle over fresh mock stores.
func Stores() (database.Stores, *EmployeeStore, *AttendanceStore) {
	employees := NewEmployeeStore()
	records := NewAttendanceStore()
	return database.Stores{Employees: employees, Attendance: records}, employees, records
}
