package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/kozaktomas/face-attendance/internal/attendance"
)

// AttendanceRepository provides PostgreSQL-backed ledger storage.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// UpsertCheckIn records a check-in as a single atomic statement. The unique
// (employee_id, date) constraint plus ON CONFLICT makes concurrent
// check-ins safe: the row is created once, and an existing check-in time is
// never overwritten (COALESCE keeps the old value). xmax = 0 distinguishes
// a fresh insert from a conflict update.
func (r *AttendanceRepository) UpsertCheckIn(ctx context.Context, employeeID string, date time.Time, checkIn string) (attendance.Record, bool, error) {
	query := `
		INSERT INTO attendance (employee_id, date, check_in_time, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT attendance_employee_date_key DO UPDATE
		SET check_in_time = COALESCE(attendance.check_in_time, EXCLUDED.check_in_time)
		RETURNING COALESCE(check_in_time::text, ''), status, (xmax = 0) AS created
	`

	var rec attendance.Record
	var created bool
	err := r.pool.QueryRow(ctx, query, employeeID, date, checkIn, attendance.StatusPresent).
		Scan(&rec.CheckIn, &rec.Status, &created)
	if err != nil {
		return attendance.Record{}, false, fmt.Errorf("upsert check-in: %w", err)
	}

	rec.EmployeeID = employeeID
	rec.Date = attendance.DateOf(date)
	return rec, created, nil
}

// RecordsInRange retrieves stored rows for the given employees within
// [start, end] inclusive, ordered by employee then date.
func (r *AttendanceRepository) RecordsInRange(ctx context.Context, employeeIDs []string, start, end time.Time) ([]attendance.Record, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT employee_id, date, COALESCE(check_in_time::text, ''), status
		FROM attendance
		WHERE employee_id = ANY($1) AND date BETWEEN $2 AND $3
		ORDER BY employee_id, date
	`

	rows, err := r.pool.Query(ctx, query, pq.Array(employeeIDs), start, end)
	if err != nil {
		return nil, fmt.Errorf("query attendance range: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]attendance.Record, error) {
	var records []attendance.Record
	for rows.Next() {
		var rec attendance.Record
		if err := rows.Scan(&rec.EmployeeID, &rec.Date, &rec.CheckIn, &rec.Status); err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		rec.Date = attendance.DateOf(rec.Date)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return records, nil
}
