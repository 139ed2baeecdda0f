package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
)

// AttendanceRepository provides MySQL-backed ledger storage.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new MySQL attendance repository.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// UpsertCheckIn records a check-in atomically via ON DUPLICATE KEY UPDATE.
// COALESCE keeps an existing check-in time, so the first write of the day
// wins even under concurrent requests. MySQL reports 1 affected row for an
// insert and 2 for an update that changed something, which distinguishes
// creation.
func (r *AttendanceRepository) UpsertCheckIn(ctx context.Context, employeeID string, date time.Time, checkIn string) (attendance.Record, bool, error) {
	result, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO attendance (employee_id, date, check_in_time, status)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE check_in_time = COALESCE(check_in_time, VALUES(check_in_time))`,
		employeeID, date.Format(attendance.DateLayout), checkIn, attendance.StatusPresent,
	)
	if err != nil {
		return attendance.Record{}, false, fmt.Errorf("upsert check-in: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return attendance.Record{}, false, fmt.Errorf("upsert rows affected: %w", err)
	}
	created := affected == 1

	// Read back the stored row; the insert may have lost to an earlier one.
	var rec attendance.Record
	var storedCheckIn sql.NullString
	err = r.pool.db.QueryRowContext(ctx,
		"SELECT check_in_time, status FROM attendance WHERE employee_id = ? AND date = ?",
		employeeID, date.Format(attendance.DateLayout),
	).Scan(&storedCheckIn, &rec.Status)
	if err != nil {
		return attendance.Record{}, false, fmt.Errorf("read back check-in: %w", err)
	}

	rec.EmployeeID = employeeID
	rec.Date = attendance.DateOf(date)
	rec.CheckIn = storedCheckIn.String
	return rec, created, nil
}

// RecordsInRange retrieves stored rows for the given employees within
// [start, end] inclusive, ordered by employee then date.
func (r *AttendanceRepository) RecordsInRange(ctx context.Context, employeeIDs []string, start, end time.Time) ([]attendance.Record, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(employeeIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(employeeIDs)+2)
	for _, id := range employeeIDs {
		args = append(args, id)
	}
	args = append(args, start.Format(attendance.DateLayout), end.Format(attendance.DateLayout))

	query := fmt.Sprintf(`
		SELECT employee_id, date, check_in_time, status
		FROM attendance
		WHERE employee_id IN (%s) AND date BETWEEN ? AND ?
		ORDER BY employee_id, date`, placeholders)

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance range: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		var rec attendance.Record
		var checkIn sql.NullString
		if err := rows.Scan(&rec.EmployeeID, &rec.Date, &checkIn, &rec.Status); err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		rec.Date = attendance.DateOf(rec.Date)
		rec.CheckIn = checkIn.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return records, nil
}
