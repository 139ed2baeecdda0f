package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// EmployeeRepository provides MySQL-backed identity storage.
type EmployeeRepository struct {
	pool *Pool
}

// NewEmployeeRepository creates a new MySQL employee repository.
func NewEmployeeRepository(pool *Pool) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

const employeeColumns = `id, employee_id, username, password_hash, first_name, last_name,
	       email, department, face_encoding, face_image, is_admin, created_at`

// encodeVector serializes an encoding as a JSON list, NULL when absent.
func encodeVector(encoding []float32) (any, error) {
	if len(encoding) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(encoding)
	if err != nil {
		return nil, fmt.Errorf("marshal encoding: %w", err)
	}
	return string(raw), nil
}

func scanEmployee(row interface{ Scan(...any) error }) (*database.Employee, error) {
	var e database.Employee
	var enc sql.NullString
	err := row.Scan(
		&e.ID, &e.EmployeeID, &e.Username, &e.PasswordHash, &e.FirstName, &e.LastName,
		&e.Email, &e.Department, &enc, &e.FaceImage, &e.IsAdmin, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if enc.Valid && enc.String != "" {
		if err := json.Unmarshal([]byte(enc.String), &e.Encoding); err != nil {
			// A corrupt encoding makes the row unmatchable, not unreadable.
			e.Encoding = nil
		}
	}
	return &e, nil
}

func scanEmployees(rows *sql.Rows) ([]database.Employee, error) {
	var employees []database.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}
	return employees, nil
}

// Create inserts a new employee. Returns attendance.ErrDuplicateIdentity
// when the employee ID or username is already taken.
func (r *EmployeeRepository) Create(ctx context.Context, e *database.Employee) error {
	enc, err := encodeVector(e.Encoding)
	if err != nil {
		return err
	}

	result, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO employees (employee_id, username, password_hash, first_name,
		                       last_name, email, department, face_encoding, face_image, is_admin)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.EmployeeID, e.Username, e.PasswordHash, e.FirstName,
		e.LastName, e.Email, e.Department, enc, e.FaceImage, e.IsAdmin,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return fmt.Errorf("employee %q / user %q: %w",
				e.EmployeeID, e.Username, attendance.ErrDuplicateIdentity)
		}
		return fmt.Errorf("insert employee: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		e.ID = id
	}
	return nil
}

// GetByEmployeeID retrieves an employee by employee ID, nil if not found.
func (r *EmployeeRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*database.Employee, error) {
	query := "SELECT " + employeeColumns + " FROM employees WHERE employee_id = ?"
	e, err := scanEmployee(r.pool.db.QueryRowContext(ctx, query, employeeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get employee %q: %w", employeeID, err)
	}
	return e, nil
}

// GetByUsername retrieves an employee by login name, nil if not found.
func (r *EmployeeRepository) GetByUsername(ctx context.Context, username string) (*database.Employee, error) {
	query := "SELECT " + employeeColumns + " FROM employees WHERE username = ?"
	e, err := scanEmployee(r.pool.db.QueryRowContext(ctx, query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get employee by username: %w", err)
	}
	return e, nil
}

// List retrieves all employees ordered by employee ID.
func (r *EmployeeRepository) List(ctx context.Context) ([]database.Employee, error) {
	query := "SELECT " + employeeColumns + " FROM employees ORDER BY employee_id"
	rows, err := r.pool.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	return scanEmployees(rows)
}

// ListWithEncoding retrieves all employees that have a stored face
// encoding, ordered by employee ID so matching stays deterministic.
func (r *EmployeeRepository) ListWithEncoding(ctx context.Context) ([]database.Employee, error) {
	query := "SELECT " + employeeColumns + ` FROM employees
		WHERE face_encoding IS NOT NULL AND face_encoding != '' ORDER BY employee_id`
	rows, err := r.pool.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query employees with encoding: %w", err)
	}
	defer rows.Close()

	return scanEmployees(rows)
}

// UpdateFace stores a new face image path and encoding for an employee.
func (r *EmployeeRepository) UpdateFace(ctx context.Context, employeeID, imagePath string, encoding []float32) error {
	var result sql.Result
	if len(encoding) > 0 {
		enc, err := encodeVector(encoding)
		if err != nil {
			return err
		}
		result, err = r.pool.db.ExecContext(ctx,
			"UPDATE employees SET face_image = ?, face_encoding = ? WHERE employee_id = ?",
			imagePath, enc, employeeID)
		if err != nil {
			return fmt.Errorf("update face for %q: %w", employeeID, err)
		}
	} else {
		var err error
		result, err = r.pool.db.ExecContext(ctx,
			"UPDATE employees SET face_image = ? WHERE employee_id = ?",
			imagePath, employeeID)
		if err != nil {
			return fmt.Errorf("update face for %q: %w", employeeID, err)
		}
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update face rows affected: %w", err)
	}
	if affected == 0 {
		// RowsAffected is also 0 when the stored values already match; check
		// existence before reporting the identity missing.
		exists, err := r.IdentityExists(ctx, employeeID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("employee %q: %w", employeeID, attendance.ErrIdentityNotFound)
		}
	}
	return nil
}

// IdentityExists checks whether an employee ID is registered.
func (r *EmployeeRepository) IdentityExists(ctx context.Context, employeeID string) (bool, error) {
	var exists bool
	err := r.pool.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM employees WHERE employee_id = ?)", employeeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check employee exists: %w", err)
	}
	return exists, nil
}
