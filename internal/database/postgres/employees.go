package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// EmployeeRepository provides PostgreSQL-backed identity storage. Face
// encodings live in a pgvector column.
type EmployeeRepository struct {
	pool *Pool
}

// NewEmployeeRepository creates a new PostgreSQL employee repository.
func NewEmployeeRepository(pool *Pool) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

const employeeColumns = `id, employee_id, username, password_hash, first_name, last_name,
	       email, department, face_encoding, face_image, is_admin, created_at`

// nullVector scans a nullable pgvector column.
type nullVector struct {
	vec   pgvector.Vector
	valid bool
}

func (n *nullVector) Scan(src any) error {
	if src == nil {
		n.valid = false
		return nil
	}
	n.valid = true
	return n.vec.Scan(src)
}

func scanEmployee(row interface{ Scan(...any) error }) (*database.Employee, error) {
	var e database.Employee
	var enc nullVector
	err := row.Scan(
		&e.ID, &e.EmployeeID, &e.Username, &e.PasswordHash, &e.FirstName, &e.LastName,
		&e.Email, &e.Department, &enc, &e.FaceImage, &e.IsAdmin, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if enc.valid {
		e.Encoding = enc.vec.Slice()
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
	query := `
		INSERT INTO employees (employee_id, username, password_hash, first_name,
		                       last_name, email, department, face_encoding, face_image, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	var enc any
	if len(e.Encoding) > 0 {
		enc = pgvector.NewVector(e.Encoding)
	}

	err := r.pool.QueryRow(ctx, query,
		e.EmployeeID, e.Username, e.PasswordHash, e.FirstName,
		e.LastName, e.Email, e.Department, enc, e.FaceImage, e.IsAdmin,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("employee %q / user %q: %w",
				e.EmployeeID, e.Username, attendance.ErrDuplicateIdentity)
		}
		return fmt.Errorf("insert employee: %w", err)
	}
	return nil
}

// GetByEmployeeID retrieves an employee by employee ID, nil if not found.
func (r *EmployeeRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*database.Employee, error) {
	query := "SELECT " + employeeColumns + " FROM employees WHERE employee_id = $1"
	e, err := scanEmployee(r.pool.QueryRow(ctx, query, employeeID))
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
	query := "SELECT " + employeeColumns + " FROM employees WHERE username = $1"
	e, err := scanEmployee(r.pool.QueryRow(ctx, query, username))
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
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	return scanEmployees(rows)
}

// ListWithEncoding retrieves all employees that have a stored face
// encoding, ordered by employee ID so matching stays deterministic.
func (r *EmployeeRepository) ListWithEncoding(ctx context.Context) ([]database.Employee, error) {
	query := "SELECT " + employeeColumns + " FROM employees WHERE face_encoding IS NOT NULL ORDER BY employee_id"
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query employees with encoding: %w", err)
	}
	defer rows.Close()

	return scanEmployees(rows)
}

// UpdateFace stores a new face image path and encoding for an employee.
// A nil encoding updates only the image (degraded registration when the
// encoding capability is unavailable).
func (r *EmployeeRepository) UpdateFace(ctx context.Context, employeeID, imagePath string, encoding []float32) error {
	var result sql.Result
	var err error
	if len(encoding) > 0 {
		result, err = r.pool.Exec(ctx,
			"UPDATE employees SET face_image = $2, face_encoding = $3 WHERE employee_id = $1",
			employeeID, imagePath, pgvector.NewVector(encoding))
	} else {
		result, err = r.pool.Exec(ctx,
			"UPDATE employees SET face_image = $2 WHERE employee_id = $1",
			employeeID, imagePath)
	}
	if err != nil {
		return fmt.Errorf("update face for %q: %w", employeeID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update face rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("employee %q: %w", employeeID, attendance.ErrIdentityNotFound)
	}
	return nil
}

// IdentityExists checks whether an employee ID is registered.
func (r *EmployeeRepository) IdentityExists(ctx context.Context, employeeID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM employees WHERE employee_id = $1)", employeeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check employee exists: %w", err)
	}
	return exists, nil
}
