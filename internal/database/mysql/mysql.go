// Package mysql provides a MySQL/MariaDB backend as an alternative to
// PostgreSQL. Face encodings are stored as JSON text since there is no
// native vector type.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/kozaktomas/face-attendance/internal/config"
)

// dsnWithParseTime enables parseTime on a DSN without clobbering any
// parameters it already carries. Scanning DATE and TIMESTAMP columns into
// time.Time requires parseTime; naive string concatenation breaks DSNs
// that already have a parameter string.
func dsnWithParseTime(dsn string) (string, error) {
	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse MySQL DSN: %w", err)
	}
	parsed.ParseTime = true
	return parsed.FormatDSN(), nil
}

// Pool manages a MySQL connection pool.
type Pool struct {
	db *sql.DB
}

// NewPool creates a new MySQL connection pool.
func NewPool(cfg *config.DatabaseConfig) (*Pool, error) {
	if cfg.MySQLDSN == "" {
		return nil, errors.New("MySQL DSN is required")
	}

	dsn, err := dsnWithParseTime(cfg.MySQLDSN)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	return &Pool{db: db}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// EnsureSchema creates the tables if they do not exist. Unlike the
// PostgreSQL backend there is no migration history; the schema is small
// enough to keep idempotent.
func (p *Pool) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS employees (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			employee_id VARCHAR(50) NOT NULL UNIQUE,
			username VARCHAR(150) NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			first_name VARCHAR(150) NOT NULL DEFAULT '',
			last_name VARCHAR(150) NOT NULL DEFAULT '',
			email VARCHAR(254) NOT NULL DEFAULT '',
			department VARCHAR(100) NOT NULL DEFAULT '',
			face_encoding TEXT,
			face_image VARCHAR(512) NOT NULL DEFAULT '',
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS attendance (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			employee_id VARCHAR(50) NOT NULL,
			date DATE NOT NULL,
			check_in_time TIME NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'Present',
			UNIQUE KEY attendance_employee_date_key (employee_id, date),
			CONSTRAINT fk_attendance_employee FOREIGN KEY (employee_id)
				REFERENCES employees (employee_id) ON DELETE CASCADE
		)`,
	}

	for _, stmt := range statements {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Initialize opens the MySQL pool and ensures the schema exists.
func Initialize(cfg *config.DatabaseConfig) (*Pool, error) {
	pool, err := NewPool(cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.EnsureSchema(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
