package cmd

import (
	"errors"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mysql"
	"github.com/kozaktomas/face-attendance/internal/database/postgres"
	"github.com/kozaktomas/face-attendance/internal/recognize"
	"github.com/kozaktomas/face-attendance/internal/web/middleware"
)

// backends bundles the opened storage layer for a command invocation.
type backends struct {
	stores      database.Stores
	sessionRepo middleware.SessionRepository // nil for MySQL
	close       func()
}

// openBackends connects the configured database driver and builds the
// stores. Session persistence is only available on the PostgreSQL backend;
// MySQL deployments fall back to in-memory sessions.
func openBackends(cfg *config.Config) (*backends, error) {
	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.URL == "" {
			return nil, errors.New("DATABASE_URL environment variable is required")
		}
		fmt.Printf("Connecting to PostgreSQL database...\n")
		pool, err := postgres.Initialize(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		fmt.Printf("Using PostgreSQL backend\n")
		fmt.Printf("Session persistence enabled (PostgreSQL)\n")
		return &backends{
			stores: database.Stores{
				Employees:  postgres.NewEmployeeRepository(pool),
				Attendance: postgres.NewAttendanceRepository(pool),
			},
			sessionRepo: postgres.NewSessionRepository(pool),
			close:       func() { _ = pool.Close() },
		}, nil

	case "mysql":
		if cfg.Database.MySQLDSN == "" {
			return nil, errors.New("MYSQL_DSN environment variable is required")
		}
		fmt.Printf("Connecting to MySQL database...\n")
		pool, err := mysql.Initialize(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MySQL: %w", err)
		}
		fmt.Printf("Using MySQL backend (sessions stay in memory)\n")
		return &backends{
			stores: database.Stores{
				Employees:  mysql.NewEmployeeRepository(pool),
				Attendance: mysql.NewAttendanceRepository(pool),
			},
			close: func() { _ = pool.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q (want postgres or mysql)", cfg.Database.Driver)
	}
}

// openEncoder loads the face encoding capability. A missing models
// directory is not fatal: the service runs in degraded mode where the
// recognize endpoint reports 503 and registration stores images only.
func openEncoder(cfg *config.Config) recognize.Encoder {
	enc, err := recognize.NewGoFaceEncoder(cfg.Face.ModelsDir)
	if err != nil {
		if errors.Is(err, recognize.ErrUnavailable) {
			fmt.Printf("Face recognition models not found, running without the encoder\n")
			fmt.Printf("Set FACE_MODELS_DIR to a directory with the dlib model files to enable it\n")
		} else {
			fmt.Printf("Warning: failed to load face recognition models: %v\n", err)
		}
		return nil
	}
	fmt.Printf("Face recognition models loaded from %s\n", cfg.Face.ModelsDir)
	return enc
}
