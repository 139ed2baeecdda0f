//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/web/middleware"
)

func middlewareSession(id, employeeID string, expires time.Time) middleware.StoredSession {
	return middleware.StoredSession{
		ID:         id,
		EmployeeID: employeeID,
		CreatedAt:  time.Now(),
		ExpiresAt:  expires,
	}
}

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cfg := &config.DatabaseConfig{
		URL:          fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()),
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := Initialize(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to initialize pool: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}
	return pool, cleanup
}

func testEncoding(v float32) []float32 {
	enc := make([]float32, attendance.EncodingDim)
	for i := range enc {
		enc[i] = v
	}
	return enc
}

func createTestEmployee(t *testing.T, repo *EmployeeRepository, employeeID string, encoding []float32) {
	t.Helper()
	err := repo.Create(context.Background(), &database.Employee{
		EmployeeID:   employeeID,
		Username:     "user-" + employeeID,
		PasswordHash: "x",
		FirstName:    "Test",
		LastName:     employeeID,
		Encoding:     encoding,
	})
	if err != nil {
		t.Fatalf("creating employee %s: %v", employeeID, err)
	}
}

func TestEmployeeRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewEmployeeRepository(pool)

	createTestEmployee(t, repo, "E002", testEncoding(0.5))
	createTestEmployee(t, repo, "E001", nil)

	t.Run("duplicate employee id", func(t *testing.T) {
		err := repo.Create(ctx, &database.Employee{
			EmployeeID: "E001", Username: "someone-else", PasswordHash: "x",
		})
		if !errors.Is(err, attendance.ErrDuplicateIdentity) {
			t.Errorf("got %v, want ErrDuplicateIdentity", err)
		}
	})

	t.Run("get by employee id", func(t *testing.T) {
		e, err := repo.GetByEmployeeID(ctx, "E002")
		if err != nil {
			t.Fatalf("GetByEmployeeID: %v", err)
		}
		if e == nil || len(e.Encoding) != attendance.EncodingDim {
			t.Fatalf("expected employee with 128-dim encoding, got %+v", e)
		}
		if e.Encoding[0] != 0.5 {
			t.Errorf("encoding round-trip: got %v, want 0.5", e.Encoding[0])
		}
	})

	t.Run("missing employee is nil", func(t *testing.T) {
		e, err := repo.GetByEmployeeID(ctx, "E999")
		if err != nil || e != nil {
			t.Errorf("got (%v, %v), want (nil, nil)", e, err)
		}
	})

	t.Run("list with encoding ordered", func(t *testing.T) {
		employees, err := repo.ListWithEncoding(ctx)
		if err != nil {
			t.Fatalf("ListWithEncoding: %v", err)
		}
		if len(employees) != 1 || employees[0].EmployeeID != "E002" {
			t.Errorf("got %d employees, want only E002", len(employees))
		}
	})

	t.Run("update face", func(t *testing.T) {
		if err := repo.UpdateFace(ctx, "E001", "faces/e001.jpg", testEncoding(0.25)); err != nil {
			t.Fatalf("UpdateFace: %v", err)
		}
		e, err := repo.GetByEmployeeID(ctx, "E001")
		if err != nil {
			t.Fatalf("GetByEmployeeID: %v", err)
		}
		if e.FaceImage != "faces/e001.jpg" || len(e.Encoding) != attendance.EncodingDim {
			t.Errorf("face update not persisted: %+v", e)
		}
	})

	t.Run("update face unknown employee", func(t *testing.T) {
		err := repo.UpdateFace(ctx, "E999", "x.jpg", nil)
		if !errors.Is(err, attendance.ErrIdentityNotFound) {
			t.Errorf("got %v, want ErrIdentityNotFound", err)
		}
	})
}

func TestAttendanceRepository_UpsertCheckIn(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	employees := NewEmployeeRepository(pool)
	repo := NewAttendanceRepository(pool)

	createTestEmployee(t, employees, "E001", nil)
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	rec, created, err := repo.UpsertCheckIn(ctx, "E001", date, "09:15:00")
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !created || rec.CheckIn != "09:15:00" || rec.Status != attendance.StatusPresent {
		t.Errorf("first upsert = (%+v, %v)", rec, created)
	}

	// Second check-in the same day: no new row, first write wins.
	rec, created, err = repo.UpsertCheckIn(ctx, "E001", date, "09:30:00")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created {
		t.Error("second upsert must not create a row")
	}
	if rec.CheckIn != "09:15:00" {
		t.Errorf("check-in time = %q, want 09:15:00", rec.CheckIn)
	}

	records, err := repo.RecordsInRange(ctx, []string{"E001"}, date, date)
	if err != nil {
		t.Fatalf("RecordsInRange: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
}

func TestAttendanceRepository_RecordsInRange(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	employees := NewEmployeeRepository(pool)
	repo := NewAttendanceRepository(pool)

	createTestEmployee(t, employees, "E001", nil)
	createTestEmployee(t, employees, "E002", nil)

	for _, d := range []string{"2024-01-01", "2024-01-05", "2024-02-01"} {
		date, _ := time.Parse(attendance.DateLayout, d)
		if _, _, err := repo.UpsertCheckIn(ctx, "E001", date, "08:00:00"); err != nil {
			t.Fatalf("seeding %s: %v", d, err)
		}
	}

	start, _ := time.Parse(attendance.DateLayout, "2024-01-01")
	end, _ := time.Parse(attendance.DateLayout, "2024-01-31")

	records, err := repo.RecordsInRange(ctx, []string{"E001", "E002"}, start, end)
	if err != nil {
		t.Fatalf("RecordsInRange: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (February row excluded)", len(records))
	}
	if !records[0].Date.Equal(start) {
		t.Errorf("records not ordered by date: first is %s", records[0].Date)
	}
}

func TestSessionRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewSessionRepository(pool)

	s := middlewareSession("sess-1", "E001", time.Now().Add(time.Hour))
	if err := repo.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.EmployeeID != "E001" {
		t.Fatalf("got %+v", got)
	}

	// Expired sessions are invisible and cleaned up.
	expired := middlewareSession("sess-2", "E002", time.Now().Add(-time.Hour))
	if err := repo.Save(ctx, expired); err != nil {
		t.Fatalf("Save expired: %v", err)
	}
	if got, _ := repo.Get(ctx, "sess-2"); got != nil {
		t.Error("expired session should not be returned")
	}
	count, err := repo.DeleteExpired(ctx)
	if err != nil || count != 1 {
		t.Errorf("DeleteExpired = (%d, %v), want (1, nil)", count, err)
	}
}
