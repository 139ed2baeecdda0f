package handlers

import (
	"bytes"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database"
)

func exportHandlerFor(stores database.Stores) *ExportHandler {
	return NewExportHandler(stores, attendance.NewReconciler(stores.Attendance))
}

func TestExport(t *testing.T) {
	stores, employees, _ := testStores()
	employees.Add(database.Employee{EmployeeID: "EMP001", Username: "jana", FirstName: "Jana", LastName: "Nováková", Department: "Engineering"})

	checkIn := time.Date(2024, 3, 2, 9, 15, 0, 0, time.UTC)
	if _, _, err := stores.Attendance.UpsertCheckIn(t.Context(), "EMP001", checkIn, "09:15:00"); err != nil {
		t.Fatalf("failed to seed check-in: %v", err)
	}

	h := exportHandlerFor(stores)

	req := httptest.NewRequest("GET", "/api/v1/export?employee_id=EMP001&start_date=2024-03-01&end_date=2024-03-07", nil)
	w := httptest.NewRecorder()
	h.Export(w, req)

	assertStatusCode(t, w, 200)
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("Content-Type = %s, want %s", ct, xlsxContentType)
	}
	wantDisposition := `attachment; filename="EMP001_2024-03-01_to_2024-03-07.xlsx"`
	if cd := w.Header().Get("Content-Disposition"); cd != wantDisposition {
		t.Errorf("Content-Disposition = %s, want %s", cd, wantDisposition)
	}

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("response is not a valid spreadsheet: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Attendance Report")
	if err != nil {
		t.Fatalf("failed to read sheet: %v", err)
	}
	// Header + 7 days; summary follows after the gap.
	if len(rows) < 8 {
		t.Fatalf("rows = %d, want at least 8", len(rows))
	}
	if rows[2][5] != attendance.StatusPresent {
		t.Errorf("2024-03-02 status = %s, want Present", rows[2][5])
	}
	if rows[2][4] != "09:15:00" {
		t.Errorf("2024-03-02 check-in = %s, want 09:15:00", rows[2][4])
	}
}

func TestExport_MissingParams(t *testing.T) {
	stores, _, _ := testStores()
	h := exportHandlerFor(stores)

	urls := []string{
		"/api/v1/export",
		"/api/v1/export?employee_id=EMP001",
		"/api/v1/export?employee_id=EMP001&start_date=2024-03-01",
		"/api/v1/export?start_date=2024-03-01&end_date=2024-03-07",
	}
	for _, url := range urls {
		w := httptest.NewRecorder()
		h.Export(w, httptest.NewRequest("GET", url, nil))
		assertStatusCode(t, w, 400)
	}
}

func TestExport_InvalidDates(t *testing.T) {
	stores, employees, _ := testStores()
	employees.Add(database.Employee{EmployeeID: "EMP001", Username: "jana"})
	h := exportHandlerFor(stores)

	t.Run("unparseable date", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/export?employee_id=EMP001&start_date=March&end_date=2024-03-07", nil)
		w := httptest.NewRecorder()
		h.Export(w, req)
		assertStatusCode(t, w, 400)
	})

	t.Run("start after end", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/export?employee_id=EMP001&start_date=2024-03-07&end_date=2024-03-01", nil)
		w := httptest.NewRecorder()
		h.Export(w, req)
		assertStatusCode(t, w, 400)
		assertJSONError(t, w, "start_date is after end_date")
	})
}

func TestExport_UnknownEmployee(t *testing.T) {
	stores, _, _ := testStores()
	h := exportHandlerFor(stores)

	req := httptest.NewRequest("GET", "/api/v1/export?employee_id=GHOST&start_date=2024-03-01&end_date=2024-03-07", nil)
	w := httptest.NewRecorder()
	h.Export(w, req)

	assertStatusCode(t, w, 404)
}
