package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler streams per-employee attendance spreadsheets.
type ExportHandler struct {
	stores     database.Stores
	reconciler *attendance.Reconciler
}

// NewExportHandler creates a new export handler.
func NewExportHandler(stores database.Stores, reconciler *attendance.Reconciler) *ExportHandler {
	return &ExportHandler{stores: stores, reconciler: reconciler}
}

// Export renders the reconciled calendar for one employee over an explicit
// date range as an XLSX download. All three query parameters are required.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	employeeID := r.URL.Query().Get("employee_id")
	startParam := r.URL.Query().Get("start_date")
	endParam := r.URL.Query().Get("end_date")

	if employeeID == "" || startParam == "" || endParam == "" {
		respondError(w, http.StatusBadRequest, "employee_id, start_date and end_date are required")
		return
	}

	start, err := time.Parse(attendance.DateLayout, startParam)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid start_date")
		return
	}
	end, err := time.Parse(attendance.DateLayout, endParam)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid end_date")
		return
	}

	employee, err := h.stores.Employees.GetByEmployeeID(r.Context(), employeeID)
	if err != nil {
		log.Printf("Failed to look up employee %s: %v", sanitizeForLog(employeeID), err)
		respondError(w, http.StatusInternalServerError, "failed to look up employee")
		return
	}
	if employee == nil {
		respondError(w, http.StatusNotFound, "employee not found")
		return
	}

	identity := employee.Identity()
	entries, err := h.reconciler.Reconcile(r.Context(), []attendance.Identity{identity}, start, end)
	if err != nil {
		if errors.Is(err, attendance.ErrInvalidRange) {
			respondError(w, http.StatusBadRequest, "start_date is after end_date")
			return
		}
		log.Printf("Reconciliation failed for %s: %v", sanitizeForLog(employeeID), err)
		respondError(w, http.StatusInternalServerError, "failed to load attendance")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition",
		`attachment; filename="`+report.Filename(employeeID, start, end)+`"`)

	if err := report.Write(w, identity, entries); err != nil {
		// Headers are gone at this point; logging is all that is left.
		log.Printf("Failed to write spreadsheet for %s: %v", sanitizeForLog(employeeID), err)
	}
}
