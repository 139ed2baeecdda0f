package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/web/middleware"
)

// AttendanceHandler serves the reconciled dashboard and list views.
type AttendanceHandler struct {
	stores        database.Stores
	reconciler    *attendance.Reconciler
	dashboardDays int
	listDays      int
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(stores database.Stores, reconciler *attendance.Reconciler, dashboardDays, listDays int) *AttendanceHandler {
	return &AttendanceHandler{
		stores:        stores,
		reconciler:    reconciler,
		dashboardDays: dashboardDays,
		listDays:      listDays,
	}
}

// EntryResponse is one reconciled calendar day.
type EntryResponse struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
	Date       string `json:"date"`
	CheckIn    string `json:"check_in,omitempty"`
	Status     string `json:"status"`
}

// CalendarResponse wraps a reconciled range.
type CalendarResponse struct {
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date"`
	Entries   []EntryResponse `json:"entries"`
}

// trailingRange returns the inclusive [start, end] window ending today.
func trailingRange(days int) (time.Time, time.Time) {
	end := attendance.DateOf(time.Now())
	start := end.AddDate(0, 0, -(days - 1))
	return start, end
}

func toEntryResponses(identities []attendance.Identity, entries []attendance.Entry) []EntryResponse {
	names := make(map[string]attendance.Identity, len(identities))
	for _, identity := range identities {
		names[identity.EmployeeID] = identity
	}

	out := make([]EntryResponse, 0, len(entries))
	for _, entry := range entries {
		identity := names[entry.EmployeeID]
		out = append(out, EntryResponse{
			EmployeeID: entry.EmployeeID,
			Name:       identity.DisplayName(),
			Department: identity.Department,
			Date:       entry.Date.Format(attendance.DateLayout),
			CheckIn:    entry.CheckIn,
			Status:     entry.Status,
		})
	}
	return out
}

func (h *AttendanceHandler) reconcileAndRespond(w http.ResponseWriter, r *http.Request, identities []attendance.Identity, start, end time.Time) {
	entries, err := h.reconciler.Reconcile(r.Context(), identities, start, end)
	if err != nil {
		log.Printf("Reconciliation failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load attendance")
		return
	}

	respondJSON(w, http.StatusOK, CalendarResponse{
		StartDate: start.Format(attendance.DateLayout),
		EndDate:   end.Format(attendance.DateLayout),
		Entries:   toEntryResponses(identities, entries),
	})
}

// Dashboard returns the caller's own trailing calendar.
func (h *AttendanceHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	if session == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	employee, err := h.stores.Employees.GetByEmployeeID(r.Context(), session.EmployeeID)
	if err != nil {
		log.Printf("Failed to look up employee %s: %v", sanitizeForLog(session.EmployeeID), err)
		respondError(w, http.StatusInternalServerError, "failed to look up employee")
		return
	}
	if employee == nil {
		respondError(w, http.StatusNotFound, "employee not found")
		return
	}

	start, end := trailingRange(h.dashboardDays)
	h.reconcileAndRespond(w, r, []attendance.Identity{employee.Identity()}, start, end)
}

// List returns a reconciled trailing calendar. Admins see every employee,
// everyone else only themselves. The q parameter filters by name with
// diacritic-insensitive matching.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	if session == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	days := h.listDays
	if d := r.URL.Query().Get("days"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil || n <= 0 || n > h.listDays {
			respondError(w, http.StatusBadRequest, "invalid days parameter")
			return
		}
		days = n
	}

	var identities []attendance.Identity
	if session.IsAdmin {
		employees, err := h.stores.Employees.List(r.Context())
		if err != nil {
			log.Printf("Failed to list employees: %v", err)
			respondError(w, http.StatusInternalServerError, "failed to list employees")
			return
		}
		identities = make([]attendance.Identity, 0, len(employees))
		for i := range employees {
			identities = append(identities, employees[i].Identity())
		}
	} else {
		employee, err := h.stores.Employees.GetByEmployeeID(r.Context(), session.EmployeeID)
		if err != nil {
			log.Printf("Failed to look up employee %s: %v", sanitizeForLog(session.EmployeeID), err)
			respondError(w, http.StatusInternalServerError, "failed to look up employee")
			return
		}
		if employee == nil {
			respondError(w, http.StatusNotFound, "employee not found")
			return
		}
		identities = []attendance.Identity{employee.Identity()}
	}

	if q := r.URL.Query().Get("q"); q != "" {
		identities = filterByName(identities, q)
	}

	start, end := trailingRange(days)
	h.reconcileAndRespond(w, r, identities, start, end)
}

// filterByName keeps identities whose normalized display name or employee
// ID contains the normalized query.
func filterByName(identities []attendance.Identity, q string) []attendance.Identity {
	needle := attendance.NormalizeName(q)
	filtered := make([]attendance.Identity, 0, len(identities))
	for _, identity := range identities {
		name := attendance.NormalizeName(identity.DisplayName())
		if strings.Contains(name, needle) ||
			strings.Contains(strings.ToLower(identity.EmployeeID), strings.ToLower(q)) {
			filtered = append(filtered, identity)
		}
	}
	return filtered
}
