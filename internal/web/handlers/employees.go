package handlers

import (
	"log"
	"net/http"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// EmployeesHandler serves the identity listing.
type EmployeesHandler struct {
	stores database.Stores
}

// NewEmployeesHandler creates a new employees handler.
func NewEmployeesHandler(stores database.Stores) *EmployeesHandler {
	return &EmployeesHandler{stores: stores}
}

// EmployeeResponse is one identity row without credentials.
type EmployeeResponse struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
	Email      string `json:"email,omitempty"`
	HasFace    bool   `json:"has_face"`
	IsAdmin    bool   `json:"is_admin"`
}

// List returns every registered identity, ordered by employee ID.
func (h *EmployeesHandler) List(w http.ResponseWriter, r *http.Request) {
	employees, err := h.stores.Employees.List(r.Context())
	if err != nil {
		log.Printf("Failed to list employees: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list employees")
		return
	}

	out := make([]EmployeeResponse, 0, len(employees))
	for i := range employees {
		e := &employees[i]
		out = append(out, EmployeeResponse{
			EmployeeID: e.EmployeeID,
			Name:       e.Identity().DisplayName(),
			Department: e.Department,
			Email:      e.Email,
			HasFace:    len(e.Encoding) > 0,
			IsAdmin:    e.IsAdmin,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"employees": out,
		"count":     len(out),
	})
}
