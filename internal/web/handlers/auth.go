package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/web/middleware"
)

var validate = validator.New()

// AuthHandler handles signup, login and session endpoints
type AuthHandler struct {
	stores         database.Stores
	sessionManager *middleware.SessionManager
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(stores database.Stores, sm *middleware.SessionManager) *AuthHandler {
	return &AuthHandler{
		stores:         stores,
		sessionManager: sm,
	}
}

// signupRequest is the registration form.
type signupRequest struct {
	Username   string `json:"username" validate:"required,min=3,max=150"`
	Password   string `json:"password" validate:"required,min=8"`
	EmployeeID string `json:"employee_id" validate:"required,max=50"`
	FirstName  string `json:"first_name" validate:"max=150"`
	LastName   string `json:"last_name" validate:"max=150"`
	Email      string `json:"email" validate:"omitempty,email"`
	Department string `json:"department" validate:"max=100"`
}

// Signup creates a new user account together with its identity row.
// Duplicate usernames or employee IDs fail validation and commit nothing.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			respondError(w, http.StatusBadRequest, "invalid field: "+verrs[0].Field())
			return
		}
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	employee := &database.Employee{
		EmployeeID:   req.EmployeeID,
		Username:     req.Username,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Department:   req.Department,
	}

	if err := h.stores.Employees.Create(r.Context(), employee); err != nil {
		if errors.Is(err, attendance.ErrDuplicateIdentity) {
			respondError(w, http.StatusConflict, "username or employee ID already taken")
			return
		}
		log.Printf("Failed to create employee %s: %v", sanitizeForLog(req.EmployeeID), err)
		respondError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	resp := SignupResponse{
		EmployeeID: employee.EmployeeID,
		Username:   employee.Username,
	}

	// Log the fresh account in right away; signup should not require a
	// separate login call.
	session, err := h.sessionManager.CreateSession(employee.EmployeeID, employee.IsAdmin)
	if err != nil {
		log.Printf("Failed to create session after signup for %s: %v", sanitizeForLog(employee.EmployeeID), err)
	} else {
		h.sessionManager.SetSessionCookie(w, session)
		resp.SessionID = session.ID
		resp.ExpiresAt = session.ExpiresAt.Format("2006-01-02T15:04:05Z")
	}

	respondJSON(w, http.StatusCreated, resp)
}

// SignupResponse reports the created account and its session.
type SignupResponse struct {
	EmployeeID string `json:"employee_id"`
	Username   string `json:"username"`
	SessionID  string `json:"session_id,omitempty"`
	ExpiresAt  string `json:"expires_at,omitempty"`
}

// loginRequest represents a login request
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
	IsAdmin   bool   `json:"is_admin,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	// Require both username and password
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	employee, err := h.stores.Employees.GetByUsername(r.Context(), req.Username)
	if err != nil {
		log.Printf("Failed to look up user %s: %v", sanitizeForLog(req.Username), err)
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if employee == nil || bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(req.Password)) != nil {
		respondJSON(w, http.StatusUnauthorized, LoginResponse{
			Success: false,
			Error:   "invalid credentials",
		})
		return
	}

	// Create session
	session, err := h.sessionManager.CreateSession(employee.EmployeeID, employee.IsAdmin)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	// Set session cookie
	h.sessionManager.SetSessionCookie(w, session)

	respondJSON(w, http.StatusOK, LoginResponse{
		Success:   true,
		SessionID: session.ID,
		IsAdmin:   session.IsAdmin,
		ExpiresAt: session.ExpiresAt.Format("2006-01-02T15:04:05Z"),
	})
}

// Logout handles user logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := h.sessionManager.GetSessionFromRequest(r)
	if session != nil {
		h.sessionManager.DeleteSession(session.ID)
	}

	h.sessionManager.ClearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// StatusResponse represents the auth status response
type StatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	EmployeeID    string `json:"employee_id,omitempty"`
	IsAdmin       bool   `json:"is_admin,omitempty"`
	ExpiresAt     string `json:"expires_at,omitempty"`
}

// Status checks if the user is authenticated by validating the session.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	session := h.sessionManager.GetSessionFromRequest(r)
	if session == nil {
		respondJSON(w, http.StatusOK, StatusResponse{Authenticated: false})
		return
	}
	respondJSON(w, http.StatusOK, StatusResponse{
		Authenticated: true,
		EmployeeID:    session.EmployeeID,
		IsAdmin:       session.IsAdmin,
		ExpiresAt:     session.ExpiresAt.Format("2006-01-02T15:04:05Z"),
	})
}
