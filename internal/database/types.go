package database

import (
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
)

// Employee is a stored identity row: login credentials, identifying
// metadata, and the optional face encoding.
type Employee struct {
	ID           int64
	EmployeeID   string // unique, stable
	Username     string // unique login name
	PasswordHash string // bcrypt
	FirstName    string
	LastName     string
	Email        string
	Department   string
	Encoding     []float32 // nil until face registration completes
	FaceImage    string    // path of the stored capture, empty if none
	IsAdmin      bool
	CreatedAt    time.Time
}

// Identity converts the stored row to the domain identity.
func (e *Employee) Identity() attendance.Identity {
	return attendance.Identity{
		EmployeeID: e.EmployeeID,
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		Department: e.Department,
		Encoding:   e.Encoding,
	}
}

// Candidates converts employees with stored encodings to matcher candidates.
// Employees without an encoding are skipped; they can never be matched.
func Candidates(employees []Employee) []attendance.Candidate {
	candidates := make([]attendance.Candidate, 0, len(employees))
	for i := range employees {
		if len(employees[i].Encoding) == 0 {
			continue
		}
		candidates = append(candidates, attendance.Candidate{
			EmployeeID: employees[i].EmployeeID,
			Encoding:   employees[i].Encoding,
		})
	}
	return candidates
}
