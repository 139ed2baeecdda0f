package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/recognize"
)

// RecognizeHandler handles the webcam capture endpoint: image in,
// recorded check-in out.
type RecognizeHandler struct {
	encoder      recognize.Encoder // nil when the capability is unavailable
	stores       database.Stores
	ledger       *attendance.Ledger
	tolerance    float64
	maxImageSize int
}

// NewRecognizeHandler creates a new recognize handler.
func NewRecognizeHandler(encoder recognize.Encoder, stores database.Stores, ledger *attendance.Ledger, tolerance float64, maxImageSize int) *RecognizeHandler {
	return &RecognizeHandler{
		encoder:      encoder,
		stores:       stores,
		ledger:       ledger,
		tolerance:    tolerance,
		maxImageSize: maxImageSize,
	}
}

// recognizeRequest carries the captured frame as a base64 data URL.
type recognizeRequest struct {
	Image string `json:"image"`
}

// RecognizeResponse reports the outcome of a capture.
type RecognizeResponse struct {
	Status    string `json:"status"`
	Employee  string `json:"employee,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	CheckIn   string `json:"check_in,omitempty"`
	Date      string `json:"date,omitempty"`
	Created   bool   `json:"created,omitempty"`
}

// Recognize matches a captured face against registered encodings and
// records today's check-in for the matched employee.
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	if h.encoder == nil {
		respondError(w, http.StatusServiceUnavailable, "face recognition is unavailable")
		return
	}

	var req recognizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	raw, err := recognize.DecodeDataURL(req.Image)
	if err != nil {
		respondError(w, http.StatusBadRequest, "no image provided")
		return
	}

	jpegBytes, err := recognize.NormalizeJPEG(raw, h.maxImageSize)
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not decode image")
		return
	}

	encodings, err := h.encoder.Encode(jpegBytes)
	if err != nil {
		log.Printf("Face encoding failed: %v", err)
		respondError(w, http.StatusInternalServerError, "face encoding failed")
		return
	}
	if len(encodings) == 0 {
		respondError(w, http.StatusBadRequest, "no face detected")
		return
	}

	// Multiple faces in frame: only the first is considered.
	probe := encodings[0]

	employees, err := h.stores.Employees.ListWithEncoding(r.Context())
	if err != nil {
		log.Printf("Failed to load encodings: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load registered faces")
		return
	}

	employeeID, ok := attendance.Match(probe, database.Candidates(employees), h.tolerance)
	if !ok {
		respondJSON(w, http.StatusNotFound, RecognizeResponse{Status: "no_match"})
		return
	}

	record, created, err := h.ledger.RecordCheckIn(r.Context(), employeeID, time.Now())
	if err != nil {
		// A matched encoding whose identity row vanished is a server-side
		// inconsistency, not a client error.
		if errors.Is(err, attendance.ErrIdentityNotFound) {
			log.Printf("Matched unknown identity %s", sanitizeForLog(employeeID))
			respondError(w, http.StatusInternalServerError, "matched identity no longer exists")
			return
		}
		log.Printf("Failed to record check-in for %s: %v", sanitizeForLog(employeeID), err)
		respondError(w, http.StatusInternalServerError, "failed to record check-in")
		return
	}

	firstName := ""
	if employee, err := h.stores.Employees.GetByEmployeeID(r.Context(), employeeID); err == nil && employee != nil {
		firstName = employee.FirstName
	}

	respondJSON(w, http.StatusOK, RecognizeResponse{
		Status:    "ok",
		Employee:  employeeID,
		FirstName: firstName,
		CheckIn:   record.CheckIn,
		Date:      record.Date.Format(attendance.DateLayout),
		Created:   created,
	})
}
