package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/recognize"
)

// FaceHandler handles face (re)registration for existing identities.
type FaceHandler struct {
	encoder      recognize.Encoder // nil when the capability is unavailable
	stores       database.Stores
	dedup        *database.DuplicateIndex
	imagesDir    string
	tolerance    float64
	maxImageSize int
}

// NewFaceHandler creates a new face registration handler.
func NewFaceHandler(encoder recognize.Encoder, stores database.Stores, dedup *database.DuplicateIndex, imagesDir string, tolerance float64, maxImageSize int) *FaceHandler {
	return &FaceHandler{
		encoder:      encoder,
		stores:       stores,
		dedup:        dedup,
		imagesDir:    imagesDir,
		tolerance:    tolerance,
		maxImageSize: maxImageSize,
	}
}

// registerRequest carries the captured face as a base64 data URL.
type registerRequest struct {
	Image string `json:"image"`
}

// RegisterResponse reports the registration outcome. Encoded is false when
// the encoder is unavailable and only the image was stored; Warning flags a
// new encoding sitting within matching tolerance of another employee.
type RegisterResponse struct {
	Status   string `json:"status"`
	Employee string `json:"employee"`
	Encoded  bool   `json:"encoded"`
	Image    string `json:"image,omitempty"`
	Warning  string `json:"warning,omitempty"`
}

// Register stores a face capture for an employee and computes its encoding
// when the capability is present. Without the encoder, registration
// degrades to storing the image only; the backfill command can encode it
// later.
func (h *FaceHandler) Register(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

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

	var req registerRequest
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

	var encoding []float32
	warning := ""
	if h.encoder != nil {
		encodings, err := h.encoder.Encode(jpegBytes)
		if err != nil {
			log.Printf("Face encoding failed for %s: %v", sanitizeForLog(employeeID), err)
			respondError(w, http.StatusInternalServerError, "face encoding failed")
			return
		}
		if len(encodings) == 0 {
			respondError(w, http.StatusBadRequest, "no face detected")
			return
		}
		encoding = encodings[0]

		if h.dedup != nil {
			if other, dist, ok := h.dedup.Nearest(encoding, employeeID); ok && dist <= h.tolerance {
				warning = fmt.Sprintf("face is within matching tolerance of employee %s", other)
				log.Printf("Duplicate face warning: %s vs %s (distance %.3f)",
					sanitizeForLog(employeeID), sanitizeForLog(other), dist)
			}
		}
	}

	imagePath, err := h.storeImage(employeeID, jpegBytes)
	if err != nil {
		log.Printf("Failed to store face image for %s: %v", sanitizeForLog(employeeID), err)
		respondError(w, http.StatusInternalServerError, "failed to store face image")
		return
	}

	if err := h.stores.Employees.UpdateFace(r.Context(), employeeID, imagePath, encoding); err != nil {
		log.Printf("Failed to update face for %s: %v", sanitizeForLog(employeeID), err)
		respondError(w, http.StatusInternalServerError, "failed to update face")
		return
	}

	if len(encoding) > 0 && h.dedup != nil {
		h.dedup.Add(employeeID, encoding)
	}

	respondJSON(w, http.StatusOK, RegisterResponse{
		Status:   "ok",
		Employee: employeeID,
		Encoded:  len(encoding) > 0,
		Image:    imagePath,
		Warning:  warning,
	})
}

// storeImage writes the normalized JPEG under the images directory with a
// unique name and returns the stored path.
func (h *FaceHandler) storeImage(employeeID string, jpegBytes []byte) (string, error) {
	if err := os.MkdirAll(h.imagesDir, 0o755); err != nil {
		return "", fmt.Errorf("creating images directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s.jpg", employeeID, uuid.NewString())
	path := filepath.Join(h.imagesDir, name)
	if err := os.WriteFile(path, jpegBytes, 0o644); err != nil {
		return "", fmt.Errorf("writing face image: %w", err)
	}
	return path, nil
}
