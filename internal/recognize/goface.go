//go:build cgo

package recognize

import (
	"fmt"
	"os"

	"github.com/Kagami/go-face"
)

// GoFaceEncoder is an Encoder backed by dlib through go-face. It needs the
// dlib model files (shape_predictor_5_face_landmarks.dat,
// dlib_face_recognition_resnet_model_v1.dat, mmod_human_face_detector.dat)
// in a local directory.
type GoFaceEncoder struct {
	rec *face.Recognizer
}

// NewGoFaceEncoder loads the dlib models from modelsDir. Returns
// ErrUnavailable when the directory is not configured or does not exist, so
// the caller can degrade gracefully instead of crashing.
func NewGoFaceEncoder(modelsDir string) (*GoFaceEncoder, error) {
	if modelsDir == "" {
		return nil, ErrUnavailable
	}
	if _, err := os.Stat(modelsDir); err != nil {
		return nil, fmt.Errorf("face models directory %q: %w", modelsDir, ErrUnavailable)
	}

	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("loading face recognizer models: %w", err)
	}
	return &GoFaceEncoder{rec: rec}, nil
}

// Encode extracts one encoding per detected face. An image with no faces
// yields an empty slice, not an error.
func (e *GoFaceEncoder) Encode(imageBytes []byte) ([][]float32, error) {
	faces, err := e.rec.Recognize(imageBytes)
	if err != nil {
		return nil, fmt.Errorf("recognizing faces: %w", err)
	}

	encodings := make([][]float32, 0, len(faces))
	for _, f := range faces {
		enc := make([]float32, len(f.Descriptor))
		copy(enc, f.Descriptor[:])
		encodings = append(encodings, enc)
	}
	return encodings, nil
}

// Close releases the dlib recognizer.
func (e *GoFaceEncoder) Close() {
	if e.rec != nil {
		e.rec.Close()
	}
}
