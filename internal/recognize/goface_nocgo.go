//go:build !cgo

package recognize

import "fmt"

// GoFaceEncoder is an Encoder backed by dlib through go-face. go-face is a
// cgo binding, so without cgo the capability is unavailable.
type GoFaceEncoder struct{}

// NewGoFaceEncoder reports the face-encoding capability as unavailable in
// builds without cgo, so the caller can degrade gracefully instead of
// crashing.
func NewGoFaceEncoder(modelsDir string) (*GoFaceEncoder, error) {
	return nil, fmt.Errorf("face encoding requires a cgo build: %w", ErrUnavailable)
}

// Encode extracts one encoding per detected face.
func (e *GoFaceEncoder) Encode(imageBytes []byte) ([][]float32, error) {
	return nil, ErrUnavailable
}

// Close releases the dlib recognizer.
func (e *GoFaceEncoder) Close() {}
