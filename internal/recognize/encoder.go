// Package recognize wraps the face-encoding capability: turning a captured
// image into 128-dimensional face encoding vectors. The capability is
// optional; when the dlib models are not installed the server runs without
// it and the matching endpoint reports the capability as unavailable.
package recognize

import "errors"

// ErrUnavailable indicates the face-encoding capability is not configured.
var ErrUnavailable = errors.New("face encoding capability unavailable")

// Encoder produces face encodings from an image. The returned slice holds
// one vector per detected face and is empty when no face is found; callers
// use only the first vector.
type Encoder interface {
	// Encode extracts face encodings from JPEG image bytes.
	Encode(imageBytes []byte) ([][]float32, error)
	// Close releases the underlying recognizer resources.
	Close()
}
