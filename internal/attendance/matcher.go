package attendance

import (
	"math"
	"sort"
)

// Candidate pairs an employee ID with its stored face encoding.
type Candidate struct {
	EmployeeID string
	Encoding   []float32
}

// EuclideanDistance computes the Euclidean distance between two encodings.
// Mismatched or empty vectors yield +Inf so they never match.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// Match compares a probe encoding against all candidates and returns the
// employee ID of the first candidate within tolerance. Candidates are
// scanned in ascending employee ID order so the result is stable regardless
// of the order the store returned them in. Returns ok=false when no
// candidate is within tolerance; the caller reports that as an ordinary
// "not recognized" result, not an error.
func Match(probe []float32, candidates []Candidate, tolerance float64) (string, bool) {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].EmployeeID < sorted[j].EmployeeID
	})

	for _, c := range sorted {
		if EuclideanDistance(probe, c.Encoding) <= tolerance {
			return c.EmployeeID, true
		}
	}
	return "", false
}
