package database

import (
	"sync"

	"github.com/coder/hnsw"

	"github.com/kozaktomas/face-attendance/internal/attendance"
)

// hnswMaxNeighbors (M) is the maximum number of neighbors per node.
const hnswMaxNeighbors = 16

// DuplicateIndex is an in-memory HNSW index over stored face encodings,
// keyed by employee ID. Registration uses it to warn when a freshly
// captured face sits within matching tolerance of a different employee's
// stored encoding, which would make check-ins ambiguous.
type DuplicateIndex struct {
	graph *hnsw.Graph[string]
	count int
	mu    sync.RWMutex
}

// NewDuplicateIndex builds the index from all employees with a stored encoding.
func NewDuplicateIndex(employees []Employee) *DuplicateIndex {
	g := hnsw.NewGraph[string]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors)
	g.Distance = hnsw.EuclideanDistance

	idx := &DuplicateIndex{graph: g}
	for i := range employees {
		if len(employees[i].Encoding) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(employees[i].EmployeeID, employees[i].Encoding))
		idx.count++
	}
	return idx
}

// Add inserts or replaces an employee's encoding.
func (d *DuplicateIndex) Add(employeeID string, encoding []float32) {
	if len(encoding) == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.graph.Lookup(employeeID); !ok {
		d.count++
	}
	d.graph.Add(hnsw.MakeNode(employeeID, encoding))
}

// Count returns the number of indexed encodings.
func (d *DuplicateIndex) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.count
}

// Nearest returns the employee whose stored encoding is closest to the
// probe, excluding excludeID (the employee being registered). ok is false
// when the index holds no other encodings.
func (d *DuplicateIndex) Nearest(probe []float32, excludeID string) (string, float64, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	// Ask for a couple of neighbors so the excluded employee's own old
	// encoding does not mask the nearest other one.
	neighbors := d.graph.Search(probe, 3)
	for _, n := range neighbors {
		if n.Key == excludeID {
			continue
		}
		return n.Key, attendance.EuclideanDistance(probe, n.Value), true
	}
	return "", 0, false
}
