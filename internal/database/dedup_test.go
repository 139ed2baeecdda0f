package database

import "testing"

func enc(v float32) []float32 {
	e := make([]float32, 128)
	for i := range e {
		e[i] = v
	}
	return e
}

func TestDuplicateIndex_Nearest(t *testing.T) {
	idx := NewDuplicateIndex([]Employee{
		{EmployeeID: "E001", Encoding: enc(0)},
		{EmployeeID: "E002", Encoding: enc(5)},
		{EmployeeID: "E003"}, // no encoding, not indexed
	})

	if idx.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", idx.Count())
	}

	probe := enc(0)
	probe[0] = 0.2

	id, dist, ok := idx.Nearest(probe, "")
	if !ok {
		t.Fatal("expected a nearest neighbor")
	}
	if id != "E001" {
		t.Errorf("nearest = %q, want E001", id)
	}
	if dist < 0.19 || dist > 0.21 {
		t.Errorf("distance = %v, want ~0.2", dist)
	}
}

func TestDuplicateIndex_ExcludesSelf(t *testing.T) {
	idx := NewDuplicateIndex([]Employee{
		{EmployeeID: "E001", Encoding: enc(0)},
		{EmployeeID: "E002", Encoding: enc(5)},
	})

	id, _, ok := idx.Nearest(enc(0), "E001")
	if !ok {
		t.Fatal("expected a neighbor other than E001")
	}
	if id != "E002" {
		t.Errorf("nearest = %q, want E002", id)
	}
}

func TestDuplicateIndex_Empty(t *testing.T) {
	idx := NewDuplicateIndex(nil)

	if _, _, ok := idx.Nearest(enc(0), ""); ok {
		t.Error("expected no neighbor from empty index")
	}
}

func TestDuplicateIndex_Add(t *testing.T) {
	idx := NewDuplicateIndex(nil)
	idx.Add("E009", enc(1))
	idx.Add("E010", nil) // ignored

	if idx.Count() != 1 {
		t.Errorf("Count() = %d, want 1", idx.Count())
	}
	if id, _, ok := idx.Nearest(enc(1), ""); !ok || id != "E009" {
		t.Errorf("Nearest = (%q, %v), want (E009, true)", id, ok)
	}
}
