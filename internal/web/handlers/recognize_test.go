package handlers

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database"
)

func recognizeHandler(stores database.Stores, encodings [][]float32) *RecognizeHandler {
	ledger := attendance.NewLedger(database.NewLedgerStore(stores))
	return NewRecognizeHandler(&stubEncoder{encodings: encodings}, stores, ledger, attendance.DefaultTolerance, 1280)
}

func TestRecognize_Match(t *testing.T) {
	stores, employees, records := testStores()
	employees.Add(database.Employee{EmployeeID: "EMP001", Username: "jana", FirstName: "Jana", Encoding: encodingAt(1.0)})
	employees.Add(database.Employee{EmployeeID: "EMP002", Username: "petr", FirstName: "Petr", Encoding: encodingAt(5.0)})

	// Probe near EMP002's stored encoding.
	h := recognizeHandler(stores, [][]float32{encodingAt(5.1)})

	w := httptest.NewRecorder()
	h.Recognize(w, jsonRequest(t, "POST", "/api/v1/recognize", map[string]string{"image": testDataURL(t)}))

	assertStatusCode(t, w, 200)

	var resp RecognizeResponse
	parseJSONResponse(t, w, &resp)
	if resp.Status != "ok" {
		t.Errorf("Status = %s, want ok", resp.Status)
	}
	if resp.Employee != "EMP002" {
		t.Errorf("Employee = %s, want EMP002", resp.Employee)
	}
	if resp.FirstName != "Petr" {
		t.Errorf("FirstName = %s, want Petr", resp.FirstName)
	}
	if !resp.Created {
		t.Error("Created = false, want true for the first check-in of the day")
	}
	if records.Count() != 1 {
		t.Errorf("stored records = %d, want 1", records.Count())
	}
}

func TestRecognize_RepeatKeepsFirstCheckIn(t *testing.T) {
	stores, employees, records := testStores()
	employees.Add(database.Employee{EmployeeID: "EMP001", Username: "jana", Encoding: encodingAt(1.0)})
	h := recognizeHandler(stores, [][]float32{encodingAt(1.0)})

	w := httptest.NewRecorder()
	h.Recognize(w, jsonRequest(t, "POST", "/api/v1/recognize", map[string]string{"image": testDataURL(t)}))
	assertStatusCode(t, w, 200)

	var first RecognizeResponse
	parseJSONResponse(t, w, &first)

	w = httptest.NewRecorder()
	h.Recognize(w, jsonRequest(t, "POST", "/api/v1/recognize", map[string]string{"image": testDataURL(t)}))
	assertStatusCode(t, w, 200)

	var second RecognizeResponse
	parseJSONResponse(t, w, &second)
	if second.Created {
		t.Error("Created = true on repeat check-in, want false")
	}
	if second.CheckIn != first.CheckIn {
		t.Errorf("repeat check-in moved the time: %s -> %s", first.CheckIn, second.CheckIn)
	}
	if records.Count() != 1 {
		t.Errorf("stored records = %d, want 1", records.Count())
	}
}

func TestRecognize_NoMatch(t *testing.T) {
	stores, employees, records := testStores()
	employees.Add(database.Employee{EmployeeID: "EMP001", Username: "jana", Encoding: encodingAt(1.0)})

	// Probe far away from every stored encoding.
	h := recognizeHandler(stores, [][]float32{encodingAt(9.0)})

	w := httptest.NewRecorder()
	h.Recognize(w, jsonRequest(t, "POST", "/api/v1/recognize", map[string]string{"image": testDataURL(t)}))

	assertStatusCode(t, w, 404)

	var resp RecognizeResponse
	parseJSONResponse(t, w, &resp)
	if resp.Status != "no_match" {
		t.Errorf("Status = %s, want no_match", resp.Status)
	}
	if records.Count() != 0 {
		t.Error("no-match capture must not create a record")
	}
}

func TestRecognize_NoFaceDetected(t *testing.T) {
	stores, _, _ := testStores()
	h := recognizeHandler(stores, [][]float32{})

	w := httptest.NewRecorder()
	h.Recognize(w, jsonRequest(t, "POST", "/api/v1/recognize", map[string]string{"image": testDataURL(t)}))

	assertStatusCode(t, w, 400)
	assertJSONError(t, w, "no face detected")
}

func TestRecognize_NoImage(t *testing.T) {
	stores, _, _ := testStores()
	h := recognizeHandler(stores, [][]float32{encodingAt(1.0)})

	w := httptest.NewRecorder()
	h.Recognize(w, jsonRequest(t, "POST", "/api/v1/recognize", map[string]string{"image": ""}))

	assertStatusCode(t, w, 400)
	assertJSONError(t, w, "no image provided")
}

func TestRecognize_EncoderUnavailable(t *testing.T) {
	stores, _, _ := testStores()
	ledger := attendance.NewLedger(database.NewLedgerStore(stores))
	h := NewRecognizeHandler(nil, stores, ledger, attendance.DefaultTolerance, 1280)

	w := httptest.NewRecorder()
	h.Recognize(w, jsonRequest(t, "POST", "/api/v1/recognize", map[string]string{"image": testDataURL(t)}))

	assertStatusCode(t, w, 503)
}

func TestRecognize_EncoderError(t *testing.T) {
	stores, _, _ := testStores()
	ledger := attendance.NewLedger(database.NewLedgerStore(stores))
	encoder := &stubEncoder{err: errors.New("dlib exploded")}
	h := NewRecognizeHandler(encoder, stores, ledger, attendance.DefaultTolerance, 1280)

	w := httptest.NewRecorder()
	h.Recognize(w, jsonRequest(t, "POST", "/api/v1/recognize", map[string]string{"image": testDataURL(t)}))

	assertStatusCode(t, w, 500)
}

func TestRecognize_DeterministicTieBreak(t *testing.T) {
	stores, employees, _ := testStores()
	// Two employees sharing an identical stored encoding; the lower
	// employee ID must win every time.
	employees.Add(database.Employee{EmployeeID: "EMP200", Username: "b", Encoding: encodingAt(2.0)})
	employees.Add(database.Employee{EmployeeID: "EMP100", Username: "a", Encoding: encodingAt(2.0)})

	h := recognizeHandler(stores, [][]float32{encodingAt(2.0)})

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		h.Recognize(w, jsonRequest(t, "POST", "/api/v1/recognize", map[string]string{"image": testDataURL(t)}))
		assertStatusCode(t, w, 200)

		var resp RecognizeResponse
		parseJSONResponse(t, w, &resp)
		if resp.Employee != "EMP100" {
			t.Fatalf("attempt %d matched %s, want EMP100", i, resp.Employee)
		}
	}
}
