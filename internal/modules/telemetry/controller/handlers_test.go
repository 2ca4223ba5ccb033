package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aqlink/internal/modules/telemetry/types"
)

type stubRepo struct {
	devices  []types.Device
	readings []types.Reading
	err      error
}

func (s *stubRepo) GetDevices() ([]types.Device, error) { return s.devices, s.err }
func (s *stubRepo) EnsureDevice(string) error           { return s.err }
func (s *stubRepo) InsertReading(types.Reading) error   { return s.err }
func (s *stubRepo) GetLatestReadings(string, int) ([]types.Reading, error) {
	return s.readings, s.err
}
func (s *stubRepo) GetReadings(string, time.Time, time.Time, int) ([]types.Reading, error) {
	return s.readings, s.err
}
func (s *stubRepo) GetLastSeen() ([]types.DeviceLastSeen, error) { return nil, s.err }

func newTestMux(repo *stubRepo) *http.ServeMux {
	mux := http.NewServeMux()
	NewTelemetryController(repo).RegisterRoutes(mux)
	return mux
}

func TestHandleDevices(t *testing.T) {
	repo := &stubRepo{devices: []types.Device{{ID: "dev-01", Name: "roof"}}}
	mux := newTestMux(repo)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/devices", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got []types.Device
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(got) != 1 || got[0].ID != "dev-01" {
		t.Errorf("body = %+v, want one device dev-01", got)
	}
}

func TestHandleLatest(t *testing.T) {
	v := 22.5
	repo := &stubRepo{readings: []types.Reading{{DeviceID: "dev-01", Seq: 7, TemperatureC: &v}}}
	mux := newTestMux(repo)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/devices/dev-01/latest", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got []types.Reading
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(got) != 1 || got[0].Seq != 7 {
		t.Errorf("body = %+v, want one reading with seq 7", got)
	}
}

func TestHandleLatest_BadLimit(t *testing.T) {
	mux := newTestMux(&stubRepo{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/devices/dev-01/latest?limit=bogus", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleReadings_RepoError(t *testing.T) {
	mux := newTestMux(&stubRepo{err: errors.New("db closed")})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/devices/dev-01/readings", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestHandleReadings_NullChannelsInJSON(t *testing.T) {
	v := 0.0
	repo := &stubRepo{readings: []types.Reading{{
		DeviceID:     "dev-01",
		Seq:          1,
		TemperatureC: &v,
		// humidity absent: sentinel on the wire, null in the API
	}}}
	mux := newTestMux(repo)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/devices/dev-01/readings", nil))

	var got []map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got[0]["humidityPct"] != nil {
		t.Errorf("humidityPct = %v, want null", got[0]["humidityPct"])
	}
	if temp, ok := got[0]["temperatureC"].(float64); !ok || temp != 0 {
		t.Errorf("temperatureC = %v, want genuine 0", got[0]["temperatureC"])
	}
}
