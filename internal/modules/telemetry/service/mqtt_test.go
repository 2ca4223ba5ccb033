package service

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"aqlink/internal/modules/telemetry/types"
	"aqlink/internal/uplink"
	"aqlink/internal/wire"
)

type fakeSubscriber struct {
	handler func(env uplink.Envelope) error
}

func (f *fakeSubscriber) SetMessageHandler(handler func(env uplink.Envelope) error) {
	f.handler = handler
}

type fakeRepo struct {
	devices  map[string]bool
	readings []types.Reading
	failWith error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{devices: make(map[string]bool)}
}

func (f *fakeRepo) GetDevices() ([]types.Device, error) { return nil, nil }
func (f *fakeRepo) EnsureDevice(id string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.devices[id] = true
	return nil
}
func (f *fakeRepo) InsertReading(r types.Reading) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.readings = append(f.readings, r)
	return nil
}
func (f *fakeRepo) GetLatestReadings(string, int) ([]types.Reading, error) { return nil, nil }
func (f *fakeRepo) GetReadings(string, time.Time, time.Time, int) ([]types.Reading, error) {
	return nil, nil
}
func (f *fakeRepo) GetLastSeen() ([]types.DeviceLastSeen, error) { return nil, nil }

func setup(t *testing.T, repo *fakeRepo) *fakeSubscriber {
	t.Helper()
	sub := &fakeSubscriber{}
	svc := NewService(repo, slog.Default())
	svc.Register(sub)
	if sub.handler == nil {
		t.Fatal("Register did not set a message handler")
	}
	return sub
}

func TestHandler_StoresDecodedUplink(t *testing.T) {
	repo := newFakeRepo()
	sub := setup(t, repo)

	payload := wire.Encode(wire.Readings{
		PressureHPa:   10.13,
		GasPPM:        450,
		TemperatureC:  22.50,
		HumidityPct:   55.00,
		ParticulateUg: 12.30,
	}, 7)

	sentAt := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	err := sub.handler(uplink.Envelope{
		DeviceID: "dev-01",
		SentAt:   sentAt,
		DataRate: "SF9BW125",
		Data:     payload[:],
	})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	if !repo.devices["dev-01"] {
		t.Error("device was not auto-registered")
	}
	if len(repo.readings) != 1 {
		t.Fatalf("got %d readings, want 1", len(repo.readings))
	}
	rec := repo.readings[0]
	if rec.Seq != 7 {
		t.Errorf("seq = %d, want 7", rec.Seq)
	}
	if rec.DataRate != "SF9BW125" {
		t.Errorf("data rate = %q, want SF9BW125", rec.DataRate)
	}
	if !rec.Time.Equal(sentAt) {
		t.Errorf("time = %v, want %v", rec.Time, sentAt)
	}
	if rec.PressureHPa == nil || *rec.PressureHPa != 10.13 {
		t.Errorf("pressure = %v, want 10.13", rec.PressureHPa)
	}
	if rec.GasPPM == nil || *rec.GasPPM != 450 {
		t.Errorf("gas = %v, want 450", rec.GasPPM)
	}
}

func TestHandler_SentinelChannelStoredAsNil(t *testing.T) {
	repo := newFakeRepo()
	sub := setup(t, repo)

	payload := wire.Encode(wire.Readings{TemperatureC: 21.0}, 3)
	// Humidity field carries the no-data sentinel.
	payload[6], payload[7] = 0xFF, 0xFF

	if err := sub.handler(uplink.Envelope{
		DeviceID: "dev-01",
		SentAt:   time.Now(),
		Data:     payload[:],
	}); err != nil {
		t.Fatalf("handler: %v", err)
	}

	rec := repo.readings[0]
	if rec.HumidityPct != nil {
		t.Errorf("humidity = %v, want nil for sentinel", *rec.HumidityPct)
	}
	if rec.TemperatureC == nil || *rec.TemperatureC != 21.0 {
		t.Errorf("temperature = %v, want 21.0", rec.TemperatureC)
	}
}

func TestHandler_TruncatedPayloadRejected(t *testing.T) {
	repo := newFakeRepo()
	sub := setup(t, repo)

	err := sub.handler(uplink.Envelope{
		DeviceID: "dev-01",
		SentAt:   time.Now(),
		Data:     make([]byte, 13),
	})
	if !errors.Is(err, wire.ErrTruncatedPayload) {
		t.Fatalf("err = %v, want ErrTruncatedPayload", err)
	}
	if len(repo.devices) != 0 || len(repo.readings) != 0 {
		t.Error("truncated payload must not register a device or store a reading")
	}
}

func TestHandler_RepositoryErrorPropagates(t *testing.T) {
	repo := newFakeRepo()
	repo.failWith = errors.New("disk full")
	sub := setup(t, repo)

	payload := wire.Encode(wire.Readings{}, 1)
	err := sub.handler(uplink.Envelope{
		DeviceID: "dev-01",
		SentAt:   time.Now(),
		Data:     payload[:],
	})
	if err == nil {
		t.Fatal("handler succeeded, want repository error")
	}
}
