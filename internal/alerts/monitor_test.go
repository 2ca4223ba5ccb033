package alerts

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"aqlink/internal/modules/telemetry/types"
)

type fakeSource struct {
	seen []types.DeviceLastSeen
	err  error
}

func (f *fakeSource) GetLastSeen() ([]types.DeviceLastSeen, error) { return f.seen, f.err }

type fakeNotifier struct {
	messages []string
	err      error
}

func (f *fakeNotifier) Notify(_ context.Context, text string) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, text)
	return nil
}

func newTestMonitor(source *fakeSource, notifier *fakeNotifier, now time.Time) *Monitor {
	m := NewMonitor(source, notifier, time.Minute, 10*time.Minute,
		map[string]string{"dev-01": "Roof Station"}, slog.Default())
	m.now = func() time.Time { return now }
	return m
}

func TestMonitor_AlertsOnceWhileSilent(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	source := &fakeSource{seen: []types.DeviceLastSeen{
		{DeviceID: "dev-01", LastSeen: now.Add(-15 * time.Minute)},
		{DeviceID: "dev-02", LastSeen: now.Add(-2 * time.Minute)},
	}}
	notifier := &fakeNotifier{}
	m := newTestMonitor(source, notifier, now)

	m.check(context.Background())
	m.check(context.Background())

	if len(notifier.messages) != 1 {
		t.Fatalf("got %d alerts, want 1 (no re-alert while still silent)", len(notifier.messages))
	}
	// Display name from the mapping, not the raw id.
	if got := notifier.messages[0]; got == "" || got[:12] != "Roof Station" {
		t.Errorf("alert = %q, want it to start with the display name", got)
	}
}

func TestMonitor_ReAlertsAfterRecovery(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	source := &fakeSource{seen: []types.DeviceLastSeen{
		{DeviceID: "dev-01", LastSeen: now.Add(-15 * time.Minute)},
	}}
	notifier := &fakeNotifier{}
	m := newTestMonitor(source, notifier, now)

	m.check(context.Background())

	// Device comes back, then goes silent again.
	source.seen[0].LastSeen = now.Add(-time.Minute)
	m.check(context.Background())
	source.seen[0].LastSeen = now.Add(-20 * time.Minute)
	m.check(context.Background())

	if len(notifier.messages) != 2 {
		t.Fatalf("got %d alerts, want 2 (re-alert after recovery)", len(notifier.messages))
	}
}

func TestMonitor_NotifyFailureRetries(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	source := &fakeSource{seen: []types.DeviceLastSeen{
		{DeviceID: "dev-01", LastSeen: now.Add(-15 * time.Minute)},
	}}
	notifier := &fakeNotifier{err: errors.New("telegram down")}
	m := newTestMonitor(source, notifier, now)

	m.check(context.Background())
	if m.alerted["dev-01"] {
		t.Fatal("device marked alerted although notification failed")
	}

	notifier.err = nil
	m.check(context.Background())
	if len(notifier.messages) != 1 {
		t.Fatalf("got %d alerts after notifier recovered, want 1", len(notifier.messages))
	}
	if !m.alerted["dev-01"] {
		t.Fatal("device not marked alerted after successful notification")
	}
}

func TestMonitor_UnmappedDeviceUsesID(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	source := &fakeSource{seen: []types.DeviceLastSeen{
		{DeviceID: "dev-99", LastSeen: now.Add(-time.Hour)},
	}}
	notifier := &fakeNotifier{}
	m := newTestMonitor(source, notifier, now)

	m.check(context.Background())
	if len(notifier.messages) != 1 {
		t.Fatalf("got %d alerts, want 1", len(notifier.messages))
	}
	if notifier.messages[0][:6] != "dev-99" {
		t.Errorf("alert = %q, want it to start with the device id", notifier.messages[0])
	}
}
