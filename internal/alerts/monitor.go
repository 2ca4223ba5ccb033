package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"aqlink/internal/modules/telemetry/types"
)

// LastSeenSource is the slice of the telemetry repository the monitor
// needs.
type LastSeenSource interface {
	GetLastSeen() ([]types.DeviceLastSeen, error)
}

// Monitor periodically checks when each device last uplinked. A device
// silent for longer than SilenceAfter triggers one alert; it will not
// be alerted again until it has been seen transmitting first.
type Monitor struct {
	source   LastSeenSource
	notifier Notifier
	logger   *slog.Logger

	interval     time.Duration
	silenceAfter time.Duration

	// names maps device ids to operator-friendly display names.
	names map[string]string

	// alerted tracks devices currently in the silent-alerted state.
	alerted map[string]bool

	now func() time.Time
}

func NewMonitor(source LastSeenSource, notifier Notifier, interval, silenceAfter time.Duration, names map[string]string, logger *slog.Logger) *Monitor {
	return &Monitor{
		source:       source,
		notifier:     notifier,
		logger:       logger,
		interval:     interval,
		silenceAfter: silenceAfter,
		names:        names,
		alerted:      make(map[string]bool),
		now:          time.Now,
	}
}

// Run checks on every tick until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("stale-device monitor started",
		"interval", m.interval,
		"silence_after", m.silenceAfter,
	)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("stale-device monitor stopped")
			return ctx.Err()
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *Monitor) check(ctx context.Context) {
	seen, err := m.source.GetLastSeen()
	if err != nil {
		m.logger.Error("failed to query last-seen state", "error", err)
		return
	}

	now := m.now()
	for _, d := range seen {
		silentFor := now.Sub(d.LastSeen)
		if silentFor > m.silenceAfter {
			if m.alerted[d.DeviceID] {
				continue
			}
			text := fmt.Sprintf("%s has not logged since %s (%s ago)",
				m.displayName(d.DeviceID),
				d.LastSeen.UTC().Format(time.RFC3339),
				silentFor.Round(time.Second),
			)
			if err := m.notifier.Notify(ctx, text); err != nil {
				// Not marked alerted, retried on the next tick.
				m.logger.Error("failed to send alert",
					"device_id", d.DeviceID,
					"error", err,
				)
				continue
			}
			m.alerted[d.DeviceID] = true
			m.logger.Warn("device silent",
				"device_id", d.DeviceID,
				"last_seen", d.LastSeen,
				"silent_for", silentFor,
			)
		} else if m.alerted[d.DeviceID] {
			delete(m.alerted, d.DeviceID)
			m.logger.Info("device recovered",
				"device_id", d.DeviceID,
				"last_seen", d.LastSeen,
			)
		}
	}
}

func (m *Monitor) displayName(deviceID string) string {
	if name, ok := m.names[deviceID]; ok {
		return name
	}
	return deviceID
}
