package device

import (
	"context"
	"log/slog"
	"time"

	"aqlink/internal/radio"
	"aqlink/internal/uplink"
	"aqlink/internal/utils"
	"aqlink/internal/wire"
)

// Publisher is the transport slice the loop needs; satisfied by
// mqtt.Client.
type Publisher interface {
	PublishUplink(env uplink.Envelope) error
}

// Loop is the device's single transmission loop: sample, encode,
// publish, advance. Sequencer state and the packet counter are plain
// values owned by the loop; there is exactly one loop per device and
// no overlapping transmissions.
type Loop struct {
	cfg    Config
	plan   radio.Plan
	source *Source
	pub    Publisher
	logger *slog.Logger

	state radio.State
	seq   uint32

	now func() time.Time
}

func NewLoop(cfg Config, plan radio.Plan, source *Source, pub Publisher, logger *slog.Logger) *Loop {
	return &Loop{
		cfg:    cfg,
		plan:   plan,
		source: source,
		pub:    pub,
		logger: logger,
		now:    time.Now,
	}
}

// Run transmits once per SendInterval until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("transmission loop started",
		"device_id", l.cfg.DeviceID,
		"interval", l.cfg.SendInterval,
	)

	ticker := time.NewTicker(l.cfg.SendInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("transmission loop stopped")
			return ctx.Err()
		case <-ticker.C:
			l.transmit()
		}
	}
}

// transmit performs one attempt. The sequencer advances whether or
// not the publish succeeded; the policy counts attempts, and the
// counter increments regardless so the backend can see the gap.
func (l *Loop) transmit() {
	now := l.now()
	sample := l.source.Sample(now)

	payload := wire.Encode(sample.Readings, l.seq)
	for i, missing := range sample.Missing {
		if missing {
			markMissing(&payload, i)
		}
	}

	profile := l.plan.Profile(l.state)
	env := uplink.Envelope{
		DeviceID: l.cfg.DeviceID,
		SentAt:   now,
		DataRate: profile.DataRate(),
		Size:     len(payload),
		Data:     payload[:],
	}

	if err := l.pub.PublishUplink(env); err != nil {
		l.logger.Warn("uplink publish failed",
			"seq", l.seq,
			"datr", profile.DataRate(),
			"error", err,
		)
	} else {
		l.logger.Debug("uplink sent",
			"seq", l.seq,
			"datr", profile.DataRate(),
			"payload", utils.BytesToHex(payload[:]),
		)
	}

	l.state = l.state.Next()
	l.seq++
}

// markMissing overwrites one channel field with the no-data sentinel.
// This happens outside the codec: the encoder serializes what it is
// given, and the device writes the reserved pattern for sensors that
// failed to read.
func markMissing(payload *[wire.PayloadLen]byte, channel int) {
	payload[2*channel] = 0xFF
	payload[2*channel+1] = 0xFF
}
