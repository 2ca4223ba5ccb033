package service

import (
	"log/slog"

	"aqlink/internal/modules/telemetry/repository"
	"aqlink/internal/modules/telemetry/types"
	"aqlink/internal/mqtt"
	"aqlink/internal/uplink"
	"aqlink/internal/wire"
)

// registerMQTTHandler sets up the telemetry module's MQTT message handler
func registerMQTTHandler(subscriber mqtt.UplinkSubscriber, repo repository.TelemetryRepository, logger *slog.Logger) {
	subscriber.SetMessageHandler(func(env uplink.Envelope) error {
		logger.Debug("processing uplink",
			"device_id", env.DeviceID,
			"sent_at", env.SentAt,
			"size", len(env.Data),
		)

		rec, err := wire.Decode(env.Data)
		if err != nil {
			logger.Warn("failed to decode payload",
				"device_id", env.DeviceID,
				"size", len(env.Data),
				"error", err,
			)
			return err
		}

		// Devices announce themselves by transmitting; first contact
		// registers them.
		if err := repo.EnsureDevice(env.DeviceID); err != nil {
			logger.Error("failed to register device",
				"device_id", env.DeviceID,
				"error", err,
			)
			return err
		}

		reading := types.Reading{
			DeviceID:      env.DeviceID,
			Time:          env.SentAt,
			Seq:           int64(rec.Seq),
			DataRate:      env.DataRate,
			PressureHPa:   channelValue(rec.Pressure),
			GasPPM:        channelValue(rec.Gas),
			TemperatureC:  channelValue(rec.Temperature),
			HumidityPct:   channelValue(rec.Humidity),
			ParticulateUg: channelValue(rec.Particulate),
		}

		if err := repo.InsertReading(reading); err != nil {
			logger.Error("failed to insert reading",
				"device_id", env.DeviceID,
				"seq", rec.Seq,
				"error", err,
			)
			return err
		}

		logger.Debug("successfully stored uplink",
			"device_id", env.DeviceID,
			"seq", rec.Seq,
		)
		return nil
	})
}

// channelValue maps a decoded channel to its stored form: nil for the
// sentinel, the value otherwise. A genuine zero stays a zero.
func channelValue(ch wire.Channel) *float64 {
	if !ch.Valid {
		return nil
	}
	v := ch.Value
	return &v
}
