// Package service wires the telemetry module to the MQTT ingest path:
// every uplink envelope is decoded, its device auto-registered, and
// the reading stored.
package service

import (
	"log/slog"

	"aqlink/internal/modules/telemetry/repository"
	"aqlink/internal/mqtt"
)

type Service struct {
	repository repository.TelemetryRepository
	logger     *slog.Logger
}

func NewService(repository repository.TelemetryRepository, logger *slog.Logger) *Service {
	return &Service{repository: repository, logger: logger}
}

func (s *Service) Register(subscriber mqtt.UplinkSubscriber) {
	registerMQTTHandler(subscriber, s.repository, s.logger)
}
