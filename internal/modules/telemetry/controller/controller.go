package controller

import (
	"net/http"

	"aqlink/internal/modules/telemetry/repository"
)

type TelemetryController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type telemetryControllerImpl struct {
	repository repository.TelemetryRepository
}

func NewTelemetryController(repository repository.TelemetryRepository) TelemetryController {
	return &telemetryControllerImpl{repository: repository}
}

func (c *telemetryControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/devices", c.handleDevices)
	mux.HandleFunc("GET /api/devices/{id}/latest", c.handleLatest)
	mux.HandleFunc("GET /api/devices/{id}/readings", c.handleReadings)
}
