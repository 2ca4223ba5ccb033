package telemetry

import (
	"database/sql"
	"log/slog"
	"net/http"

	"aqlink/internal/modules/telemetry/controller"
	"aqlink/internal/modules/telemetry/repository"
	"aqlink/internal/modules/telemetry/service"
	"aqlink/internal/mqtt"
)

// RegisterFeature wires the telemetry module: HTTP routes on the mux
// and the ingest handler on the MQTT subscriber. Returns the
// repository so other components (the stale-device monitor) can query
// last-seen state.
func RegisterFeature(mux *http.ServeMux, db *sql.DB, subscriber mqtt.UplinkSubscriber, logger *slog.Logger) repository.TelemetryRepository {
	telemetryRepository := repository.NewRepository(db)
	telemetryController := controller.NewTelemetryController(telemetryRepository)
	telemetryController.RegisterRoutes(mux)
	telemetryService := service.NewService(telemetryRepository, logger)
	telemetryService.Register(subscriber)
	return telemetryRepository
}
