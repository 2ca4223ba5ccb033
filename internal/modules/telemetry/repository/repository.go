package repository

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"aqlink/internal/modules/telemetry/types"
)

//go:embed sql/get-devices.sql
var getDevicesSQL string

//go:embed sql/ensure-device.sql
var ensureDeviceSQL string

//go:embed sql/insert-reading.sql
var insertReadingSQL string

//go:embed sql/get-latest-reading.sql
var getLatestReadingSQL string

//go:embed sql/get-readings.sql
var getReadingsSQL string

//go:embed sql/get-last-seen.sql
var getLastSeenSQL string

type TelemetryRepository interface {
	GetDevices() ([]types.Device, error)
	// EnsureDevice registers a device on first contact; repeated calls
	// for a known device are no-ops. The name defaults to the id and
	// can be updated out of band.
	EnsureDevice(id string) error
	InsertReading(r types.Reading) error
	GetLatestReadings(deviceID string, limit int) ([]types.Reading, error)
	GetReadings(deviceID string, from time.Time, to time.Time, limit int) ([]types.Reading, error)
	GetLastSeen() ([]types.DeviceLastSeen, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) TelemetryRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) GetDevices() ([]types.Device, error) {
	rows, err := r.db.Query(getDevicesSQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close devices rows", "error", err)
		}
	}()
	var out []types.Device
	for rows.Next() {
		var d types.Device
		var firstSeen string
		if err := rows.Scan(&d.ID, &d.Name, &firstSeen); err != nil {
			return nil, err
		}
		t, err := parseTimestamp(firstSeen)
		if err != nil {
			return nil, err
		}
		d.FirstSeen = t
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) EnsureDevice(id string) error {
	if id == "" {
		return fmt.Errorf("device id is required")
	}
	if _, err := r.db.Exec(ensureDeviceSQL, id, id); err != nil {
		return fmt.Errorf("ensure device %q: %w", id, err)
	}
	return nil
}

func (r *repositoryImpl) InsertReading(rec types.Reading) error {
	tsStr := rec.Time.UTC().Format(time.RFC3339Nano)

	_, err := r.db.Exec(insertReadingSQL,
		rec.DeviceID, tsStr, rec.Seq, rec.DataRate,
		nullable(rec.PressureHPa),
		nullable(rec.GasPPM),
		nullable(rec.TemperatureC),
		nullable(rec.HumidityPct),
		nullable(rec.ParticulateUg),
	)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

func (r *repositoryImpl) GetLatestReadings(deviceID string, limit int) ([]types.Reading, error) {
	rows, err := r.db.Query(getLatestReadingSQL, deviceID, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close latest readings rows", "error", err)
		}
	}()
	return scanReadings(rows)
}

func (r *repositoryImpl) GetReadings(deviceID string, from time.Time, to time.Time, limit int) ([]types.Reading, error) {
	fromStr := ""
	if !from.IsZero() {
		fromStr = from.UTC().Format(time.RFC3339Nano)
	}
	toStr := ""
	if !to.IsZero() {
		toStr = to.UTC().Format(time.RFC3339Nano)
	}
	rows, err := r.db.Query(getReadingsSQL, deviceID, fromStr, fromStr, toStr, toStr, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close readings rows", "error", err)
		}
	}()
	return scanReadings(rows)
}

func (r *repositoryImpl) GetLastSeen() ([]types.DeviceLastSeen, error) {
	rows, err := r.db.Query(getLastSeenSQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close last-seen rows", "error", err)
		}
	}()
	var out []types.DeviceLastSeen
	for rows.Next() {
		var d types.DeviceLastSeen
		var ts string
		if err := rows.Scan(&d.DeviceID, &ts); err != nil {
			return nil, err
		}
		t, err := parseTimestamp(ts)
		if err != nil {
			return nil, err
		}
		d.LastSeen = t
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanReadings(rows *sql.Rows) ([]types.Reading, error) {
	var out []types.Reading
	for rows.Next() {
		var rec types.Reading
		var ts string
		var dataRate sql.NullString
		if err := rows.Scan(
			&rec.DeviceID, &ts, &rec.Seq, &dataRate,
			&rec.PressureHPa, &rec.GasPPM, &rec.TemperatureC,
			&rec.HumidityPct, &rec.ParticulateUg,
		); err != nil {
			return nil, err
		}
		t, err := parseTimestamp(ts)
		if err != nil {
			return nil, err
		}
		rec.Time = t
		rec.DataRate = dataRate.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

func parseTimestamp(ts string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		var err2 error
		t, err2 = time.Parse(time.RFC3339, ts)
		if err2 != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: RFC3339Nano: %w; RFC3339: %w", ts, err, err2)
		}
	}
	return t, nil
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
