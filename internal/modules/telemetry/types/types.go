package types

import "time"

type Device struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	FirstSeen time.Time `json:"firstSeen"`
}

// Reading is one stored uplink. Channel pointers are nil when the
// device transmitted the "no data" sentinel for that channel, keeping
// absence distinct from a genuine zero all the way to the API.
type Reading struct {
	DeviceID      string    `json:"deviceId"`
	Time          time.Time `json:"time"`
	Seq           int64     `json:"seq"`
	DataRate      string    `json:"dataRate,omitempty"`
	PressureHPa   *float64  `json:"pressureHpa"`
	GasPPM        *float64  `json:"gasPpm"`
	TemperatureC  *float64  `json:"temperatureC"`
	HumidityPct   *float64  `json:"humidityPct"`
	ParticulateUg *float64  `json:"particulateUgm3"`
}

// DeviceLastSeen feeds the stale-device monitor.
type DeviceLastSeen struct {
	DeviceID string    `json:"deviceId"`
	LastSeen time.Time `json:"lastSeen"`
}
