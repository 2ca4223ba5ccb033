package device

import (
	"math"
	"math/rand"
	"time"

	"aqlink/internal/wire"
)

// Sample is one sensor read: the five channel values plus a per-channel
// availability mask. A false mask entry means the sensor did not
// deliver a reading this tick.
type Sample struct {
	Readings wire.Readings
	Missing  [5]bool
}

// channelSpec drives the synthetic generator: a daily baseline swing
// plus uniform noise, bounded to the sensor's plausible range.
type channelSpec struct {
	baseline  float64
	amplitude float64
	noise     float64
	min, max  float64
}

var channelSpecs = [5]channelSpec{
	{baseline: 101.3, amplitude: 0.5, noise: 0.2, min: 95, max: 107},  // pressure, hPa/10 scale of the deployment
	{baseline: 420, amplitude: 60, noise: 25, min: 350, max: 2000},    // gas ppm
	{baseline: 18, amplitude: 7, noise: 0.8, min: -40, max: 60},       // temperature C
	{baseline: 55, amplitude: 15, noise: 3, min: 0, max: 100},         // humidity %
	{baseline: 14, amplitude: 6, noise: 2.5, min: 0, max: 250},        // particulate ug/m3
}

// Source generates synthetic readings where the sensor library would
// run on hardware. Deterministic for a fixed seed.
type Source struct {
	rng        *rand.Rand
	dropChance float64
}

func NewSource(seed int64, dropChance float64) *Source {
	return &Source{
		rng:        rand.New(rand.NewSource(seed)),
		dropChance: dropChance,
	}
}

// Sample produces one reading set for the given wall-clock time. Each
// channel independently goes missing with the configured drop chance,
// exercising the no-data path end to end.
func (s *Source) Sample(now time.Time) Sample {
	// Phase of the 24h cycle, peaking mid-afternoon.
	dayFrac := float64(now.Hour()*3600+now.Minute()*60+now.Second()) / 86400
	phase := math.Sin(2 * math.Pi * (dayFrac - 0.25))

	var values [5]float64
	var missing [5]bool
	for i, spec := range channelSpecs {
		if s.dropChance > 0 && s.rng.Float64() < s.dropChance {
			missing[i] = true
			continue
		}
		v := spec.baseline + spec.amplitude*phase + (s.rng.Float64()*2-1)*spec.noise
		values[i] = math.Min(spec.max, math.Max(spec.min, v))
	}

	return Sample{
		Readings: wire.Readings{
			PressureHPa:   values[0],
			GasPPM:        math.Round(values[1]),
			TemperatureC:  values[2],
			HumidityPct:   values[3],
			ParticulateUg: values[4],
		},
		Missing: missing,
	}
}
