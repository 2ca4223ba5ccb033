// Package radio holds the device-side transmission-parameter policy:
// a fixed quota of transmissions per data rate, cycling through six
// rate profiles indefinitely. The policy is open-loop on purpose — it
// samples every profile over time instead of converging on one, and
// historical data was collected this way, so the cycling contract must
// not change even if a closed-loop policy replaces it someday.
package radio

// RateCount is the number of data-rate profiles cycled through.
const RateCount = 6

// TransmissionsPerRate is the quota sent at each rate before advancing.
const TransmissionsPerRate = 5

// State is the sequencer position: the current rate index and how many
// transmissions have completed at that rate. The zero value is the
// device's start state. State is a plain value threaded through the
// transmission loop; nothing here mutates shared state, which keeps the
// policy deterministic under test. The caller owns serialization — the
// device has one transmission loop and no overlapping attempts.
type State struct {
	RateIndex  int
	SentAtRate int
}

// Next returns the state after one completed transmission attempt:
// the per-rate counter increments, and on reaching the quota it resets
// and the rate index advances, wrapping from RateCount-1 back to 0.
// Success or failure of the attempt is irrelevant; the radio layer
// owns retries.
func (s State) Next() State {
	s.SentAtRate++
	if s.SentAtRate >= TransmissionsPerRate {
		s.SentAtRate = 0
		s.RateIndex = (s.RateIndex + 1) % RateCount
	}
	return s
}
