package radio

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is one physical transmission parameter set. Higher spreading
// factors buy link margin at the cost of airtime, so the plan orders
// profiles from longest range to highest throughput.
type Profile struct {
	Name            string `yaml:"name"`
	SpreadingFactor int    `yaml:"spreading_factor"`
	BandwidthHz     int    `yaml:"bandwidth_hz"`
	TxPowerDBm      int    `yaml:"tx_power_dbm"`
}

// DataRate returns the profile's data-rate identifier in packet
// forwarder notation, e.g. "SF9BW125".
func (p Profile) DataRate() string {
	return fmt.Sprintf("SF%dBW%d", p.SpreadingFactor, p.BandwidthHz/1000)
}

// Plan is the fixed lookup table mapping a sequencer rate index to a
// physical profile. It always holds exactly RateCount entries.
type Plan [RateCount]Profile

// DefaultPlan is the deployed table: SF12 down to SF7 over 125 kHz.
var DefaultPlan = Plan{
	{Name: "dr0", SpreadingFactor: 12, BandwidthHz: 125000, TxPowerDBm: 14},
	{Name: "dr1", SpreadingFactor: 11, BandwidthHz: 125000, TxPowerDBm: 14},
	{Name: "dr2", SpreadingFactor: 10, BandwidthHz: 125000, TxPowerDBm: 14},
	{Name: "dr3", SpreadingFactor: 9, BandwidthHz: 125000, TxPowerDBm: 14},
	{Name: "dr4", SpreadingFactor: 8, BandwidthHz: 125000, TxPowerDBm: 14},
	{Name: "dr5", SpreadingFactor: 7, BandwidthHz: 125000, TxPowerDBm: 14},
}

// Profile returns the profile for the state's current rate index.
func (p Plan) Profile(s State) Profile {
	return p[s.RateIndex]
}

// LoadPlan reads a rate plan from a YAML file. The file must define
// exactly RateCount profiles under a top-level "profiles" key.
func LoadPlan(path string) (Plan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("read rate plan: %w", err)
	}
	var doc struct {
		Profiles []Profile `yaml:"profiles"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Plan{}, fmt.Errorf("parse rate plan %s: %w", path, err)
	}
	if len(doc.Profiles) != RateCount {
		return Plan{}, fmt.Errorf("rate plan %s: got %d profiles, need exactly %d", path, len(doc.Profiles), RateCount)
	}
	var plan Plan
	copy(plan[:], doc.Profiles)
	return plan, plan.validate()
}

func (p Plan) validate() error {
	for i, prof := range p {
		if prof.SpreadingFactor < 7 || prof.SpreadingFactor > 12 {
			return fmt.Errorf("profile %d (%s): spreading factor %d outside 7..12", i, prof.Name, prof.SpreadingFactor)
		}
		if prof.BandwidthHz <= 0 {
			return fmt.Errorf("profile %d (%s): bandwidth must be positive, got %d", i, prof.Name, prof.BandwidthHz)
		}
	}
	return nil
}
