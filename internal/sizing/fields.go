package sizing

import "math"

// Fields is the structured record extracted from a construction project.
// Every attribute is optional; the engine never assumes one implies another.
type Fields struct {
	UsableArea        *float64 `json:"usable_area"`
	EnergyUseIndex    *float64 `json:"energy_use_index"`
	Location          string   `json:"location,omitempty"`
	AnnualHeatDemand  *float64 `json:"annual_heat_demand"`
	DirectPower       *float64 `json:"direct_power"`
	DesignTemperature *float64 `json:"design_temperature"`
	BuildingType      string   `json:"building_type,omitempty"`
	EnergyStandard    string   `json:"energy_standard,omitempty"`
}

// Float returns a pointer to v, for building Fields literals.
func Float(v float64) *float64 {
	return &v
}

// Empty reports whether no sizing-relevant numeric field is present.
func (f Fields) Empty() bool {
	return f.UsableArea == nil && f.EnergyUseIndex == nil && f.AnnualHeatDemand == nil && f.DirectPower == nil
}

// positive returns the value behind p when it is a finite number above zero.
// Negative, zero, NaN and infinite values count as absent.
func positive(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	v := *p
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}
