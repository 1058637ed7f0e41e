package impact

import (
	"fmt"
	"math"
)

// VehicleProfile is the static consumption record for a vehicle class.
type VehicleProfile struct {
	Class               VehicleClass `json:"class" yaml:"class"`
	Name                string       `json:"name" yaml:"name"`
	ConsumptionPer100km float64      `json:"consumptionPer100km" yaml:"consumption_per_100km"`
	CO2FactorPerLiter   float64      `json:"co2FactorPerLiter" yaml:"co2_factor_per_liter"`
}

var defaultProfiles = [...]VehicleProfile{
	{Class: Van, Name: Van.DisplayName(), ConsumptionPer100km: 8.5, CO2FactorPerLiter: CO2KgPerLiter},
	{Class: Truck, Name: Truck.DisplayName(), ConsumptionPer100km: 12.0, CO2FactorPerLiter: CO2KgPerLiter},
	{Class: HeavyTruck, Name: HeavyTruck.DisplayName(), ConsumptionPer100km: 35.0, CO2FactorPerLiter: CO2KgPerLiter},
	{Class: Bus, Name: Bus.DisplayName(), ConsumptionPer100km: 25.0, CO2FactorPerLiter: CO2KgPerLiter},
	{Class: Motorcycle, Name: Motorcycle.DisplayName(), ConsumptionPer100km: 4.2, CO2FactorPerLiter: CO2KgPerLiter},
}

// DefaultProfiles returns a copy of the built-in profile table.
func DefaultProfiles() []VehicleProfile {
	out := make([]VehicleProfile, len(defaultProfiles))
	copy(out, defaultProfiles[:])
	return out
}

// ProfileTable is an immutable lookup of profiles by class.
// It is safe for concurrent use.
type ProfileTable struct {
	byClass map[VehicleClass]VehicleProfile
	order   []VehicleClass
}

// NewProfileTable builds a table from profiles. Every class must be known,
// appear once, and carry positive finite factors.
func NewProfileTable(profiles []VehicleProfile) (*ProfileTable, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("profile table is empty")
	}

	t := &ProfileTable{
		byClass: make(map[VehicleClass]VehicleProfile, len(profiles)),
		order:   make([]VehicleClass, 0, len(profiles)),
	}
	for _, p := range profiles {
		if !p.Class.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownVehicleClass, p.Class)
		}
		if _, dup := t.byClass[p.Class]; dup {
			return nil, fmt.Errorf("duplicate profile for class %q", p.Class)
		}
		if !positiveFinite(p.ConsumptionPer100km) {
			return nil, fmt.Errorf("profile %q: consumption must be positive, got %v", p.Class, p.ConsumptionPer100km)
		}
		if !positiveFinite(p.CO2FactorPerLiter) {
			return nil, fmt.Errorf("profile %q: CO2 factor must be positive, got %v", p.Class, p.CO2FactorPerLiter)
		}
		if p.Name == "" {
			p.Name = p.Class.DisplayName()
		}
		t.byClass[p.Class] = p
		t.order = append(t.order, p.Class)
	}
	return t, nil
}

// Lookup returns the profile for class. It never falls back to another
// class; a missing class fails with ErrUnknownVehicleClass.
func (t *ProfileTable) Lookup(class VehicleClass) (VehicleProfile, error) {
	p, ok := t.byClass[class]
	if !ok {
		return VehicleProfile{}, fmt.Errorf("%w: %q", ErrUnknownVehicleClass, class)
	}
	return p, nil
}

// Profiles returns the profiles in table order.
func (t *ProfileTable) Profiles() []VehicleProfile {
	out := make([]VehicleProfile, 0, len(t.order))
	for _, c := range t.order {
		out = append(out, t.byClass[c])
	}
	return out
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
