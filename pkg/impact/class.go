package impact

import (
	"fmt"
	"strings"
)

// VehicleClass identifies one of the fixed consumption profiles.
type VehicleClass string

const (
	Van        VehicleClass = "van"
	Truck      VehicleClass = "truck"
	HeavyTruck VehicleClass = "heavyTruck"
	Bus        VehicleClass = "bus"
	Motorcycle VehicleClass = "motorcycle"
)

// AllClasses returns all vehicle classes in display order.
func AllClasses() []VehicleClass {
	return []VehicleClass{Van, Truck, HeavyTruck, Bus, Motorcycle}
}

// IsValid reports whether c is one of the known classes.
func (c VehicleClass) IsValid() bool {
	switch c {
	case Van, Truck, HeavyTruck, Bus, Motorcycle:
		return true
	}
	return false
}

// String returns the wire representation of the class.
func (c VehicleClass) String() string {
	return string(c)
}

// DisplayName returns a human-readable label for the class.
func (c VehicleClass) DisplayName() string {
	switch c {
	case Van:
		return "Van"
	case Truck:
		return "Light truck"
	case HeavyTruck:
		return "Heavy truck"
	case Bus:
		return "Bus"
	case Motorcycle:
		return "Motorcycle"
	default:
		return "Unknown"
	}
}

// ParseVehicleClass resolves a class key. Matching ignores case and
// underscores so "heavy_truck" and "HEAVYTRUCK" both resolve to HeavyTruck.
// Anything else fails with ErrUnknownVehicleClass.
func ParseVehicleClass(s string) (VehicleClass, error) {
	if c := VehicleClass(s); c.IsValid() {
		return c, nil
	}
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))
	for _, c := range AllClasses() {
		if strings.ToLower(string(c)) == norm {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVehicleClass, s)
}
