// Package impact estimates the environmental and monetary savings of running a
// vehicle with route, eco-mode and traffic optimization enabled.
//
// The estimate is a fixed linear model. Monthly fuel consumption is derived
// from a static per-class consumption profile, and a constant optimization
// fraction of that fuel is assumed saved. CO2, money, tree-equivalent and
// optimized distance all follow from the saved fuel.
//
// Every value in this package is deterministic. The same input always yields
// the same Result, bit for bit.
package impact

// Optimization factors. Route optimization shortens the driven distance;
// eco-mode and traffic optimization only lower consumption over it.
const (
	// RouteOptimizationFraction is the share of fuel and distance saved by
	// shorter routing.
	RouteOptimizationFraction = 0.18

	// EcoModeFraction is the share of fuel saved by eco driving profiles.
	EcoModeFraction = 0.12

	// TrafficOptimizationFraction is the share of fuel saved by avoiding
	// congestion.
	TrafficOptimizationFraction = 0.08

	// TotalOptimizationFraction is the stacked saving applied to base
	// consumption (0.38).
	TotalOptimizationFraction = RouteOptimizationFraction + EcoModeFraction + TrafficOptimizationFraction
)

const (
	// MinMonthlyKm is the smallest monthly distance accepted for an estimate.
	MinMonthlyKm = 100.0

	// TreeAbsorptionKgPerMonth is the CO2 mass one tree is assumed to absorb
	// per month.
	TreeAbsorptionKgPerMonth = 21.0

	// CO2KgPerLiter is the CO2 emitted per liter of fuel burned. The same
	// factor is used for every vehicle class.
	CO2KgPerLiter = 2.31
)

// Input caps applied when an Estimator is configured with DefaultLimits.
const (
	DefaultMaxMonthlyKm         = 50000.0
	DefaultMaxFuelPricePerLiter = 10.0
)
