package impact

import "math"

// Limits holds optional upper bounds on the inputs. A zero field disables
// that bound.
type Limits struct {
	MaxMonthlyKm         float64 `json:"maxMonthlyKm" yaml:"max_monthly_km"`
	MaxFuelPricePerLiter float64 `json:"maxFuelPricePerLiter" yaml:"max_fuel_price_per_liter"`
}

// DefaultLimits returns the caps used by interactive front ends.
func DefaultLimits() Limits {
	return Limits{
		MaxMonthlyKm:         DefaultMaxMonthlyKm,
		MaxFuelPricePerLiter: DefaultMaxFuelPricePerLiter,
	}
}

// Validate checks the monthly distance and fuel price against the lower
// bounds only. It returns the first failure, distance before price.
func Validate(monthlyDistanceKm, fuelPricePerLiter float64) error {
	return Limits{}.Validate(monthlyDistanceKm, fuelPricePerLiter)
}

// Validate checks the inputs against the lower bounds and l. It returns the
// first failure, distance before price.
func (l Limits) Validate(monthlyDistanceKm, fuelPricePerLiter float64) error {
	if errs := l.Check(monthlyDistanceKm, fuelPricePerLiter); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Check returns every failure for the inputs, distance before price.
// A nil slice means the inputs are valid.
func (l Limits) Check(monthlyDistanceKm, fuelPricePerLiter float64) []*ValidationError {
	var errs []*ValidationError
	if err := l.checkDistance(monthlyDistanceKm); err != nil {
		errs = append(errs, err)
	}
	if err := l.checkFuelPrice(fuelPricePerLiter); err != nil {
		errs = append(errs, err)
	}
	return errs
}

func (l Limits) checkDistance(d float64) *ValidationError {
	e := &ValidationError{Kind: KindInvalidDistance, Field: FieldMonthlyDistanceKm, Value: d}
	switch {
	case d == 0 || math.IsNaN(d):
		e.Reason = ReasonMissing
		e.Limit = MinMonthlyKm
	case d < MinMonthlyKm:
		e.Reason = ReasonBelowMinimum
		e.Limit = MinMonthlyKm
	case math.IsInf(d, 1):
		e.Reason = ReasonNotFinite
	case l.MaxMonthlyKm > 0 && d > l.MaxMonthlyKm:
		e.Reason = ReasonAboveMaximum
		e.Limit = l.MaxMonthlyKm
	default:
		return nil
	}
	return e
}

func (l Limits) checkFuelPrice(p float64) *ValidationError {
	e := &ValidationError{Kind: KindInvalidFuelPrice, Field: FieldFuelPricePerLiter, Value: p}
	switch {
	case math.IsNaN(p):
		e.Reason = ReasonMissing
	case p <= 0:
		e.Reason = ReasonNotPositive
	case math.IsInf(p, 1):
		e.Reason = ReasonNotFinite
	case l.MaxFuelPricePerLiter > 0 && p > l.MaxFuelPricePerLiter:
		e.Reason = ReasonAboveMaximum
		e.Limit = l.MaxFuelPricePerLiter
	default:
		return nil
	}
	return e
}
