package impact

import (
	"errors"
	"log/slog"
)

// Input is a single estimate request.
type Input struct {
	VehicleClass      VehicleClass `json:"vehicleClass" yaml:"vehicle_class"`
	MonthlyDistanceKm float64      `json:"monthlyDistanceKm" yaml:"monthly_distance_km"`
	FuelPricePerLiter float64      `json:"fuelPricePerLiter" yaml:"fuel_price_per_liter"`
}

// Result holds the unrounded monthly savings for one vehicle.
type Result struct {
	CO2SavedKg            float64 `json:"co2SavedKg"`
	FuelSavedLiters       float64 `json:"fuelSavedLiters"`
	MoneySavedCurrency    float64 `json:"moneySavedCurrency"`
	TreesEquivalent       float64 `json:"treesEquivalent"`
	DistanceOptimizedKm   float64 `json:"distanceOptimizedKm"`
	EfficiencyGainPercent float64 `json:"efficiencyGainPercent"`
}

// Compute applies the savings model to a profile. It performs no validation.
func Compute(profile VehicleProfile, monthlyDistanceKm, fuelPricePerLiter float64) Result {
	base := monthlyDistanceKm / 100 * profile.ConsumptionPer100km
	fuelSaved := base * TotalOptimizationFraction
	co2 := fuelSaved * profile.CO2FactorPerLiter

	return Result{
		CO2SavedKg:            co2,
		FuelSavedLiters:       fuelSaved,
		MoneySavedCurrency:    fuelSaved * fuelPricePerLiter,
		TreesEquivalent:       co2 / TreeAbsorptionKgPerMonth,
		DistanceOptimizedKm:   monthlyDistanceKm * RouteOptimizationFraction,
		EfficiencyGainPercent: TotalOptimizationFraction * 100,
	}
}

// Hooks observe estimator outcomes. Nil fields are skipped.
type Hooks struct {
	OnEstimate func(in Input, r Result)
	OnRejected func(in Input, err error)
}

// Config configures an Estimator.
type Config struct {
	// Profiles overrides the built-in profile table when non-empty.
	Profiles []VehicleProfile
	// Limits caps the inputs accepted by Calculate. Zero disables caps.
	Limits Limits
	Logger *slog.Logger
	Hooks  Hooks
}

// Estimator validates inputs and computes savings against a fixed profile
// table. It is immutable and safe for concurrent use.
type Estimator struct {
	table  *ProfileTable
	limits Limits
	logger *slog.Logger
	hooks  Hooks
}

// NewEstimator builds an Estimator from cfg.
func NewEstimator(cfg Config) (*Estimator, error) {
	profiles := cfg.Profiles
	if len(profiles) == 0 {
		profiles = DefaultProfiles()
	}
	table, err := NewProfileTable(profiles)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Estimator{
		table:  table,
		limits: cfg.Limits,
		logger: logger.With("component", "impact"),
		hooks:  cfg.Hooks,
	}, nil
}

// Estimate computes savings for an input that has already been validated.
// The only failure is an unknown vehicle class.
func (e *Estimator) Estimate(in Input) (Result, error) {
	profile, err := e.table.Lookup(in.VehicleClass)
	if err != nil {
		e.logger.Error("estimate requested for unknown vehicle class", "vehicle_class", in.VehicleClass)
		return Result{}, err
	}
	return Compute(profile, in.MonthlyDistanceKm, in.FuelPricePerLiter), nil
}

// Calculate validates the input and then estimates it.
func (e *Estimator) Calculate(in Input) (Result, error) {
	if err := e.limits.Validate(in.MonthlyDistanceKm, in.FuelPricePerLiter); err != nil {
		e.logger.Debug("impact input rejected", "error", err)
		e.rejected(in, err)
		return Result{}, err
	}

	r, err := e.Estimate(in)
	if err != nil {
		e.rejected(in, err)
		return Result{}, err
	}

	if e.hooks.OnEstimate != nil {
		e.hooks.OnEstimate(in, r)
	}
	return r, nil
}

// Check returns every validation failure for in under the configured limits.
func (e *Estimator) Check(in Input) []*ValidationError {
	return e.limits.Check(in.MonthlyDistanceKm, in.FuelPricePerLiter)
}

// Profile returns the profile for class.
func (e *Estimator) Profile(class VehicleClass) (VehicleProfile, error) {
	return e.table.Lookup(class)
}

// Profiles returns the profile table in display order.
func (e *Estimator) Profiles() []VehicleProfile {
	return e.table.Profiles()
}

// Limits returns the configured input caps.
func (e *Estimator) Limits() Limits {
	return e.limits
}

func (e *Estimator) rejected(in Input, err error) {
	if e.hooks.OnRejected != nil {
		e.hooks.OnRejected(in, err)
	}
}

// KindOf classifies err for reporting. It returns the validation Kind,
// "UnknownVehicleClass", or "" for unrelated errors.
func KindOf(err error) string {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return string(verr.Kind)
	case errors.Is(err, ErrUnknownVehicleClass):
		return "UnknownVehicleClass"
	}
	return ""
}
