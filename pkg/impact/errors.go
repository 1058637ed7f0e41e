package impact

import (
	"fmt"

	"golang.org/x/text/language"
)

type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors. Use errors.Is to classify failures.
const (
	ErrInvalidDistance     constError = "invalid monthly distance"
	ErrInvalidFuelPrice    constError = "invalid fuel price"
	ErrUnknownVehicleClass constError = "unknown vehicle class"
)

// Kind names a user-facing validation failure.
type Kind string

const (
	KindInvalidDistance  Kind = "InvalidDistance"
	KindInvalidFuelPrice Kind = "InvalidFuelPrice"
)

// Reason refines a Kind.
type Reason string

const (
	ReasonMissing      Reason = "missing"
	ReasonBelowMinimum Reason = "below_minimum"
	ReasonAboveMaximum Reason = "above_maximum"
	ReasonNotPositive  Reason = "not_positive"
	ReasonNotFinite    Reason = "not_finite"
)

// Input field names as they appear on the wire.
const (
	FieldMonthlyDistanceKm = "monthlyDistanceKm"
	FieldFuelPricePerLiter = "fuelPricePerLiter"
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Kind   Kind
	Field  string
	Reason Reason
	Value  float64
	// Limit is the bound that was violated, zero when none applies.
	Limit float64
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonBelowMinimum:
		return fmt.Sprintf("%s: %s must be at least %v, got %v", e.Kind, e.Field, e.Limit, e.Value)
	case ReasonAboveMaximum:
		return fmt.Sprintf("%s: %s must not exceed %v, got %v", e.Kind, e.Field, e.Limit, e.Value)
	case ReasonNotPositive:
		return fmt.Sprintf("%s: %s must be greater than zero, got %v", e.Kind, e.Field, e.Value)
	case ReasonNotFinite:
		return fmt.Sprintf("%s: %s must be a finite number", e.Kind, e.Field)
	default:
		return fmt.Sprintf("%s: %s is required", e.Kind, e.Field)
	}
}

// Unwrap returns the sentinel matching the Kind.
func (e *ValidationError) Unwrap() error {
	if e.Kind == KindInvalidFuelPrice {
		return ErrInvalidFuelPrice
	}
	return ErrInvalidDistance
}

// Message returns the human-readable message in the given language.
func (e *ValidationError) Message(tag language.Tag) string {
	p := newPrinter(tag)
	switch {
	case e.Kind == KindInvalidDistance && e.Reason == ReasonAboveMaximum:
		return p.Sprintf(msgDistanceMax, e.Limit)
	case e.Kind == KindInvalidDistance:
		return p.Sprintf(msgDistanceMin)
	case e.Reason == ReasonAboveMaximum:
		return p.Sprintf(msgFuelPriceMax, e.Limit)
	default:
		return p.Sprintf(msgFuelPriceInvalid)
	}
}
