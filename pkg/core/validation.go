package core

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/NERVsystems/greenroute/pkg/coords"
	"github.com/NERVsystems/greenroute/pkg/impact"
	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/text/language"
)

// Parameter names shared by the impact tools
const (
	ParamVehicleClass      = "vehicle_class"
	ParamMonthlyDistanceKm = "monthly_distance_km"
	ParamFuelPrice         = "fuel_price_per_liter"
	ParamLanguage          = "language"
	ParamFrom              = "from"
	ParamTo                = "to"
	ParamTripsPerMonth     = "trips_per_month"
	ParamRoundTrip         = "round_trip"
)

// ParseVehicleClass extracts and resolves the vehicle class parameter
func ParseVehicleClass(req mcp.CallToolRequest) (impact.VehicleClass, error) {
	raw := strings.TrimSpace(req.GetString(ParamVehicleClass, ""))
	if raw == "" {
		return "", NewValidationError(ErrMissingParameter, "vehicle_class is required").
			WithField(ParamVehicleClass)
	}
	class, err := impact.ParseVehicleClass(raw)
	if err != nil {
		return "", FromImpactError(err, language.English)
	}
	return class, nil
}

// ParseImpactInput extracts the estimate input. Missing numbers are left at
// zero so the estimator reports them with its own messages.
func ParseImpactInput(req mcp.CallToolRequest) (impact.Input, error) {
	class, err := ParseVehicleClass(req)
	if err != nil {
		return impact.Input{}, err
	}
	return impact.Input{
		VehicleClass:      class,
		MonthlyDistanceKm: req.GetFloat(ParamMonthlyDistanceKm, 0),
		FuelPricePerLiter: req.GetFloat(ParamFuelPrice, 0),
	}, nil
}

// ParseLanguage resolves the optional language parameter
func ParseLanguage(req mcp.CallToolRequest) language.Tag {
	return impact.MatchLanguage(req.GetString(ParamLanguage, ""))
}

// ParsePoint extracts a coordinate string in decimal, DMS or MGRS notation
func ParsePoint(req mcp.CallToolRequest, key string) (coords.Point, error) {
	raw := req.GetString(key, "")
	if strings.TrimSpace(raw) == "" {
		return coords.Point{}, NewValidationError(ErrMissingParameter, fmt.Sprintf("%s is required", key)).
			WithField(key)
	}
	p, _, err := coords.Parse(raw)
	if err != nil {
		return coords.Point{}, NewError(ErrInvalidCoordinates, err.Error()).
			WithField(key).
			WithGuidance("Use decimal degrees (\"40.4168,-3.7038\"), DMS or an MGRS reference")
	}
	return p, nil
}

// ParsePointWithLog parses a coordinate and logs any errors
func ParsePointWithLog(req mcp.CallToolRequest, logger *slog.Logger, key string) (coords.Point, error) {
	p, err := ParsePoint(req, key)
	if err != nil {
		logger.Error("invalid coordinates", "param", key, "error", err)
	}
	return p, err
}

// ValidateTripsPerMonth checks the lane frequency of a route estimate
func ValidateTripsPerMonth(trips float64) error {
	if trips <= 0 {
		return NewValidationError(ErrInvalidParameter, fmt.Sprintf("trips_per_month must be greater than 0, got %v", trips)).
			WithField(ParamTripsPerMonth)
	}
	return nil
}
