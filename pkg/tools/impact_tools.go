package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/NERVsystems/greenroute/pkg/core"
	"github.com/NERVsystems/greenroute/pkg/impact"
	"github.com/NERVsystems/greenroute/pkg/tracing"
)

// EstimateResponse is the output of estimate_impact.
type EstimateResponse struct {
	Input   impact.Input          `json:"input"`
	Result  impact.Result         `json:"result"`
	Display impact.Display        `json:"display"`
	Profile impact.VehicleProfile `json:"profile"`
}

// ValidationIssue is one rejected input.
type ValidationIssue struct {
	Kind    string `json:"kind"`
	Field   string `json:"field"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// ValidationResponse is the output of validate_impact_input.
type ValidationResponse struct {
	Valid    bool              `json:"valid"`
	Language string            `json:"language"`
	Errors   []ValidationIssue `json:"errors"`
}

// ModelConstants describes the savings model.
type ModelConstants struct {
	RouteOptimizationFraction   float64 `json:"routeOptimizationFraction"`
	EcoModeFraction             float64 `json:"ecoModeFraction"`
	TrafficOptimizationFraction float64 `json:"trafficOptimizationFraction"`
	TotalOptimizationFraction   float64 `json:"totalOptimizationFraction"`
	TreeAbsorptionKgPerMonth    float64 `json:"treeAbsorptionKgPerMonth"`
	MinMonthlyKm                float64 `json:"minMonthlyKm"`
	MaxMonthlyKm                float64 `json:"maxMonthlyKm,omitempty"`
	MaxFuelPricePerLiter        float64 `json:"maxFuelPricePerLiter,omitempty"`
}

// ProfilesResponse is the output of list_vehicle_profiles.
type ProfilesResponse struct {
	Profiles  []impact.VehicleProfile `json:"profiles"`
	Constants ModelConstants          `json:"constants"`
}

// estimate runs the estimator and builds the response shared by the impact tools.
func (r *Registry) estimate(ctx context.Context, in impact.Input) (EstimateResponse, error) {
	res, err := r.estimator.Calculate(in)
	if err != nil {
		tracing.SetAttributes(ctx, attribute.String(tracing.AttrErrorType, impact.KindOf(err)))
		return EstimateResponse{}, err
	}
	profile, err := r.estimator.Profile(in.VehicleClass)
	if err != nil {
		return EstimateResponse{}, err
	}
	tracing.SetAttributes(ctx, tracing.EstimateAttributes(in.VehicleClass.String(), in.MonthlyDistanceKm, res.CO2SavedKg)...)

	return EstimateResponse{
		Input:   in,
		Result:  res,
		Display: impact.Format(res),
		Profile: profile,
	}, nil
}

// HandleEstimateImpact estimates the monthly savings of one vehicle.
func (r *Registry) HandleEstimateImpact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := r.logger.With("tool", "estimate_impact")
	tag := core.ParseLanguage(req)

	in, err := core.ParseImpactInput(req)
	if err != nil {
		logger.Debug("invalid vehicle class", "error", err)
		return toolError(err, tag), nil
	}

	resp, err := r.estimate(ctx, in)
	if err != nil {
		logger.Debug("estimate rejected", "error", err)
		return toolError(err, tag), nil
	}

	logger.Debug("estimate computed",
		"vehicle_class", in.VehicleClass,
		"monthly_distance_km", in.MonthlyDistanceKm,
		"co2_saved_kg", resp.Result.CO2SavedKg,
	)
	return jsonResult(logger, resp), nil
}

// HandleValidateImpactInput reports every problem with a distance and price
// pair without estimating.
func (r *Registry) HandleValidateImpactInput(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := r.logger.With("tool", "validate_impact_input")
	tag := core.ParseLanguage(req)

	in := impact.Input{
		MonthlyDistanceKm: req.GetFloat(core.ParamMonthlyDistanceKm, 0),
		FuelPricePerLiter: req.GetFloat(core.ParamFuelPrice, 0),
	}

	issues := r.estimator.Check(in)
	resp := ValidationResponse{
		Valid:    len(issues) == 0,
		Language: tag.String(),
		Errors:   make([]ValidationIssue, 0, len(issues)),
	}
	for _, v := range issues {
		resp.Errors = append(resp.Errors, ValidationIssue{
			Kind:    string(v.Kind),
			Field:   v.Field,
			Reason:  string(v.Reason),
			Message: v.Message(tag),
		})
	}
	return jsonResult(logger, resp), nil
}

// HandleListVehicleProfiles returns the profile table and model constants.
func (r *Registry) HandleListVehicleProfiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := r.logger.With("tool", "list_vehicle_profiles")
	limits := r.estimator.Limits()

	return jsonResult(logger, ProfilesResponse{
		Profiles: r.estimator.Profiles(),
		Constants: ModelConstants{
			RouteOptimizationFraction:   impact.RouteOptimizationFraction,
			EcoModeFraction:             impact.EcoModeFraction,
			TrafficOptimizationFraction: impact.TrafficOptimizationFraction,
			TotalOptimizationFraction:   impact.TotalOptimizationFraction,
			TreeAbsorptionKgPerMonth:    impact.TreeAbsorptionKgPerMonth,
			MinMonthlyKm:                impact.MinMonthlyKm,
			MaxMonthlyKm:                limits.MaxMonthlyKm,
			MaxFuelPricePerLiter:        limits.MaxFuelPricePerLiter,
		},
	}), nil
}
