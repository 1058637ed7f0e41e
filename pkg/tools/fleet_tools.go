package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/greenroute/pkg/core"
	"github.com/NERVsystems/greenroute/pkg/fleet"
)

const (
	paramScenario = "scenario"
	paramVehicles = "vehicles"
	paramName     = "name"
)

// FleetImpactTool returns a tool definition for fleet estimates
func FleetImpactTool() mcp.Tool {
	return mcp.NewTool("estimate_fleet_impact",
		mcp.WithDescription("Estimate monthly savings for a fleet. Pass either a YAML scenario or a vehicles array with a shared fuel price. Each vehicle group has a class, a count and either monthly_distance_km or a lane {from, to, trips_per_month, round_trip}."),
		mcp.WithString(paramName,
			mcp.Description("Fleet name"),
		),
		mcp.WithNumber(core.ParamFuelPrice,
			mcp.Description("Fuel price per liter shared by all vehicles, greater than 0"),
		),
		mcp.WithArray(paramVehicles,
			mcp.Description("Vehicle groups"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":                 map[string]any{"type": "string"},
					"class":                map[string]any{"type": "string"},
					"count":                map[string]any{"type": "integer", "minimum": 1},
					"monthly_distance_km":  map[string]any{"type": "number"},
					"fuel_price_per_liter": map[string]any{"type": "number"},
					"lane": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"from":            map[string]any{"type": "string"},
							"to":              map[string]any{"type": "string"},
							"trips_per_month": map[string]any{"type": "number"},
							"round_trip":      map[string]any{"type": "boolean"},
						},
					},
				},
				"required": []string{"class", "count"},
			}),
		),
		mcp.WithString(paramScenario,
			mcp.Description("Complete fleet scenario as YAML. Overrides the other parameters."),
		),
		mcp.WithString(core.ParamLanguage,
			mcp.Description("Language for validation messages: es or en"),
			mcp.DefaultString("es"),
		),
	)
}

// HandleEstimateFleetImpact estimates every vehicle group and the fleet totals.
func (r *Registry) HandleEstimateFleetImpact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := r.logger.With("tool", "estimate_fleet_impact")
	tag := core.ParseLanguage(req)

	var scenario *fleet.Scenario
	if doc := req.GetString(paramScenario, ""); strings.TrimSpace(doc) != "" {
		s, err := fleet.Parse([]byte(doc))
		if err != nil {
			return toolError(err, tag), nil
		}
		scenario = s
	} else {
		s, errResult, err := InputParser[fleet.Scenario](req)
		if err != nil {
			logger.Debug("failed to parse fleet input", "error", err)
			return errResult, nil
		}
		scenario = &s
	}

	var resolver fleet.LaneResolver
	if r.router != nil {
		resolver = r.router
	}

	summary, err := fleet.Estimate(ctx, scenario, r.estimator, resolver)
	if err != nil {
		logger.Debug("fleet estimate rejected", "error", err)
		return toolError(err, tag), nil
	}

	logger.Debug("fleet estimate computed",
		"entries", len(summary.Entries),
		"vehicles", summary.Vehicles,
		"co2_saved_kg", summary.Total.CO2SavedKg,
	)
	return jsonResult(logger, summary), nil
}
