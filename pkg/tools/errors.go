package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/text/language"

	"github.com/NERVsystems/greenroute/pkg/core"
	"github.com/NERVsystems/greenroute/pkg/fleet"
)

// Guidance attached to routing failures
const (
	GuidanceRoutingUnavailable = "Lane estimates need the routing service. Provide monthly_distance_km instead."
	GuidanceRoutingTimeout     = "The routing request timed out. Try again or provide monthly_distance_km instead."
	GuidanceScenario           = "Check the fleet entries: each needs a class, a count of at least 1 and either monthly_distance_km or a lane."
)

// ErrorResponse returns a plain error result.
func ErrorResponse(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(message)
}

// toolError converts any handler error into a structured error result.
// Validation messages use tag.
func toolError(err error, tag language.Tag) *mcp.CallToolResult {
	return classify(err, tag).ToMCPResult()
}

func classify(err error, tag language.Tag) *core.MCPError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return core.NewError(core.ErrServiceTimeout, "request timed out").
			WithGuidance(GuidanceRoutingTimeout)
	case errors.Is(err, context.Canceled):
		return core.NewError(core.ErrServiceTimeout, "request cancelled")
	}

	if errors.Is(err, fleet.ErrInvalidScenario) {
		return core.NewValidationError(core.ErrScenarioInvalid, err.Error()).
			WithGuidance(GuidanceScenario)
	}

	// Entry errors are classified by their cause and prefixed once.
	var entryErr *fleet.EntryError
	if !errors.As(err, &entryErr) {
		return core.FromImpactError(err, tag)
	}
	// Copy so shared upstream errors are never mutated.
	cp := *core.FromImpactError(entryErr.Err, tag)
	cp.Message = fmt.Sprintf("vehicle %d (%s): %s", entryErr.Index+1, entryErr.Name, cp.Message)
	return &cp
}

// GetToolUsageExample returns an example JSON snippet for using a specific tool
func GetToolUsageExample(toolName string) string {
	examples := map[string]string{
		"estimate_impact": `{
  "vehicle_class": "van",
  "monthly_distance_km": 2000,
  "fuel_price_per_liter": 1.45
}`,
		"validate_impact_input": `{
  "monthly_distance_km": 2000,
  "fuel_price_per_liter": 1.45,
  "language": "en"
}`,
		"estimate_route_impact": `{
  "vehicle_class": "truck",
  "from": "40.4168,-3.7038",
  "to": "39.4699,-0.3763",
  "trips_per_month": 10,
  "round_trip": true,
  "fuel_price_per_liter": 1.45
}`,
		"estimate_fleet_impact": `{
  "fuel_price_per_liter": 1.45,
  "vehicles": [
    {"name": "city vans", "class": "van", "count": 3, "monthly_distance_km": 2000},
    {"name": "Madrid to Valencia", "class": "truck", "count": 2,
     "lane": {"from": "40.4168,-3.7038", "to": "39.4699,-0.3763", "trips_per_month": 10, "round_trip": true}}
  ]
}`,
	}

	if example, ok := examples[toolName]; ok {
		return example
	}
	return "{}"
}
