package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/NERVsystems/greenroute/pkg/core"
	"github.com/NERVsystems/greenroute/pkg/fleet"
	"github.com/NERVsystems/greenroute/pkg/impact"
	"github.com/NERVsystems/greenroute/pkg/routing"
	"github.com/NERVsystems/greenroute/pkg/tracing"
)

// RouteImpactResponse is the output of estimate_route_impact.
type RouteImpactResponse struct {
	Lane              routing.Lane     `json:"lane"`
	TripsPerMonth     float64          `json:"tripsPerMonth"`
	RoundTrip         bool             `json:"roundTrip"`
	MonthlyDistanceKm float64          `json:"monthlyDistanceKm"`
	Estimate          EstimateResponse `json:"estimate"`
}

// HandleEstimateRouteImpact resolves a lane through the routing service and
// estimates the savings of driving it every month.
func (r *Registry) HandleEstimateRouteImpact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := r.logger.With("tool", "estimate_route_impact")
	tag := core.ParseLanguage(req)

	if r.router == nil {
		return core.NewError(core.ErrServiceUnavailable, "routing service is not configured").
			WithGuidance(GuidanceRoutingUnavailable).ToMCPResult(), nil
	}

	class, err := core.ParseVehicleClass(req)
	if err != nil {
		return toolError(err, tag), nil
	}
	from, err := core.ParsePointWithLog(req, logger, core.ParamFrom)
	if err != nil {
		return toolError(err, tag), nil
	}
	to, err := core.ParsePointWithLog(req, logger, core.ParamTo)
	if err != nil {
		return toolError(err, tag), nil
	}
	trips := req.GetFloat(core.ParamTripsPerMonth, 0)
	if err := core.ValidateTripsPerMonth(trips); err != nil {
		return toolError(err, tag), nil
	}
	roundTrip := req.GetBool(core.ParamRoundTrip, false)
	price := req.GetFloat(core.ParamFuelPrice, 0)

	// Reject a bad price before spending a routing request on it.
	if verr := r.estimator.Limits().Check(impact.MinMonthlyKm, price); len(verr) > 0 {
		return toolError(verr[0], tag), nil
	}

	lane, err := r.router.LaneDistance(ctx, from, to)
	if err != nil {
		logger.Warn("lane lookup failed", "from", from.String(), "to", to.String(), "error", err)
		return toolError(err, tag), nil
	}
	tracing.SetAttributes(ctx, attribute.Bool(tracing.AttrCacheHit, lane.Cached))

	monthly := fleet.MonthlyDistance(lane.DistanceKm, trips, roundTrip)
	est, err := r.estimate(ctx, impact.Input{
		VehicleClass:      class,
		MonthlyDistanceKm: monthly,
		FuelPricePerLiter: price,
	})
	if err != nil {
		return toolError(err, tag), nil
	}

	logger.Debug("route estimate computed",
		"lane_km", lane.DistanceKm,
		"monthly_km", monthly,
		"cached", lane.Cached,
	)
	return jsonResult(logger, RouteImpactResponse{
		Lane:              lane,
		TripsPerMonth:     trips,
		RoundTrip:         roundTrip,
		MonthlyDistanceKm: monthly,
		Estimate:          est,
	}), nil
}
