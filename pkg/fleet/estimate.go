package fleet

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/NERVsystems/greenroute/pkg/coords"
	"github.com/NERVsystems/greenroute/pkg/core"
	"github.com/NERVsystems/greenroute/pkg/impact"
	"github.com/NERVsystems/greenroute/pkg/routing"
	"github.com/NERVsystems/greenroute/pkg/tracing"
)

// MaxConcurrentLanes bounds concurrent lane lookups for one scenario.
const MaxConcurrentLanes = 4

// LaneResolver turns two points into a driving distance.
type LaneResolver interface {
	LaneDistance(ctx context.Context, from, to coords.Point) (routing.Lane, error)
}

// EntryResult is the outcome for one fleet entry.
type EntryResult struct {
	Name              string              `json:"name"`
	VehicleClass      impact.VehicleClass `json:"vehicleClass"`
	Count             int                 `json:"count"`
	MonthlyDistanceKm float64             `json:"monthlyDistanceKm"`
	FuelPricePerLiter float64             `json:"fuelPricePerLiter"`
	Lane              *routing.Lane       `json:"lane,omitempty"`
	PerVehicle        impact.Result       `json:"perVehicle"`
	Total             impact.Result       `json:"total"`
	Display           impact.Display      `json:"display"`
}

// Summary is the outcome for a scenario. Total sums the raw entry totals.
type Summary struct {
	Scenario string         `json:"scenario"`
	Vehicles int            `json:"vehicles"`
	Entries  []EntryResult  `json:"entries"`
	Total    impact.Result  `json:"total"`
	Display  impact.Display `json:"display"`
}

// Estimate computes every entry of s and the fleet totals. Lanes are
// resolved concurrently; resolver may be nil when no entry uses a lane.
// The first failing entry cancels the rest.
func Estimate(ctx context.Context, s *Scenario, est *impact.Estimator, resolver LaneResolver) (*Summary, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "fleet.estimate",
		trace.WithAttributes(
			attribute.String("greenroute.fleet.name", s.Name),
			attribute.Int(tracing.AttrFleetEntries, len(s.Vehicles)),
		),
	)
	defer span.End()

	entries := make([]EntryResult, len(s.Vehicles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxConcurrentLanes)

	for i := range s.Vehicles {
		e := s.Vehicles[i]
		g.Go(func() error {
			res, err := estimateEntry(gctx, e, s.FuelPricePerLiter, est, resolver)
			if err != nil {
				return &EntryError{Index: i, Name: e.label(i), Err: err}
			}
			entries[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}

	sum := &Summary{
		Scenario: s.Name,
		Vehicles: s.VehicleCount(),
		Entries:  entries,
	}
	for _, r := range entries {
		sum.Total.CO2SavedKg += r.Total.CO2SavedKg
		sum.Total.FuelSavedLiters += r.Total.FuelSavedLiters
		sum.Total.MoneySavedCurrency += r.Total.MoneySavedCurrency
		sum.Total.TreesEquivalent += r.Total.TreesEquivalent
		sum.Total.DistanceOptimizedKm += r.Total.DistanceOptimizedKm
	}
	sum.Total.EfficiencyGainPercent = impact.TotalOptimizationFraction * 100
	sum.Display = impact.Format(sum.Total)

	span.SetAttributes(attribute.Float64(tracing.AttrCO2SavedKg, sum.Total.CO2SavedKg))
	return sum, nil
}

func estimateEntry(ctx context.Context, e Entry, scenarioPrice float64, est *impact.Estimator, resolver LaneResolver) (EntryResult, error) {
	class, err := impact.ParseVehicleClass(e.Class)
	if err != nil {
		return EntryResult{}, err
	}

	price := scenarioPrice
	if e.FuelPricePerLiter != 0 {
		price = e.FuelPricePerLiter
	}

	res := EntryResult{
		Name:              e.Name,
		VehicleClass:      class,
		Count:             e.Count,
		MonthlyDistanceKm: e.MonthlyDistanceKm,
		FuelPricePerLiter: price,
	}

	if e.Lane != nil {
		lane, km, err := resolveLane(ctx, *e.Lane, resolver)
		if err != nil {
			return EntryResult{}, err
		}
		res.Lane = &lane
		res.MonthlyDistanceKm = km
	}

	per, err := est.Calculate(impact.Input{
		VehicleClass:      class,
		MonthlyDistanceKm: res.MonthlyDistanceKm,
		FuelPricePerLiter: price,
	})
	if err != nil {
		return EntryResult{}, err
	}

	n := float64(e.Count)
	res.PerVehicle = per
	res.Total = impact.Result{
		CO2SavedKg:            per.CO2SavedKg * n,
		FuelSavedLiters:       per.FuelSavedLiters * n,
		MoneySavedCurrency:    per.MoneySavedCurrency * n,
		TreesEquivalent:       per.TreesEquivalent * n,
		DistanceOptimizedKm:   per.DistanceOptimizedKm * n,
		EfficiencyGainPercent: per.EfficiencyGainPercent,
	}
	res.Display = impact.Format(res.Total)
	return res, nil
}

func resolveLane(ctx context.Context, spec LaneSpec, resolver LaneResolver) (routing.Lane, float64, error) {
	if resolver == nil {
		return routing.Lane{}, 0, fmt.Errorf("%w: lanes need a routing service", ErrInvalidScenario)
	}
	from, err := lanePoint("from", spec.From)
	if err != nil {
		return routing.Lane{}, 0, err
	}
	to, err := lanePoint("to", spec.To)
	if err != nil {
		return routing.Lane{}, 0, err
	}

	lane, err := resolver.LaneDistance(ctx, from, to)
	if err != nil {
		return routing.Lane{}, 0, err
	}
	return lane, MonthlyDistance(lane.DistanceKm, spec.TripsPerMonth, spec.RoundTrip), nil
}

func lanePoint(field, raw string) (coords.Point, error) {
	p, _, err := coords.Parse(raw)
	if err != nil {
		return coords.Point{}, core.NewError(core.ErrInvalidCoordinates, fmt.Sprintf("lane %s: %v", field, err)).
			WithField("lane." + field).
			WithGuidance("Use decimal degrees (\"40.4168,-3.7038\"), DMS or an MGRS reference")
	}
	return p, nil
}

// MonthlyDistance is the distance driven on a lane in a month.
func MonthlyDistance(laneKm, tripsPerMonth float64, roundTrip bool) float64 {
	km := laneKm * tripsPerMonth
	if roundTrip {
		km *= 2
	}
	return km
}
