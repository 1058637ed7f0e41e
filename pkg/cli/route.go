package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NERVsystems/greenroute/pkg/coords"
	"github.com/NERVsystems/greenroute/pkg/core"
	"github.com/NERVsystems/greenroute/pkg/fleet"
	"github.com/NERVsystems/greenroute/pkg/impact"
	"github.com/NERVsystems/greenroute/pkg/routing"
)

// RouteOutput is the JSON shape of a lane estimate.
type RouteOutput struct {
	Lane              routing.Lane   `json:"lane"`
	TripsPerMonth     float64        `json:"tripsPerMonth"`
	RoundTrip         bool           `json:"roundTrip"`
	MonthlyDistanceKm float64        `json:"monthlyDistanceKm"`
	Input             impact.Input   `json:"input"`
	Result            impact.Result  `json:"result"`
	Display           impact.Display `json:"display"`
}

func newRouteCmd(a *app) *cobra.Command {
	var (
		class     string
		from      string
		to        string
		trips     float64
		roundTrip bool
	)

	cmd := &cobra.Command{
		Use:   "route",
		Short: "Estimate monthly savings for a lane driven repeatedly",
		Long: `Look up the driving distance between two points with the OSRM routing
service, multiply it by the monthly trips and estimate the savings.
Points accept decimal degrees, DMS or MGRS.`,
		Example: `  greenroute route --class van --from "40.4168,-3.7038" --to "39.4699,-0.3763" --trips 8 --round-trip --fuel-price 1.5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vc, err := impact.ParseVehicleClass(class)
			if err != nil {
				return a.localize(err)
			}
			if err := core.ValidateTripsPerMonth(trips); err != nil {
				return err
			}
			origin, _, err := coords.Parse(from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			dest, _, err := coords.Parse(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			router, err := a.router()
			if err != nil {
				return err
			}
			lane, err := router.LaneDistance(cmd.Context(), origin, dest)
			if err != nil {
				return err
			}

			in := impact.Input{
				VehicleClass:      vc,
				MonthlyDistanceKm: fleet.MonthlyDistance(lane.DistanceKm, trips, roundTrip),
				FuelPricePerLiter: a.fuelPrice(),
			}
			res, err := a.estimator.Calculate(in)
			if err != nil {
				return a.localize(err)
			}

			r := a.renderer(cmd.OutOrStdout())
			if r.json() {
				return r.writeJSON(RouteOutput{
					Lane:              lane,
					TripsPerMonth:     trips,
					RoundTrip:         roundTrip,
					MonthlyDistanceKm: in.MonthlyDistanceKm,
					Input:             in,
					Result:            res,
					Display:           impact.Format(res),
				})
			}

			profile, _ := a.estimator.Profile(vc)
			rows := []row{
				{r.text(lblVehicle), profile.Name},
				{r.text(lblLane), fmt.Sprintf("%s → %s (%s km)", lane.From, lane.To, r.num.Number(lane.DistanceKm, 1))},
				{r.text(lblTrips), r.num.Number(trips, 0)},
				{r.text(lblMonthlyDistance), r.num.Number(in.MonthlyDistanceKm, 0) + " km"},
				{r.text(lblFuelPrice), r.num.Number(in.FuelPricePerLiter, 2)},
			}
			r.table(r.text(lblEstimate), append(rows, r.resultRows(res)...))
			return nil
		},
	}

	cmd.Flags().StringVarP(&class, "class", "c", "", "vehicle class: "+classList())
	cmd.Flags().StringVar(&from, "from", "", "origin point")
	cmd.Flags().StringVar(&to, "to", "", "destination point")
	cmd.Flags().Float64Var(&trips, "trips", 0, "trips per month")
	cmd.Flags().BoolVar(&roundTrip, "round-trip", false, "count the return leg of every trip")
	for _, name := range []string{"class", "from", "to", "trips"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
