package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/NERVsystems/greenroute/pkg/fleet"
)

func newFleetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fleet SCENARIO",
		Short: "Estimate monthly savings for a fleet scenario file",
		Long: `Estimate a YAML fleet scenario. Each entry gives a vehicle class, a count and
either a monthly distance or a lane between two points. Use "-" to read the
scenario from stdin. --fuel-price fills in a scenario without a price.`,
		Example: `  greenroute fleet scenario.yaml
  cat scenario.yaml | greenroute fleet - -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadScenario(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if s.FuelPricePerLiter == 0 {
				s.FuelPricePerLiter = a.fuelPrice()
			}

			// A nil *routing.Router must not reach the LaneResolver interface.
			var resolver fleet.LaneResolver
			if hasLanes(s) {
				router, err := a.router()
				if err != nil {
					return err
				}
				resolver = router
			}

			sum, err := fleet.Estimate(cmd.Context(), s, a.estimator, resolver)
			if err != nil {
				return a.localize(err)
			}

			r := a.renderer(cmd.OutOrStdout())
			if r.json() {
				return r.writeJSON(sum)
			}

			for i, e := range sum.Entries {
				name := e.Name
				if name == "" {
					name = fmt.Sprintf("#%d", i+1)
				}
				profile, _ := a.estimator.Profile(e.VehicleClass)
				r.table(fmt.Sprintf("%s: %d × %s", name, e.Count, profile.Name), []row{
					{r.text(lblMonthlyDistance), r.num.Number(e.MonthlyDistanceKm, 0) + " km"},
					{r.text(lblCO2), r.num.Number(e.Total.CO2SavedKg, 1) + " kg"},
					{r.text(lblMoney), r.num.Number(e.Total.MoneySavedCurrency, 2)},
				})
			}

			title := r.text(lblTotal)
			if sum.Scenario != "" {
				title += ": " + sum.Scenario
			}
			rows := []row{{r.text(lblVehicles), r.num.Number(float64(sum.Vehicles), 0)}}
			r.table(title, append(rows, r.resultRows(sum.Total)...))
			return nil
		},
	}
}

func (a *app) loadScenario(stdin io.Reader, path string) (*fleet.Scenario, error) {
	if path != "-" {
		return fleet.Load(path)
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return fleet.Parse(data)
}

func hasLanes(s *fleet.Scenario) bool {
	for _, e := range s.Vehicles {
		if e.Lane != nil {
			return true
		}
	}
	return false
}
