package cli

import (
	"github.com/spf13/cobra"

	"github.com/NERVsystems/greenroute/pkg/impact"
)

// ProfilesOutput is the JSON shape of the profile listing.
type ProfilesOutput struct {
	Profiles []impact.VehicleProfile `json:"profiles"`
	Limits   impact.Limits           `json:"limits"`
}

func newProfilesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the vehicle classes and their consumption figures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profiles := a.estimator.Profiles()

			r := a.renderer(cmd.OutOrStdout())
			if r.json() {
				return r.writeJSON(ProfilesOutput{Profiles: profiles, Limits: a.estimator.Limits()})
			}

			for _, p := range profiles {
				r.table(p.Name+" ("+p.Class.String()+")", []row{
					{r.text(lblConsumption), r.num.Number(p.ConsumptionPer100km, 1) + " L/100 km"},
					{r.text(lblCO2Factor), r.num.Number(p.CO2FactorPerLiter, 2) + " kg/L"},
				})
			}
			return nil
		},
	}
}
