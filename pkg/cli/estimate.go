package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/NERVsystems/greenroute/pkg/core"
	"github.com/NERVsystems/greenroute/pkg/fleet"
	"github.com/NERVsystems/greenroute/pkg/impact"
)

// EstimateOutput is the JSON shape of a single estimate.
type EstimateOutput struct {
	Input   impact.Input   `json:"input"`
	Result  impact.Result  `json:"result"`
	Display impact.Display `json:"display"`
}

func newEstimateCmd(a *app) *cobra.Command {
	var (
		class    string
		distance float64
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate monthly savings for one vehicle",
		Example: `  greenroute estimate --class van --distance 2000 --fuel-price 1.5
  greenroute estimate --class heavy_truck --distance 12000 --fuel-price 1.62 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vc, err := impact.ParseVehicleClass(class)
			if err != nil {
				return a.localize(err)
			}
			in := impact.Input{
				VehicleClass:      vc,
				MonthlyDistanceKm: distance,
				FuelPricePerLiter: a.fuelPrice(),
			}
			res, err := a.estimator.Calculate(in)
			if err != nil {
				return a.localize(err)
			}
			a.logger.Debug("estimate computed", "vehicle_class", vc, "co2_saved_kg", res.CO2SavedKg)

			r := a.renderer(cmd.OutOrStdout())
			if r.json() {
				return r.writeJSON(EstimateOutput{Input: in, Result: res, Display: impact.Format(res)})
			}

			profile, _ := a.estimator.Profile(vc)
			rows := []row{
				{r.text(lblVehicle), profile.Name},
				{r.text(lblMonthlyDistance), r.num.Number(distance, 0) + " km"},
				{r.text(lblFuelPrice), r.num.Number(in.FuelPricePerLiter, 2)},
			}
			r.table(r.text(lblEstimate), append(rows, r.resultRows(res)...))
			return nil
		},
	}

	cmd.Flags().StringVarP(&class, "class", "c", "", "vehicle class: "+classList())
	cmd.Flags().Float64VarP(&distance, "distance", "d", 0, "monthly distance in km")
	_ = cmd.MarkFlagRequired("class")
	_ = cmd.MarkFlagRequired("distance")
	return cmd
}

func classList() string {
	names := make([]string, 0, len(impact.AllClasses()))
	for _, c := range impact.AllClasses() {
		names = append(names, c.String())
	}
	return strings.Join(names, ", ")
}

// commandError carries a localized message for an underlying error.
type commandError struct {
	msg string
	err error
}

func (e *commandError) Error() string { return e.msg }
func (e *commandError) Unwrap() error { return e.err }

// localize replaces estimator errors with their message in the configured
// language. Other errors are returned unchanged.
func (a *app) localize(err error) error {
	return localize(err, a.language())
}

func localize(err error, tag language.Tag) error {
	if err == nil || impact.KindOf(err) == "" {
		return err
	}
	var entryErr *fleet.EntryError
	cause := err
	if errors.As(err, &entryErr) {
		cause = entryErr.Err
	}

	me := core.FromImpactError(cause, tag)
	msg := me.Message
	if len(me.Suggestions) > 0 {
		msg += " (" + strings.Join(me.Suggestions, ", ") + ")"
	}
	if entryErr != nil {
		msg = fmt.Sprintf("vehicle %d (%s): %s", entryErr.Index+1, entryErr.Name, msg)
	}
	return &commandError{msg: msg, err: err}
}
