package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/NERVsystems/greenroute/pkg/impact"
)

// ErrInvalidInput is returned by validate when any check fails.
var ErrInvalidInput = errors.New("input is invalid")

// ValidationIssue is one failed check.
type ValidationIssue struct {
	Kind    string  `json:"kind"`
	Field   string  `json:"field"`
	Message string  `json:"message"`
	Limit   float64 `json:"limit,omitempty"`
}

// ValidateOutput is the JSON shape of a validation run.
type ValidateOutput struct {
	Valid  bool              `json:"valid"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

func newValidateCmd(a *app) *cobra.Command {
	var distance float64

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a monthly distance and fuel price without estimating",
		Long: `Check a monthly distance and fuel price against the accepted ranges and
report every problem found, distance first. Exits non-zero when invalid.`,
		Example: `  greenroute validate --distance 50 --fuel-price 0`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			errs := a.estimator.Check(impact.Input{
				MonthlyDistanceKm: distance,
				FuelPricePerLiter: a.fuelPrice(),
			})

			r := a.renderer(cmd.OutOrStdout())
			out := ValidateOutput{Valid: len(errs) == 0}
			for _, e := range errs {
				out.Issues = append(out.Issues, ValidationIssue{
					Kind:    string(e.Kind),
					Field:   e.Field,
					Message: e.Message(r.tag),
					Limit:   e.Limit,
				})
			}

			if r.json() {
				if err := r.writeJSON(out); err != nil {
					return err
				}
			} else if out.Valid {
				r.line(r.text(lblValid))
			} else {
				for _, issue := range out.Issues {
					r.problem(issue.Message)
				}
			}

			if !out.Valid {
				return ErrInvalidInput
			}
			return nil
		},
	}

	cmd.Flags().Float64VarP(&distance, "distance", "d", 0, "monthly distance in km")
	return cmd
}
