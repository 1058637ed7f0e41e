package cli

import (
	"github.com/spf13/cobra"

	ver "github.com/NERVsystems/greenroute/pkg/version"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := a.renderer(cmd.OutOrStdout())
			if r.json() {
				return r.writeJSON(ver.Info())
			}
			r.line("greenroute " + ver.String())
			return nil
		},
	}
}
