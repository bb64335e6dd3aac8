package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the dashboard compliance figures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(opts)
			if err != nil {
				return err
			}
			stats, err := client.Dashboard().Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return printJSON(out, stats)
			}
			tw := newTable(out, "FIGURE", "VALUE")
			row(tw, "suppliers", stats.TotalSuppliers)
			row(tw, "compliant suppliers", stats.CompliantSuppliers)
			row(tw, "high risk suppliers", stats.HighRiskSuppliers)
			row(tw, "pending questionnaires", stats.PendingSAQs)
			row(tw, "submitted statements", stats.SubmittedStatements)
			row(tw, "compliance rate", fmt.Sprintf("%.1f%%", stats.ComplianceRate))
			return tw.Flush()
		},
	}
}
