package cli

import (
	"encoding/json"
	"fmt"

	"github.com/me/linsched/pkg/model"
	"github.com/spf13/cobra"
)

func newMetricsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show aggregated job metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/metrics")
			if err != nil {
				return fmt.Errorf("get metrics: %w", err)
			}
			out := cmd.OutOrStdout()
			if resp.NoContent {
				fmt.Fprintln(out, "No jobs recorded yet.")
				return nil
			}

			var snap model.MetricsSnapshot
			if err := json.Unmarshal(resp.Data, &snap); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}
			printSnapshot(out, snap)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON snapshot")
	return cmd
}
