package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the job log as CSV",
		Example: `  linsched export > jobs.csv
  linsched export -o jobs.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := client.GetRaw("/api/v1/logs/jobs")
			if err != nil {
				return fmt.Errorf("export job log: %w", err)
			}
			if data == nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Job log is empty.")
				return nil
			}

			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			rows := bytes.Count(data, []byte("\n")) - 1
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s rows (%s) to %s\n",
				humanize.Comma(int64(rows)), humanize.Bytes(uint64(len(data))), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the job log and reset the aggregates",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := client.Delete("/api/v1/logs/jobs"); err != nil {
				return fmt.Errorf("clear job log: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Job log cleared.")
			return nil
		},
	}
}
