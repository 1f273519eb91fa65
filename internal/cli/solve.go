package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/me/linsched/pkg/model"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newSolveCmd() *cobra.Command {
	var (
		sched    string
		scenario string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve a predefined scenario with every method",
		Example: `  linsched solve --sched rr --scenario medio
  linsched solve --sched sjf --scenario complejo --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("sched", sched)
			q.Set("scenario", scenario)

			resp, err := client.Post("/api/v1/solve?"+q.Encode(), nil)
			if err != nil {
				return fmt.Errorf("solve %s: %w", scenario, err)
			}
			return writeSolveResponse(cmd.OutOrStdout(), resp, asJSON)
		},
	}
	cmd.Flags().StringVar(&sched, "sched", "fcfs", "Scheduler policy (fcfs, rr, sjf)")
	cmd.Flags().StringVar(&scenario, "scenario", "simple", "Scenario (simple, medio, complejo)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON results")
	return cmd
}

func newCustomCmd() *cobra.Command {
	var (
		sched  string
		name   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "custom <system.yaml>",
		Short: "Solve a linear system read from a YAML or JSON file",
		Long: `Solve a linear system read from a YAML or JSON file with the keys
a (square matrix), b (right-hand side) and optionally sched and name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := loadSystemFile(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("sched") || req.Policy == "" {
				req.Policy = sched
			}
			if name != "" {
				req.Name = name
			}
			logger.Debug("custom system loaded", "file", args[0], "n", len(req.B), "sched", req.Policy)

			resp, err := client.Post("/api/v1/solve/custom", req)
			if err != nil {
				return fmt.Errorf("solve custom system: %w", err)
			}
			return writeSolveResponse(cmd.OutOrStdout(), resp, asJSON)
		},
	}
	cmd.Flags().StringVar(&sched, "sched", "fcfs", "Scheduler policy (fcfs, rr, sjf); overrides the file")
	cmd.Flags().StringVar(&name, "name", "", "Label for the system; overrides the file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON results")
	return cmd
}

func newCircuitCmd() *cobra.Command {
	var (
		req    model.PhysicalSolveRequest
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "circuit",
		Short: "Solve a series or parallel resistor circuit",
		Example: `  linsched circuit --topology series --voltage 12 --resistances 2,4
  linsched circuit --topology parallel --voltage 6 --resistances 2,3 --sched rr`,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Post("/api/v1/solve/physical", req)
			if err != nil {
				return fmt.Errorf("solve circuit: %w", err)
			}
			return writeSolveResponse(cmd.OutOrStdout(), resp, asJSON)
		},
	}
	cmd.Flags().StringVar(&req.Policy, "sched", "fcfs", "Scheduler policy (fcfs, rr, sjf)")
	cmd.Flags().StringVar(&req.Topology, "topology", "series", "Circuit topology (series, parallel)")
	cmd.Flags().Float64Var(&req.Voltage, "voltage", 0, "Source voltage")
	cmd.Flags().Float64SliceVar(&req.Resistances, "resistances", nil, "Comma-separated resistances in ohms")
	cmd.Flags().StringVar(&req.Name, "name", "", "Label for the circuit")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON results")
	cmd.MarkFlagRequired("voltage")
	cmd.MarkFlagRequired("resistances")
	return cmd
}

// loadSystemFile reads a SolveRequest from YAML. JSON files parse as YAML.
func loadSystemFile(path string) (model.SolveRequest, error) {
	var req model.SolveRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("read system file: %w", err)
	}
	if err := yaml.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("parse system file %s: %w", path, err)
	}
	if len(req.A) == 0 || len(req.B) == 0 {
		return req, fmt.Errorf("system file %s: a and b are required", path)
	}
	return req, nil
}

func writeSolveResponse(w io.Writer, resp *apiResponse, asJSON bool) error {
	var data model.SolveResponse
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	printResults(w, data.Results)
	return nil
}
