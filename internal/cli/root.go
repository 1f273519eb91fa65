package cli

import (
	"log/slog"
	"os"

	"github.com/me/linsched/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagServer    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	client *Client
)

// defaultServer returns the default server URL, checking LINSCHED_SERVER env var first.
func defaultServer() string {
	if s := os.Getenv("LINSCHED_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root cobra command for the linsched CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "linsched",
		Short: "linsched: linear solvers under FCFS, RR and SJF scheduling",
		Long:  "linsched submits linear systems to a linsched server, which solves each one with Cramer, Gauss-Jordan and LU under a chosen dispatch policy.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLoggerWithWriter(logging.ParseLevel(flagLogLevel), flagLogFormat, cmd.ErrOrStderr())
			client = NewClient(flagServer, logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "linsched server URL (or LINSCHED_SERVER env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newSolveCmd(),
		newCustomCmd(),
		newCircuitCmd(),
		newMetricsCmd(),
		newExportCmd(),
		newClearCmd(),
		newWatchCmd(),
	)

	return root
}
