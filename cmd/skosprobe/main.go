package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teranos/skosprobe/cmd/skosprobe/commands"
	"github.com/teranos/skosprobe/logger"
)

var rootCmd = &cobra.Command{
	Use:   "skosprobe",
	Short: "skosprobe - capability-aware SPARQL client for SKOS vocabularies",
	Long: `skosprobe - capability-aware SPARQL client for SKOS vocabularies.

skosprobe probes a SPARQL endpoint for what it actually supports (result
formats, named graphs, concept schemes, materialized SKOS predicates, label
properties, languages) and uses that snapshot to choose query shapes that
are correct and fast on that endpoint.

Available commands:
  analyze   - Probe an endpoint and print its capability snapshot
  query     - Run a SELECT or ASK query
  construct - Run a CONSTRUCT or DESCRIBE query
  ping      - Check that an endpoint is reachable
  plan      - Render queries adapted to stored capabilities
  snapshot  - Manage stored capability snapshots
  am        - Manage skosprobe configuration ("I am")

Examples:
  skosprobe analyze https://vocab.example.org/sparql --save
  skosprobe plan scheme http://ex.org/scheme/animals --latest --endpoint https://vocab.example.org/sparql
  skosprobe am show`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("log-json")
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs to stderr as JSON")

	rootCmd.AddCommand(commands.AnalyzeCmd)
	rootCmd.AddCommand(commands.QueryCmd)
	rootCmd.AddCommand(commands.ConstructCmd)
	rootCmd.AddCommand(commands.PingCmd)
	rootCmd.AddCommand(commands.PlanCmd)
	rootCmd.AddCommand(commands.SnapshotCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Cleanup()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+commands.FormatError(err))
		os.Exit(1)
	}
}
