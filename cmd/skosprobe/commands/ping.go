package commands

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// PingCmd checks that an endpoint answers a trivial ASK query.
var PingCmd = &cobra.Command{
	Use:   "ping [endpoint-url]",
	Short: "Check that a SPARQL endpoint is reachable",
	Long: `Send a trivial ASK query with a short timeout and no retries.

The timeout is query.connect_timeout_ms (10s by default).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPing,
}

func runPing(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	var url string
	if len(args) == 1 {
		url = args[0]
	}
	ep, err := endpointFor(cfg, url)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := newExecutor(cfg).TestConnection(cmd.Context(), ep); err != nil {
		return err
	}
	pterm.Success.WithWriter(cmd.OutOrStdout()).Printfln("%s is reachable (%s)", ep.URL, time.Since(start).Round(time.Millisecond))
	return nil
}
