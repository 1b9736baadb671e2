package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/skosprobe/am"
	"github.com/teranos/skosprobe/capability"
	"github.com/teranos/skosprobe/display"
	"github.com/teranos/skosprobe/errors"
	"github.com/teranos/skosprobe/logger"
	"github.com/teranos/skosprobe/planner"
	"github.com/teranos/skosprobe/snapshot"
)

// PlanCmd renders capability-aware queries from a stored snapshot.
var PlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Render queries adapted to an endpoint's capabilities",
	Long: `Render SPARQL queries adapted to what an endpoint is known to support.

Capabilities come from a snapshot file (--snapshot) or from the latest
snapshot stored for the endpoint (--latest). Without either, the planner
assumes nothing and always chooses path traversal.

Examples:
  skosprobe plan scheme http://ex.org/scheme/animals --latest
  skosprobe plan scheme http://ex.org/scheme/animals --snapshot snap.json --limit 100
  skosprobe plan orphans --latest --endpoint https://vocab.example.org/sparql`,
}

var planSchemeCmd = &cobra.Command{
	Use:   "scheme <scheme-uri>",
	Short: "Show the strategy and query listing the concepts of a scheme",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanScheme,
}

var planOrphansCmd = &cobra.Command{
	Use:   "orphans",
	Short: "Show the query listing concepts attached to no scheme",
	Args:  cobra.NoArgs,
	RunE:  runPlanOrphans,
}

var (
	planSnapshotFile string
	planLatest       bool
	planEndpoint     string
	planLimit        int
	planStrategy     string
	planFormat       string
)

// planView is the structured output of plan subcommands.
type planView struct {
	Scheme   string            `json:"scheme,omitempty" yaml:"scheme,omitempty"`
	Decision *planner.Decision `json:"decision,omitempty" yaml:"decision,omitempty"`
	Query    string            `json:"query" yaml:"query"`
}

func init() {
	PlanCmd.PersistentFlags().StringVar(&planSnapshotFile, "snapshot", "", "Read capabilities from a snapshot file")
	PlanCmd.PersistentFlags().BoolVar(&planLatest, "latest", false, "Use the latest stored snapshot of the endpoint")
	PlanCmd.PersistentFlags().StringVar(&planEndpoint, "endpoint", "", "Endpoint for --latest (default endpoint.url)")
	PlanCmd.PersistentFlags().IntVar(&planLimit, "limit", 0, "Append LIMIT n to the query (0 = none)")
	PlanCmd.PersistentFlags().StringVar(&planFormat, "format", display.FormatTable, "Output format: table, json, yaml")
	planSchemeCmd.Flags().StringVar(&planStrategy, "strategy", "", "Force a strategy: direct or path-traversal")

	PlanCmd.AddCommand(planSchemeCmd)
	PlanCmd.AddCommand(planOrphansCmd)
}

// loadPlanner builds a planner from the selected snapshot source.
func loadPlanner(cmd *cobra.Command, cfg *am.Config) (*planner.Planner, error) {
	if planSnapshotFile != "" && planLatest {
		return nil, errors.New("--snapshot and --latest are mutually exclusive")
	}

	var analysis *capability.AnalysisResult
	switch {
	case planSnapshotFile != "":
		a, err := capability.LoadSnapshotFile(planSnapshotFile)
		if err != nil {
			return nil, err
		}
		analysis = a
	case planLatest:
		ep, err := endpointFor(cfg, planEndpoint)
		if err != nil {
			return nil, err
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return nil, err
		}
		defer database.Close()
		rec, err := snapshot.NewStore(database, logger.ComponentLogger("snapshot")).Latest(cmd.Context(), ep.URL)
		if err != nil {
			if errors.IsNotFoundError(err) {
				return nil, errors.WithHintf(err, "run 'skosprobe analyze %s --save' first", ep.URL)
			}
			return nil, err
		}
		analysis = rec.Analysis
	default:
		pterm.Warning.WithWriter(cmd.ErrOrStderr()).Println("No snapshot given, assuming no capabilities")
	}
	return planner.New(analysis), nil
}

func runPlanScheme(cmd *cobra.Command, args []string) error {
	if err := display.CheckFormat(planFormat, display.FormatTable, display.FormatJSON, display.FormatYAML); err != nil {
		return err
	}
	var opts []planner.Option
	switch planner.Strategy(planStrategy) {
	case "":
	case planner.StrategyDirect, planner.StrategyPathTraversal:
		opts = append(opts, planner.ForceStrategy(planner.Strategy(planStrategy)))
	default:
		return errors.WithHint(errors.Newf("unknown strategy %q", planStrategy),
			"use direct or path-traversal")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := loadPlanner(cmd, cfg)
	if err != nil {
		return err
	}

	scheme := args[0]
	decision := p.Decide(scheme)
	if planStrategy != "" {
		decision = planner.Decision{Strategy: planner.Strategy(planStrategy), Reason: "forced with --strategy"}
	}
	view := planView{
		Scheme:   scheme,
		Decision: &decision,
		Query:    p.ConceptsInSchemeQuery(scheme, planLimit, opts...),
	}
	return writePlan(cmd, view)
}

func runPlanOrphans(cmd *cobra.Command, args []string) error {
	if err := display.CheckFormat(planFormat, display.FormatTable, display.FormatJSON, display.FormatYAML); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := loadPlanner(cmd, cfg)
	if err != nil {
		return err
	}
	return writePlan(cmd, planView{Query: p.OrphanConceptsQuery(planLimit)})
}

func writePlan(cmd *cobra.Command, view planView) error {
	if planFormat != display.FormatTable {
		return display.Write(cmd.OutOrStdout(), planFormat, view)
	}
	if view.Decision != nil {
		info := pterm.Info.WithWriter(cmd.ErrOrStderr())
		info.Printfln("Strategy: %s", view.Decision.Strategy)
		info.Printfln("Reason:   %s", view.Decision.Reason)
	}
	printf(cmd, "%s\n", view.Query)
	return nil
}
