package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/skosprobe/analyze"
	"github.com/teranos/skosprobe/capability"
	"github.com/teranos/skosprobe/display"
	"github.com/teranos/skosprobe/logger"
	"github.com/teranos/skosprobe/snapshot"
)

// AnalyzeCmd probes an endpoint and prints its capability snapshot.
var AnalyzeCmd = &cobra.Command{
	Use:   "analyze [endpoint-url]",
	Short: "Probe a SPARQL endpoint for its SKOS capabilities",
	Long: `Run the capability probe battery against a SPARQL endpoint.

The analysis checks result-format support, SKOS presence, named graphs,
concept schemes, resource counts, relationship and label predicates, and
literal languages. Probes that fail are reported as unknown rather than
aborting the run.

Examples:
  skosprobe analyze https://vocab.example.org/sparql
  skosprobe analyze --save                     # uses endpoint.url, stores the snapshot
  skosprobe analyze --format json > snap.json  # write a snapshot file`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeSave   bool
	analyzeFormat string
)

func init() {
	AnalyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "Store the snapshot in the database")
	AnalyzeCmd.Flags().StringVar(&analyzeFormat, "format", display.FormatTable, "Output format: table, json, yaml")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := display.CheckFormat(analyzeFormat, display.FormatTable, display.FormatJSON, display.FormatYAML); err != nil {
		return err
	}
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

	progress := analyzeFormat == display.FormatTable || logger.ShouldOutput(verbosity(cmd), logger.OutputProgress)
	stepOut := pterm.Info.WithWriter(cmd.ErrOrStderr())
	analyzer := analyze.NewAnalyzer(newExecutor(cfg),
		analyze.WithConfig(cfg.AnalyzerConfig()),
		analyze.WithLogger(logger.ComponentLogger("analyze")),
		analyze.WithStepFunc(func(s analyze.Step) {
			if progress {
				stepOut.Printfln("[%d/%d] %s: %s (%s)", s.Index, s.Total, s.Name, s.Result, s.Duration.Round(time.Millisecond))
			}
		}),
	)

	result, err := analyzer.Analyze(cmd.Context(), ep)
	if err != nil {
		return err
	}

	if analyzeSave {
		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()
		id, err := snapshot.NewStore(database, logger.ComponentLogger("snapshot")).Save(cmd.Context(), ep.URL, result)
		if err != nil {
			return err
		}
		pterm.Success.WithWriter(cmd.ErrOrStderr()).Printfln("Snapshot saved: %s", id)
	}

	if analyzeFormat != display.FormatTable {
		return display.Write(cmd.OutOrStdout(), analyzeFormat, result)
	}
	return renderAnalysis(cmd.OutOrStdout(), ep.URL, result)
}

// renderAnalysis prints a human-readable capability summary.
func renderAnalysis(w io.Writer, endpointURL string, a *capability.AnalysisResult) error {
	schemes := fmt.Sprintf("%d", a.SchemeCount)
	if a.SchemesLimited {
		schemes += fmt.Sprintf(" (%d listed)", len(a.SchemeURIs))
	}
	graphs := a.SkosGraphCount.String()
	if a.SkosGraphURIs == nil && a.SkosGraphCount.Known() {
		graphs += " (not listed)"
	}

	data := pterm.TableData{
		{"Capability", "Value"},
		{"Endpoint", endpointURL},
		{"JSON results", a.SupportsJSON.String()},
		{"SKOS content", a.HasSkosContent.String()},
		{"Named graphs", a.SupportsNamedGraphs.String()},
		{"SKOS graphs", graphs},
		{"Concept schemes", schemes},
		{"Concepts", a.TotalConcepts.String()},
		{"Collections", a.TotalCollections.String()},
		{"Ordered collections", a.TotalOrderedCollections.String()},
		{"skos:inScheme", a.Relationships.HasInScheme.String()},
		{"skos:topConceptOf", a.Relationships.HasTopConceptOf.String()},
		{"skos:hasTopConcept", a.Relationships.HasHasTopConcept.String()},
		{"skos:broader", a.Relationships.HasBroader.String()},
		{"skos:narrower", a.Relationships.HasNarrower.String()},
		{"skos:broaderTransitive", a.Relationships.HasBroaderTransitive.String()},
		{"skos:narrowerTransitive", a.Relationships.HasNarrowerTransitive.String()},
		{"Concept labels", labelSummary(a.LabelPredicates.Concept)},
		{"Scheme labels", labelSummary(a.LabelPredicates.Scheme)},
		{"Collection labels", labelSummary(a.LabelPredicates.Collection)},
		{"Languages", languageSummary(a.Languages)},
		{"Analyzed at", a.AnalyzedAt.Format("2006-01-02 15:04:05 MST")},
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(data).Render()
}

func labelSummary(l capability.LabelPredicates) string {
	var present []string
	for _, lp := range capability.AllLabelPredicates {
		if l.Get(lp).IsTrue() {
			present = append(present, lp.Path())
		}
	}
	if len(present) == 0 {
		return "-"
	}
	return strings.Join(present, ", ")
}

func languageSummary(langs []capability.LanguageCount) string {
	order := analyze.GenerateLanguagePriorities(langs)
	if len(order) == 0 {
		return "-"
	}
	if len(order) > 8 {
		return strings.Join(order[:8], ", ") + fmt.Sprintf(" (+%d)", len(order)-8)
	}
	return strings.Join(order, ", ")
}
