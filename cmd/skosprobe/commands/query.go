package commands

import (
	"os"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/skosprobe/display"
	"github.com/teranos/skosprobe/errors"
	"github.com/teranos/skosprobe/logger"
	"github.com/teranos/skosprobe/sparql"
)

// QueryCmd runs a SELECT or ASK query.
var QueryCmd = &cobra.Command{
	Use:   "query [endpoint-url] <sparql>",
	Short: "Run a SELECT or ASK query",
	Long: `Run a SELECT or ASK query against a SPARQL endpoint.

The standard SKOS, RDF, RDFS, Dublin Core and SKOS-XL prefixes are declared
unless --no-prefixes is given.

Examples:
  skosprobe query 'SELECT ?s WHERE { ?s a skos:ConceptScheme } LIMIT 10'
  skosprobe query https://vocab.example.org/sparql 'ASK { ?s a skos:Concept }'
  skosprobe query -f concepts.rq --format json`,
	Args: cobra.RangeArgs(0, 2),
	RunE: runQuery,
}

// ConstructCmd runs a CONSTRUCT or DESCRIBE query and prints the raw graph.
var ConstructCmd = &cobra.Command{
	Use:   "construct [endpoint-url] <sparql>",
	Short: "Run a CONSTRUCT or DESCRIBE query",
	Long: `Run a CONSTRUCT or DESCRIBE query and print the returned graph as-is.

Examples:
  skosprobe construct 'DESCRIBE <http://ex.org/c1>' --rdf-format ntriples
  skosprobe construct -f scheme.rq --rdf-format jsonld > scheme.jsonld`,
	Args: cobra.RangeArgs(0, 2),
	RunE: runConstruct,
}

var (
	queryFile       string
	queryFormat     string
	queryNoPrefixes bool
	constructFormat string
)

func init() {
	for _, c := range []*cobra.Command{QueryCmd, ConstructCmd} {
		c.Flags().StringVarP(&queryFile, "file", "f", "", "Read the query from a file")
		c.Flags().BoolVar(&queryNoPrefixes, "no-prefixes", false, "Send the query without standard prefix declarations")
	}
	QueryCmd.Flags().StringVar(&queryFormat, "format", display.FormatTable, "Output format: table, json, yaml")
	ConstructCmd.Flags().StringVar(&constructFormat, "rdf-format", string(sparql.FormatTurtle),
		"Serialization: turtle, ntriples, rdfxml, jsonld")
}

// queryArgs splits [url] <sparql> positionals, or [url] alone with --file.
func queryArgs(args []string) (url, query string, err error) {
	if queryFile != "" {
		if len(args) > 1 {
			return "", "", errors.New("with --file only the endpoint URL may be given")
		}
		data, err := os.ReadFile(queryFile)
		if err != nil {
			return "", "", errors.Wrapf(err, "failed to read query file %s", queryFile)
		}
		if len(args) == 1 {
			url = args[0]
		}
		query = string(data)
	} else {
		switch len(args) {
		case 1:
			query = args[0]
		case 2:
			url, query = args[0], args[1]
		default:
			return "", "", errors.WithHint(errors.New("no query given"), "pass the query as an argument or use --file")
		}
	}
	if !queryNoPrefixes {
		query = sparql.WithPrefixes(query)
	}
	return url, query, nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	if err := display.CheckFormat(queryFormat, display.FormatTable, display.FormatJSON, display.FormatYAML); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	url, query, err := queryArgs(args)
	if err != nil {
		return err
	}
	ep, err := endpointFor(cfg, url)
	if err != nil {
		return err
	}
	if logger.ShouldOutput(verbosity(cmd), logger.OutputQueries) {
		logger.Logger.Debugw("Sending query", logger.FieldEndpoint, ep.URL, logger.FieldQuery, query)
	}

	start := time.Now()
	result, err := newExecutor(cfg).Query(cmd.Context(), ep, query, sparql.QueryOptions{})
	if err != nil {
		return err
	}
	reportElapsed(cmd, start)

	if queryFormat != display.FormatTable {
		return display.Write(cmd.OutOrStdout(), queryFormat, toResultView(result))
	}
	return renderResult(cmd, result)
}

// resultView is the structured output shape of a query result.
type resultView struct {
	Boolean  *bool               `json:"boolean,omitempty" yaml:"boolean,omitempty"`
	Vars     []string            `json:"vars,omitempty" yaml:"vars,omitempty"`
	Bindings []map[string]string `json:"bindings,omitempty" yaml:"bindings,omitempty"`
}

func toResultView(r *sparql.Result) resultView {
	if r.IsBoolean() {
		return resultView{Boolean: r.Boolean}
	}
	rows := make([]map[string]string, 0, len(r.Bindings))
	for _, row := range r.Bindings {
		m := make(map[string]string, len(row))
		for name := range row {
			m[name] = row.Value(name)
		}
		rows = append(rows, m)
	}
	return resultView{Vars: r.Vars, Bindings: rows}
}

func renderResult(cmd *cobra.Command, r *sparql.Result) error {
	if r.IsBoolean() {
		printf(cmd, "%s\n", strconv.FormatBool(*r.Boolean))
		return nil
	}
	data := pterm.TableData{r.Vars}
	for _, row := range r.Bindings {
		line := make([]string, len(r.Vars))
		for i, name := range r.Vars {
			line[i] = row.Value(name)
		}
		data = append(data, line)
	}
	if err := pterm.DefaultTable.WithHasHeader().WithWriter(cmd.OutOrStdout()).WithData(data).Render(); err != nil {
		return err
	}
	pterm.Info.WithWriter(cmd.ErrOrStderr()).Printfln("%d row(s)", len(r.Bindings))
	return nil
}

func runConstruct(cmd *cobra.Command, args []string) error {
	format, err := sparql.ParseRDFFormat(constructFormat)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	url, query, err := queryArgs(args)
	if err != nil {
		return err
	}
	ep, err := endpointFor(cfg, url)
	if err != nil {
		return err
	}

	start := time.Now()
	body, err := newExecutor(cfg).Construct(cmd.Context(), ep, query, format, sparql.QueryOptions{})
	if err != nil {
		return err
	}
	reportElapsed(cmd, start)
	printf(cmd, "%s", body)
	return nil
}

// reportElapsed prints the request time on stderr at -vv and above.
func reportElapsed(cmd *cobra.Command, start time.Time) {
	if logger.ShouldOutput(verbosity(cmd), logger.OutputTiming) {
		pterm.Info.WithWriter(cmd.ErrOrStderr()).Printfln("took %s", time.Since(start).Round(time.Millisecond))
	}
}
