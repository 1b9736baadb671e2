package commands

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/skosprobe/am"
	"github.com/teranos/skosprobe/db"
	"github.com/teranos/skosprobe/errors"
	"github.com/teranos/skosprobe/internal/httpclient"
	"github.com/teranos/skosprobe/logger"
	"github.com/teranos/skosprobe/sparql"
	"github.com/teranos/skosprobe/version"
)

// loadConfig loads and validates the configuration.
func loadConfig() (*am.Config, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithHint(errors.Wrap(err, "invalid configuration"),
			"run 'skosprobe am validate' for details")
	}
	return cfg, nil
}

// verbosity returns the count of -v flags, 0 when the flag is absent.
func verbosity(cmd *cobra.Command) int {
	v, err := cmd.Flags().GetCount("verbose")
	if err != nil {
		return 0
	}
	return v
}

// newExecutor builds an executor honoring the endpoint policy, rate limit and
// query defaults from cfg.
func newExecutor(cfg *am.Config) *sparql.Executor {
	client := httpclient.NewSaferClient(httpclient.Options{
		BlockPrivateIP: cfg.Endpoint.BlockPrivate,
		UserAgent:      version.Get().UserAgent(),
	})
	return sparql.NewExecutor(
		sparql.WithHTTPClient(client),
		sparql.WithLogger(logger.ComponentLogger("sparql")),
		sparql.WithRateLimit(cfg.Query.RateLimit, cfg.Query.RateBurst),
		sparql.WithDefaults(cfg.QueryOptions()),
		sparql.WithConnectTimeout(cfg.ConnectTimeout()),
	)
}

// endpointFor resolves the endpoint from an optional URL argument, falling
// back to endpoint.url.
func endpointFor(cfg *am.Config, url string) (sparql.Endpoint, error) {
	ep := cfg.SPARQLEndpoint(url)
	if ep.URL == "" {
		return ep, errors.WithHint(errors.New("no SPARQL endpoint given"),
			"pass the endpoint URL as an argument or run 'skosprobe am set endpoint.url <url>'")
	}
	return ep, nil
}

// openDatabase opens and migrates the snapshot database configured in cfg.
func openDatabase(cfg *am.Config) (*sql.DB, error) {
	path := cfg.GetDatabasePath()
	database, err := db.OpenWithMigrations(path, logger.ComponentLogger("db"))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", path)
	}
	return database, nil
}

// FormatError renders err for the terminal, with the hints attached to it.
func FormatError(err error) string {
	msg := err.Error()
	if appErr, ok := errors.AsAppError(err); ok && appErr.Hint != "" {
		msg += "\nhint: " + appErr.Hint
	}
	for _, hint := range errors.GetAllHints(err) {
		msg += "\nhint: " + hint
	}
	return msg
}

func printf(cmd *cobra.Command, format string, args ...interface{}) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
