package am

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/teranos/skosprobe/analyze"
	"github.com/teranos/skosprobe/sparql"
)

// DefaultDatabasePath is used when database.path is not configured.
const DefaultDatabasePath = "skosprobe.db"

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("endpoint.url", "")
	v.SetDefault("endpoint.block_private", false)
	v.SetDefault("endpoint.auth.type", string(sparql.AuthNone))
	v.SetDefault("endpoint.auth.username", "")
	v.SetDefault("endpoint.auth.password", "")
	v.SetDefault("endpoint.auth.token", "")
	v.SetDefault("endpoint.auth.api_key", "")
	v.SetDefault("endpoint.auth.api_key_header", sparql.DefaultAPIKeyHeader)

	v.SetDefault("query.timeout_ms", sparql.DefaultTimeout.Milliseconds())
	v.SetDefault("query.retries", sparql.DefaultRetries)
	v.SetDefault("query.retry_delay_ms", sparql.DefaultRetryDelay.Milliseconds())
	v.SetDefault("query.connect_timeout_ms", sparql.ConnectionTestTimeout.Milliseconds())
	v.SetDefault("query.rate_limit", 0.0) // unlimited
	v.SetDefault("query.rate_burst", 1)
	v.SetDefault("query.accept_xml", false)

	v.SetDefault("analysis.probe_retries", analyze.DefaultProbeRetries)
	v.SetDefault("analysis.probe_timeout_ms", analyze.DefaultProbeTimeout.Milliseconds())
	v.SetDefault("analysis.graph_cap", analyze.DefaultGraphCap)
	v.SetDefault("analysis.scheme_cap", analyze.DefaultSchemeCap)
	v.SetDefault("analysis.language_batch_size", analyze.DefaultLanguageBatchSize)
	v.SetDefault("analysis.language_sample_limit", analyze.DefaultLanguageSampleLimit)
	v.SetDefault("analysis.language_top", analyze.DefaultLanguageTop)

	v.SetDefault("database.path", DefaultDatabasePath)
}

// BindSensitiveEnvVars explicitly binds credentials to environment variables
// so they need not be written to any file.
func BindSensitiveEnvVars(v *viper.Viper) {
	v.BindEnv("endpoint.auth.password", EnvPrefix+"_ENDPOINT_AUTH_PASSWORD")
	v.BindEnv("endpoint.auth.token", EnvPrefix+"_ENDPOINT_AUTH_TOKEN")
	v.BindEnv("endpoint.auth.api_key", EnvPrefix+"_ENDPOINT_AUTH_API_KEY")
	v.BindEnv("database.path", EnvPrefix+"_DATABASE_PATH")
}

// GetDatabasePath returns the configured database path
func (c *Config) GetDatabasePath() string {
	if c.Database.Path == "" {
		return DefaultDatabasePath
	}
	return c.Database.Path
}

// String returns a string representation of the config with secrets omitted.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Endpoint: %s, Auth: %s, Query: {TimeoutMS: %d, Retries: %d}, Database: %s}",
		c.Endpoint.URL, c.Endpoint.Auth.Type, c.Query.TimeoutMS, c.Query.Retries, c.GetDatabasePath())
}
