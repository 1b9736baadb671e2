// Package am loads skosprobe configuration from TOML files and SKOSPROBE_*
// environment variables.
package am

import (
	"time"

	"github.com/teranos/skosprobe/analyze"
	"github.com/teranos/skosprobe/sparql"
)

// Config represents the skosprobe configuration
type Config struct {
	Endpoint EndpointConfig `mapstructure:"endpoint" toml:"endpoint"`
	Query    QueryConfig    `mapstructure:"query" toml:"query"`
	Analysis AnalysisConfig `mapstructure:"analysis" toml:"analysis"`
	Database DatabaseConfig `mapstructure:"database" toml:"database"`
}

// EndpointConfig names the default SPARQL endpoint and how to authenticate.
type EndpointConfig struct {
	URL          string     `mapstructure:"url" toml:"url"`
	Auth         AuthConfig `mapstructure:"auth" toml:"auth"`
	BlockPrivate bool       `mapstructure:"block_private" toml:"block_private"` // refuse loopback and private addresses
}

// AuthConfig selects one auth variant by Type: none, basic, bearer or apikey.
type AuthConfig struct {
	Type         string `mapstructure:"type" toml:"type"`
	Username     string `mapstructure:"username" toml:"username"`
	Password     string `mapstructure:"password" toml:"password"`
	Token        string `mapstructure:"token" toml:"token"`
	APIKey       string `mapstructure:"api_key" toml:"api_key"`
	APIKeyHeader string `mapstructure:"api_key_header" toml:"api_key_header"` // default X-API-Key
}

// QueryConfig configures interactive query execution.
type QueryConfig struct {
	TimeoutMS        int     `mapstructure:"timeout_ms" toml:"timeout_ms"`
	Retries          int     `mapstructure:"retries" toml:"retries"`
	RetryDelayMS     int     `mapstructure:"retry_delay_ms" toml:"retry_delay_ms"`
	ConnectTimeoutMS int     `mapstructure:"connect_timeout_ms" toml:"connect_timeout_ms"`
	RateLimit        float64 `mapstructure:"rate_limit" toml:"rate_limit"` // requests per second, 0 = unlimited
	RateBurst        int     `mapstructure:"rate_burst" toml:"rate_burst"`
	AcceptXML        bool    `mapstructure:"accept_xml" toml:"accept_xml"`
}

// AnalysisConfig configures the capability probe battery.
type AnalysisConfig struct {
	ProbeRetries        int `mapstructure:"probe_retries" toml:"probe_retries"`
	ProbeTimeoutMS      int `mapstructure:"probe_timeout_ms" toml:"probe_timeout_ms"`
	GraphCap            int `mapstructure:"graph_cap" toml:"graph_cap"`
	SchemeCap           int `mapstructure:"scheme_cap" toml:"scheme_cap"`
	LanguageBatchSize   int `mapstructure:"language_batch_size" toml:"language_batch_size"`
	LanguageSampleLimit int `mapstructure:"language_sample_limit" toml:"language_sample_limit"`
	LanguageTop         int `mapstructure:"language_top" toml:"language_top"`
}

// DatabaseConfig configures the SQLite snapshot store
type DatabaseConfig struct {
	Path string `mapstructure:"path" toml:"path"`
}

// File system constants
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)

// SPARQLEndpoint builds the endpoint descriptor. url overrides the configured
// URL when non-empty.
func (c *Config) SPARQLEndpoint(url string) sparql.Endpoint {
	if url == "" {
		url = c.Endpoint.URL
	}
	return sparql.Endpoint{URL: url, Auth: c.Endpoint.Auth.variant()}
}

func (a AuthConfig) variant() sparql.Auth {
	switch sparql.AuthKind(a.Type) {
	case sparql.AuthBasic:
		return sparql.BasicAuth{Username: a.Username, Password: a.Password}
	case sparql.AuthBearer:
		return sparql.BearerAuth{Token: a.Token}
	case sparql.AuthAPIKey:
		return sparql.APIKeyAuth{HeaderName: a.APIKeyHeader, APIKey: a.APIKey}
	default:
		return sparql.NoAuth{}
	}
}

// QueryOptions converts the query section.
func (c *Config) QueryOptions() sparql.QueryOptions {
	retries, acceptXML := c.Query.Retries, c.Query.AcceptXML
	return sparql.QueryOptions{
		Timeout:    millis(c.Query.TimeoutMS),
		Retries:    &retries,
		RetryDelay: millis(c.Query.RetryDelayMS),
		AcceptXML:  &acceptXML,
	}
}

// ConnectTimeout is the budget of a connectivity check.
func (c *Config) ConnectTimeout() time.Duration {
	return millis(c.Query.ConnectTimeoutMS)
}

// AnalyzerConfig converts the analysis section.
func (c *Config) AnalyzerConfig() analyze.Config {
	cfg := analyze.DefaultConfig()
	retries := c.Analysis.ProbeRetries
	cfg.Probe.Retries = &retries
	if c.Analysis.ProbeTimeoutMS > 0 {
		cfg.Probe.Timeout = millis(c.Analysis.ProbeTimeoutMS)
	}
	acceptXML := c.Query.AcceptXML
	cfg.Probe.AcceptXML = &acceptXML
	if c.Analysis.GraphCap > 0 {
		cfg.GraphCap = c.Analysis.GraphCap
	}
	if c.Analysis.SchemeCap > 0 {
		cfg.SchemeCap = c.Analysis.SchemeCap
	}
	if c.Analysis.LanguageBatchSize > 0 {
		cfg.Languages.BatchSize = c.Analysis.LanguageBatchSize
	}
	if c.Analysis.LanguageSampleLimit > 0 {
		cfg.Languages.SampleLimit = c.Analysis.LanguageSampleLimit
	}
	if c.Analysis.LanguageTop > 0 {
		cfg.Languages.Top = c.Analysis.LanguageTop
	}
	return cfg
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
