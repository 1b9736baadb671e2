package am

import (
	"github.com/teranos/skosprobe/errors"
	"github.com/teranos/skosprobe/internal/httpclient"
	"github.com/teranos/skosprobe/retry"
	"github.com/teranos/skosprobe/sparql"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Endpoint URL is optional here; commands accept it as an argument
	if c.Endpoint.URL != "" {
		policy := httpclient.NewSaferClient(httpclient.Options{BlockPrivateIP: c.Endpoint.BlockPrivate})
		if _, err := policy.ValidateURL(c.Endpoint.URL); err != nil {
			return errors.Wrap(err, "endpoint.url")
		}
	}

	switch sparql.AuthKind(c.Endpoint.Auth.Type) {
	case "", sparql.AuthNone, sparql.AuthBasic:
	case sparql.AuthBearer:
		if c.Endpoint.Auth.Token == "" {
			return errors.New("endpoint.auth.token is required for bearer auth")
		}
	case sparql.AuthAPIKey:
		if c.Endpoint.Auth.APIKey == "" {
			return errors.New("endpoint.auth.api_key is required for apikey auth")
		}
	default:
		return errors.WithHint(
			errors.Newf("endpoint.auth.type %q is not supported", c.Endpoint.Auth.Type),
			"use one of: none, basic, bearer, apikey")
	}

	// Timeouts: 0 = use the built-in default, negative = invalid
	if c.Query.TimeoutMS < 0 {
		return errors.Newf("query.timeout_ms must be >= 0, got %d", c.Query.TimeoutMS)
	}
	if c.Query.ConnectTimeoutMS < 0 {
		return errors.Newf("query.connect_timeout_ms must be >= 0, got %d", c.Query.ConnectTimeoutMS)
	}
	if c.Query.Retries < 0 || c.Query.Retries > retry.MaxRetries {
		return errors.Newf("query.retries must be between 0 and %d, got %d", retry.MaxRetries, c.Query.Retries)
	}
	if c.Query.RetryDelayMS < 0 {
		return errors.Newf("query.retry_delay_ms must be >= 0, got %d", c.Query.RetryDelayMS)
	}
	if c.Query.RateLimit < 0 {
		return errors.Newf("query.rate_limit must be >= 0, got %f", c.Query.RateLimit)
	}
	if c.Query.RateLimit > 0 && c.Query.RateBurst < 1 {
		return errors.Newf("query.rate_burst must be >= 1 when rate_limit is set, got %d", c.Query.RateBurst)
	}

	if c.Analysis.ProbeRetries < 0 || c.Analysis.ProbeRetries > retry.MaxRetries {
		return errors.Newf("analysis.probe_retries must be between 0 and %d, got %d", retry.MaxRetries, c.Analysis.ProbeRetries)
	}
	for key, n := range map[string]int{
		"analysis.probe_timeout_ms":      c.Analysis.ProbeTimeoutMS,
		"analysis.graph_cap":             c.Analysis.GraphCap,
		"analysis.scheme_cap":            c.Analysis.SchemeCap,
		"analysis.language_batch_size":   c.Analysis.LanguageBatchSize,
		"analysis.language_sample_limit": c.Analysis.LanguageSampleLimit,
		"analysis.language_top":          c.Analysis.LanguageTop,
	} {
		if n < 0 {
			return errors.Newf("%s must be >= 0, got %d", key, n)
		}
	}
	return nil
}
