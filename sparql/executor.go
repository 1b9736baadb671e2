// Package sparql executes SPARQL 1.1 queries over HTTP with per-attempt
// timeouts, bounded retries and classified errors.
package sparql

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/skosprobe/errors"
	"github.com/teranos/skosprobe/internal/httpclient"
	"github.com/teranos/skosprobe/internal/util"
	"github.com/teranos/skosprobe/logger"
	"github.com/teranos/skosprobe/retry"
)

const (
	DefaultTimeout        = 60 * time.Second
	DefaultRetries        = 3
	DefaultRetryDelay     = 1 * time.Second
	ConnectionTestTimeout = 10 * time.Second

	acceptJSON    = "application/sparql-results+json"
	acceptJSONXML = "application/sparql-results+json, application/sparql-results+xml;q=0.9"

	connectionTestQuery = "ASK { ?s ?p ?o }"
)

// Doer sends HTTP requests. *httpclient.SaferClient and *http.Client satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type urlValidator interface {
	ValidateURL(rawURL string) (*url.URL, error)
}

// QueryOptions tunes a single call. Zero fields take the executor defaults.
type QueryOptions struct {
	Timeout    time.Duration // per attempt
	Retries    *int          // additional attempts after the first; nil means default
	RetryDelay time.Duration // base backoff, doubled per retry
	AcceptXML  *bool         // also accept application/sparql-results+xml; nil means default
}

// DefaultQueryOptions returns 60s per attempt, 3 retries, 1s base delay.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		Timeout:    DefaultTimeout,
		Retries:    util.Ptr(DefaultRetries),
		RetryDelay: DefaultRetryDelay,
	}
}

func (o QueryOptions) withDefaults(d QueryOptions) QueryOptions {
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.Retries == nil {
		o.Retries = d.Retries
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = d.RetryDelay
	}
	if o.AcceptXML == nil {
		o.AcceptXML = d.AcceptXML
	}
	return o
}

func (o QueryOptions) policy() retry.Policy {
	return retry.Policy{
		Retries:     util.Deref(o.Retries, DefaultRetries),
		BaseDelay:   o.RetryDelay,
		ShouldRetry: shouldRetry,
	}
}

// errRateLimitDeadline marks a limiter wait that cannot finish before the
// caller's deadline. Waiting again cannot succeed either.
var errRateLimitDeadline = errors.New("rate limit wait exceeds the deadline")

func shouldRetry(err error) bool {
	if errors.Is(err, errRateLimitDeadline) {
		return false
	}
	appErr, ok := errors.AsAppError(err)
	return ok && appErr.Retryable()
}

// Executor runs queries against SPARQL endpoints. It is safe for concurrent use.
type Executor struct {
	client   Doer
	logger   *zap.SugaredLogger
	limiter  *rate.Limiter
	sleep    func(ctx context.Context, d time.Duration) error
	defaults QueryOptions

	connectTimeout time.Duration
}

// Option configures an Executor.
type Option func(*Executor)

// WithHTTPClient replaces the default SaferClient.
func WithHTTPClient(client Doer) Option {
	return func(e *Executor) { e.client = client }
}

// WithLogger sets the logger. nil keeps the executor silent.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRateLimit caps outbound requests per second across all calls.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(e *Executor) {
		if rps <= 0 {
			e.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithDefaults replaces the options used for fields a call leaves zero.
func WithDefaults(opts QueryOptions) Option {
	return func(e *Executor) { e.defaults = opts.withDefaults(DefaultQueryOptions()) }
}

// WithConnectTimeout replaces the TestConnection budget. Non-positive values
// are ignored.
func WithConnectTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.connectTimeout = d
		}
	}
}

// WithSleep replaces the backoff sleep. Tests use it to record delays.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) { e.sleep = sleep }
}

// NewExecutor creates an Executor.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		client:   httpclient.NewSaferClient(httpclient.Options{}),
		logger:   zap.NewNop().Sugar(),
		sleep:    retry.SleepContext,
		defaults: DefaultQueryOptions(),

		connectTimeout: ConnectionTestTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Query runs a SELECT or ASK query and returns its decoded results.
// Every failure is returned as an *errors.AppError.
func (e *Executor) Query(ctx context.Context, ep Endpoint, query string, opts QueryOptions) (*Result, error) {
	opts = opts.withDefaults(e.defaults)
	acceptXML := util.Deref(opts.AcceptXML, false)
	accept := acceptJSON
	if acceptXML {
		accept = acceptJSONXML
	}

	return execute(ctx, e, ep, opts, "query", func(ctx context.Context) (*Result, error) {
		resp, body, err := e.post(ctx, ep, query, accept)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, statusError(resp.StatusCode, body)
		}
		return decodeResults(resp.Header.Get("Content-Type"), body, acceptXML)
	})
}

// Construct runs a CONSTRUCT or DESCRIBE query and returns the raw
// serialization in the requested format.
func (e *Executor) Construct(ctx context.Context, ep Endpoint, query string, format RDFFormat, opts QueryOptions) (string, error) {
	info, ok := format.Info()
	if !ok {
		return "", errors.NewAppErrorf(errors.CodeUnknown, "Unsupported RDF format %q", format)
	}
	opts = opts.withDefaults(e.defaults)

	return execute(ctx, e, ep, opts, "construct", func(ctx context.Context) (string, error) {
		resp, body, err := e.post(ctx, ep, query, info.MIMEType)
		if err != nil {
			return "", err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return "", statusError(resp.StatusCode, body)
		}
		if strings.Contains(mediaType(resp.Header.Get("Content-Type")), "html") {
			return "", invalidResponse("Expected RDF but the endpoint returned an HTML page",
				"content-type "+resp.Header.Get("Content-Type"), nil)
		}
		return string(body), nil
	})
}

// TestConnection sends a trivial ASK with a short timeout (10s unless
// configured) and no retries.
func (e *Executor) TestConnection(ctx context.Context, ep Endpoint) error {
	_, err := e.Query(ctx, ep, connectionTestQuery, QueryOptions{
		Timeout: e.connectTimeout,
		Retries: util.Ptr(0),
	})
	return err
}

// execute wraps one HTTP exchange with rate limiting, a per-attempt deadline,
// classification and the retry policy.
func execute[T any](ctx context.Context, e *Executor, ep Endpoint, opts QueryOptions, op string, once func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if err := e.checkEndpoint(ep); err != nil {
		return zero, err
	}

	policy := opts.policy()
	policy.Sleep = e.sleep
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		e.logger.Warnw("SPARQL request failed, retrying",
			logger.FieldOperation, op,
			logger.FieldEndpoint, ep.URL,
			logger.FieldAttempt, attempt,
			logger.FieldDelayMS, delay.Milliseconds(),
			logger.FieldErrorCode, errors.CodeOf(err),
			logger.FieldError, err,
		)
	}

	start := time.Now()
	result, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) (T, error) {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					return zero, ctx.Err()
				}
				return zero, rateLimitError(ctx, err)
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		defer cancel()

		v, err := once(attemptCtx)
		if err == nil {
			return v, nil
		}
		if _, ok := errors.AsAppError(err); ok {
			return zero, err
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, transportError(err, attemptCtx, opts.Timeout)
	})
	if err != nil {
		appErr := finalError(ctx, err)
		e.logger.Debugw("SPARQL request failed",
			logger.FieldOperation, op,
			logger.FieldEndpoint, ep.URL,
			logger.FieldErrorCode, appErr.Code,
			logger.FieldDurationMS, time.Since(start).Milliseconds(),
		)
		return zero, appErr
	}

	e.logger.Debugw("SPARQL request completed",
		logger.FieldOperation, op,
		logger.FieldEndpoint, ep.URL,
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (e *Executor) checkEndpoint(ep Endpoint) error {
	if v, ok := e.client.(urlValidator); ok {
		if _, err := v.ValidateURL(ep.URL); err != nil {
			return errors.NewAppError(errors.CodeNetworkError, "Endpoint URL rejected").
				WithDetails(err.Error()).
				WithCause(err)
		}
		return nil
	}
	u, err := url.Parse(ep.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.NewAppErrorf(errors.CodeNetworkError, "Invalid endpoint URL %q", ep.URL)
	}
	return nil
}

// post sends query as a form-encoded POST and reads the full body under ctx.
func (e *Executor) post(ctx context.Context, ep Endpoint, query, accept string) (*http.Response, []byte, error) {
	form := url.Values{"query": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, strings.NewReader(form))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", accept)
	ep.auth().Apply(req)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, errors.Wrap(err, "read response body")
	}
	return resp, body, nil
}
