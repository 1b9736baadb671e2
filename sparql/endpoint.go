package sparql

import (
	"encoding/base64"
	"net/http"
)

// DefaultAPIKeyHeader is used when an APIKeyAuth has no HeaderName.
const DefaultAPIKeyHeader = "X-API-Key"

// Endpoint describes a SPARQL endpoint. It is never mutated by the executor.
type Endpoint struct {
	URL  string
	Auth Auth
}

func (e Endpoint) auth() Auth {
	if e.Auth == nil {
		return NoAuth{}
	}
	return e.Auth
}

// AuthKind names the closed set of authentication variants.
type AuthKind string

const (
	AuthNone   AuthKind = "none"
	AuthBasic  AuthKind = "basic"
	AuthBearer AuthKind = "bearer"
	AuthAPIKey AuthKind = "apikey"
)

// Auth decorates a request with exactly one credential header.
// The set of implementations is closed to this package.
type Auth interface {
	Kind() AuthKind
	Apply(req *http.Request)
	sealed()
}

// NoAuth sends no credentials.
type NoAuth struct{}

func (NoAuth) Kind() AuthKind          { return AuthNone }
func (NoAuth) Apply(req *http.Request) {}
func (NoAuth) sealed()                 {}

// BasicAuth uses HTTP Basic Authentication.
type BasicAuth struct {
	Username string
	Password string
}

func (BasicAuth) Kind() AuthKind { return AuthBasic }
func (BasicAuth) sealed()        {}

// Apply adds the Basic auth header to the request.
func (a BasicAuth) Apply(req *http.Request) {
	if a.Username == "" && a.Password == "" {
		return
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
	req.Header.Set("Authorization", "Basic "+credentials)
}

// BearerAuth uses Bearer token authentication.
type BearerAuth struct {
	Token string
}

func (BearerAuth) Kind() AuthKind { return AuthBearer }
func (BearerAuth) sealed()        {}

// Apply adds the Bearer token header to the request.
func (a BearerAuth) Apply(req *http.Request) {
	if a.Token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

// APIKeyAuth sends a key in a configurable header.
type APIKeyAuth struct {
	HeaderName string // default: X-API-Key
	APIKey     string
}

func (APIKeyAuth) Kind() AuthKind { return AuthAPIKey }
func (APIKeyAuth) sealed()        {}

// Apply adds the API key header to the request.
func (a APIKeyAuth) Apply(req *http.Request) {
	if a.APIKey == "" {
		return
	}
	header := a.HeaderName
	if header == "" {
		header = DefaultAPIKeyHeader
	}
	req.Header.Set(header, a.APIKey)
}
