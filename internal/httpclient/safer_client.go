package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/teranos/skosprobe/errors"
)

// DefaultUserAgent identifies skosprobe to SPARQL endpoints.
const DefaultUserAgent = "skosprobe/1.0"

// Options customizes outbound request policy.
type Options struct {
	AllowedSchemes []string          // Default: ["http", "https"]
	MaxRedirects   *int              // Default: 10
	BlockPrivateIP bool              // Refuse loopback/private targets (for endpoints supplied by untrusted users)
	UserAgent      string            // Default: DefaultUserAgent
	Transport      http.RoundTripper // Overrides the dialing transport (tests/stubs)
}

// SaferClient wraps http.Client with URL policy checks.
// It carries no client-level timeout: callers bound each request with a context.
type SaferClient struct {
	*http.Client
	allowedSchemes []string
	blockPrivateIP bool
	maxRedirects   int
	userAgent      string
}

// NewSaferClient creates an HTTP client for talking to SPARQL endpoints.
func NewSaferClient(opts Options) *SaferClient {
	maxRedirects := 10
	if opts.MaxRedirects != nil {
		maxRedirects = *opts.MaxRedirects
	}
	allowedSchemes := []string{"http", "https"}
	if opts.AllowedSchemes != nil {
		allowedSchemes = opts.AllowedSchemes
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	client := &SaferClient{
		Client:         &http.Client{},
		allowedSchemes: allowedSchemes,
		blockPrivateIP: opts.BlockPrivateIP,
		maxRedirects:   maxRedirects,
		userAgent:      userAgent,
	}

	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= client.maxRedirects {
			return errors.Newf("stopped after %d redirects", client.maxRedirects)
		}
		if err := client.validateURL(req.URL); err != nil {
			return errors.Wrap(err, "redirect blocked")
		}
		return nil
	}

	switch {
	case opts.Transport != nil:
		client.Transport = opts.Transport
	case opts.BlockPrivateIP:
		client.Transport = guardedTransport()
	}

	return client
}

// guardedTransport resolves the target itself so DNS answers pointing at
// private ranges are rejected before dialing.
func guardedTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, errors.Wrap(err, "invalid address")
			}
			ips, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to resolve host %q", host)
			}
			for _, ip := range ips {
				if isPrivateAddr(ip) {
					return nil, errors.Newf("private IP address blocked: %s", ip)
				}
			}
			return dialer.DialContext(ctx, network, addr)
		},
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

func (c *SaferClient) validateURL(u *url.URL) error {
	scheme := strings.ToLower(u.Scheme)
	if !slices.Contains(c.allowedSchemes, scheme) {
		return errors.Newf("scheme %q not allowed (allowed: %v)", scheme, c.allowedSchemes)
	}

	hostname := u.Hostname()
	if hostname == "" {
		return errors.New("URL missing hostname")
	}

	if c.blockPrivateIP {
		if u.User != nil {
			return errors.New("URL contains userinfo (use endpoint auth instead)")
		}
		if isLocalhost(hostname) {
			return errors.New("localhost access blocked")
		}
		if ip, err := netip.ParseAddr(hostname); err == nil && isPrivateAddr(ip) {
			return errors.Newf("private IP address blocked: %s", hostname)
		}
	}

	return nil
}

// ValidateURL parses and checks an endpoint URL against the client policy.
func (c *SaferClient) ValidateURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid URL")
	}
	if err := c.validateURL(u); err != nil {
		return nil, err
	}
	return u, nil
}

// Do executes req after the policy check, stamping the User-Agent.
func (c *SaferClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.validateURL(req.URL); err != nil {
		return nil, errors.Wrap(err, "request blocked by endpoint policy")
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.Client.Do(req)
}

func isPrivateAddr(ip netip.Addr) bool {
	ip = ip.Unmap()
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsMulticast() || ip.IsUnspecified() {
		return true
	}
	if ip.Is4() {
		b := ip.As4()
		// 0.0.0.0/8 and 240.0.0.0/4 (reserved)
		return b[0] == 0 || b[0] >= 240
	}
	// site-local fec0::/10 (deprecated) and documentation 2001:db8::/32
	b := ip.As16()
	if b[0] == 0xfe && b[1]&0xc0 == 0xc0 {
		return true
	}
	return b[0] == 0x20 && b[1] == 0x01 && b[2] == 0x0d && b[3] == 0xb8
}

func isLocalhost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	return hostname == "localhost" ||
		hostname == "localhost.localdomain" ||
		strings.HasSuffix(hostname, ".localhost")
}

// WrapClient wraps an existing http.Client without private-IP blocking.
// Intended for tests that talk to httptest servers on loopback.
func WrapClient(client *http.Client) *SaferClient {
	return &SaferClient{
		Client:         client,
		allowedSchemes: []string{"http", "https"},
		maxRedirects:   10,
		userAgent:      DefaultUserAgent,
	}
}
