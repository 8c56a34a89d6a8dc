package httptp

import (
	"net/http"
	"time"
)

// Options configures the HTTP transport.
//
// Defaults:
// - Timeout: 30s (used only if the incoming context has no deadline)
// - Client:  a dedicated http.Client
//
// Provider must be set (use StaticEndpoints or a custom implementation).
type Options struct {
	Provider EndpointProvider
	Timeout  time.Duration
	Headers  http.Header
	Client   *http.Client
}

// Option mutates Options.
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Timeout: 30 * time.Second,
		Headers: http.Header{},
	}
}

func WithProvider(p EndpointProvider) Option { return func(o *Options) { o.Provider = p } }
func WithTimeout(d time.Duration) Option     { return func(o *Options) { o.Timeout = d } }
func WithHTTPClient(c *http.Client) Option   { return func(o *Options) { o.Client = c } }
func WithEndpoint(urls ...string) Option     { return WithProvider(NewStaticEndpoints(urls...)) }
func WithHeader(key, value string) Option    { return func(o *Options) { o.Headers.Add(key, value) } }
