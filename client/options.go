package client

// This file defines functional options that configure the Client during
// construction.

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Option configures a Client during construction in New.
//
// Options are applied in order and before the header transport is installed,
// so WithHTTPClient must come before options that wrap the transport.
type Option func(*Client) error

// WithHTTPClient replaces the underlying *http.Client. The client is used as
// is; its Transport is wrapped, not copied.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("http client must not be nil")
		}
		c.http = hc
		return nil
	}
}

// WithHTTPTimeout sets the underlying http.Client Timeout.
//
// Prefer per-request context deadlines where possible; this timeout bounds
// the total time spent on a single HTTP exchange. The value must be greater
// than zero.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.http.Timeout = d
		return nil
	}
}

// WithDebugLogging wraps the client's transport so each request/response is
// logged when enabled is true. Dumps include bodies; do not enable this in
// production.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		if enabled {
			if _, already := c.http.Transport.(*debugTransport); already {
				return nil
			}
			c.http.Transport = &debugTransport{base: transportOrDefault(c.http.Transport)}
		}
		return nil
	}
}

// WithTracing wraps the transport with OpenTelemetry instrumentation so every
// request produces a client span and propagates trace context.
func WithTracing() Option {
	return func(c *Client) error {
		c.http.Transport = otelhttp.NewTransport(transportOrDefault(c.http.Transport))
		return nil
	}
}

// WithUserAgent overrides the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		c.userAgent = ua
		return nil
	}
}

func transportOrDefault(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		return http.DefaultTransport
	}
	return rt
}
