package aidb

// Functional options for NewClient. They are applied before the bearer
// transport is installed, so a custom http.Client or debug logging ends up
// underneath the Authorization wrapper.

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Option configures a Client during construction in NewClient.
type Option func(*Client) error

// WithTimeout sets the coarse per-request timeout of the underlying
// http.Client. Per-call context deadlines still apply.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.http.Timeout = d
		return nil
	}
}

// WithHTTPClient replaces the underlying http.Client. The client is copied so
// the caller's instance is never mutated by the transport wrappers.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client is nil")
		}
		dup := *hc
		c.http = &dup
		return nil
	}
}

// WithTokenSource attaches the session whose token is sent as
// "Authorization: Bearer <token>" on every call.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) error {
		c.tokens = ts
		return nil
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		if strings.TrimSpace(ua) == "" {
			return fmt.Errorf("user agent is empty")
		}
		c.userAgent = ua
		return nil
	}
}

// WithDebugLogging dumps every request and response at debug level.
// It logs headers and bodies, bearer tokens included.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		c.debug = enabled
		return nil
	}
}
