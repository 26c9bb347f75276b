package inboxfw

// This file defines functional options that configure the Client during
// construction. Keeping them in a standalone file avoids cluttering
// client.go and makes it easy to discover all available knobs at a glance.

import (
	"fmt"
	"time"

	"github.com/inboxfw/inboxfw/internal/coalesce"
	"github.com/inboxfw/inboxfw/internal/credential"
	"github.com/inboxfw/inboxfw/stream"
)

// Option configures a Client during construction in New.
//
// Options are applied before the bearer transport wrapper is installed and
// before the persisted session resumes, so credential and transport options
// take effect from the first request. Options must be deterministic and
// side-effect free.
type Option func(*Client) error

// WithHTTPTimeout sets the http.Client timeout used for the
// request/response endpoints. The push subscription is unaffected: it is
// long-lived by design and carries no global timeout.
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
// logged when enabled is true. Do not enable in production; dumps include
// the Authorization header.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		if enabled {
			base := c.http.Transport
			c.http.Transport = &debugTransport{base: base}
		}
		return nil
	}
}

// WithFileCredentials pins credential persistence to the encrypted file
// backend rooted at dir instead of the system keyring. Headless
// environments and tests use this.
func WithFileCredentials(dir string) Option {
	return func(c *Client) error {
		if dir == "" {
			return fmt.Errorf("credential dir must not be empty")
		}
		c.creds = credential.OpenFile(dir)
		return nil
	}
}

// WithNotificationTTL overrides the fixed visible lifetime of notification
// entries.
func WithNotificationTTL(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("notification ttl must be > 0")
		}
		c.notifyTTL = d
		return nil
	}
}

// WithStreamBackoff overrides the reconnect backoff envelope of the push
// subscription.
func WithStreamBackoff(initial, max time.Duration) Option {
	return func(c *Client) error {
		if initial <= 0 || max < initial {
			return fmt.Errorf("invalid backoff envelope")
		}
		c.streamCfg = stream.Config{InitialBackoff: initial, MaxBackoff: max}
		return nil
	}
}

// WithFetchTimeout bounds a single store refresh fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("fetch timeout must be > 0")
		}
		c.coalesceCfg = coalesce.Config{FetchTimeout: d}
		return nil
	}
}
