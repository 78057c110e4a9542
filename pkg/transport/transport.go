// Package transport builds the process-wide HTTP transport used for every
// outbound exporter call. Deployments behind an egress proxy configure it
// once; exporters never construct their own transports.
package transport

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// New returns an http.Transport honoring the configured proxy URL. An empty
// proxyURL falls back to the standard environment proxy settings
// (HTTPS_PROXY et al), matching how the rest of the fleet is deployed.
func New(proxyURL string) (*http.Transport, error) {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url %q: %w", proxyURL, err)
		}
		transport.Proxy = http.ProxyURL(parsed)
	}

	return transport, nil
}

// NewClient wraps New in an http.Client with a bounded timeout. A zero
// timeout is replaced with a 30 second default; outbound calls must never
// hang indefinitely.
func NewClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	t, err := New(proxyURL)
	if err != nil {
		return nil, err
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Transport: t, Timeout: timeout}, nil
}
