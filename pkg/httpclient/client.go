// Package httpclient builds the HTTP client shared by the search API client and the
// file downloader, with separate connect and read timeouts.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"time"
)

// Options configures the HTTP client
type Options struct {
	// ConnectTimeout bounds DNS, TCP connect and TLS handshake.
	// Default: 10s
	ConnectTimeout time.Duration

	// ReadTimeout bounds the wait for response headers and every read of the body.
	// Default: 30s
	ReadTimeout time.Duration

	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 16
	MaxIdleConnsPerHost int
}

// DefaultOptions returns options with sensible defaults
func DefaultOptions() Options {
	return Options{
		ConnectTimeout:      10 * time.Second,
		ReadTimeout:         30 * time.Second,
		MaxIdleConnsPerHost: 16,
	}
}

// New creates an *http.Client. There is no overall request deadline: a slow but
// steadily progressing body is allowed to finish.
func New(opts Options) *http.Client {
	defaults := DefaultOptions()
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaults.ConnectTimeout
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaults.ReadTimeout
	}
	if opts.MaxIdleConnsPerHost <= 0 {
		opts.MaxIdleConnsPerHost = defaults.MaxIdleConnsPerHost
	}

	dialer := &net.Dialer{
		Timeout:   opts.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return &readTimeoutConn{Conn: conn, timeout: opts.ReadTimeout}, nil
		},
		TLSHandshakeTimeout:   opts.ConnectTimeout,
		ResponseHeaderTimeout: opts.ReadTimeout,
		MaxIdleConnsPerHost:   opts.MaxIdleConnsPerHost,
		MaxIdleConns:          opts.MaxIdleConnsPerHost * 2,
		IdleConnTimeout:       90 * time.Second,
	}

	return &http.Client{Transport: transport}
}

// readTimeoutConn refreshes the read deadline before every Read, so the timeout
// applies to gaps between bytes rather than to the whole transfer.
type readTimeoutConn struct {
	net.Conn
	timeout time.Duration
}

func (c *readTimeoutConn) Read(b []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(b)
}
