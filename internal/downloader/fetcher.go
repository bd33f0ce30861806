package downloader

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	errs "boorudl/pkg/errors"
)

// Fetcher opens the body of a remote file
type Fetcher interface {
	// Fetch returns the response body and status code. A non-success status is
	// returned as an http_status error and no body.
	Fetch(ctx context.Context, url string) (io.ReadCloser, int, error)
}

// HTTPFetcher fetches files with a plain GET
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher using client, which should carry the connect and read timeouts
func NewHTTPFetcher(client *http.Client, userAgent string) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{
		client:    client,
		userAgent: userAgent,
	}
}

// Fetch issues a GET for url
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, errs.Wrap(errs.ErrorTypeNetwork, err, "failed to create request")
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, errs.Wrap(errs.ErrorTypeNetwork, err, "request failed")
	}

	if !errs.IsSuccessStatus(resp.StatusCode) {
		resp.Body.Close()
		return nil, resp.StatusCode, errs.HTTPStatus(resp.StatusCode, reasonPhrase(resp))
	}

	return resp.Body, resp.StatusCode, nil
}

// reasonPhrase extracts "Not Found" from a status line like "404 Not Found"
func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}
