package booru

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"boorudl/pkg/config"
	errs "boorudl/pkg/errors"
	"boorudl/pkg/logger"
)

// maxResponseSize caps a search response body; 100 posts of metadata is far below it
const maxResponseSize = 32 << 20

// Client searches posts on a Gelbooru-compatible DAPI
type Client struct {
	httpClient  *http.Client
	headers     map[string]string
	baseURL     string
	credentials config.Credentials
	logger      logger.Logger
}

// NewClient creates a client for the API rooted at baseURL
func NewClient(httpClient *http.Client, baseURL string, creds config.Credentials, log logger.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: httpClient,
		headers: map[string]string{
			"Accept":     "application/json",
			"User-Agent": "boorudl/1.0",
		},
		baseURL:     baseURL,
		credentials: creds,
		logger:      log,
	}
}

// NewClientForSource creates a client for a named source (gelbooru or rule34)
func NewClientForSource(httpClient *http.Client, source string, creds config.Credentials, log logger.Logger) (*Client, error) {
	baseURL, err := BaseURLFor(source)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeConfig, err, "invalid source")
	}
	return NewClient(httpClient, baseURL, creds, log), nil
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SearchPosts fetches one page of posts. A transport failure, a non-success status or
// an unparseable body is returned as a typed error.
func (c *Client) SearchPosts(ctx context.Context, req SearchRequest) (SearchResult, error) {
	searchURL := GetSearchURL(c.baseURL, req, c.credentials)
	log := c.logger.WithFields(map[string]interface{}{
		"page": req.Page,
		"tags": req.QueryTags(),
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return SearchResult{}, errs.Wrap(errs.ErrorTypeUnknown, err, "failed to create request")
	}
	for key, value := range c.headers {
		httpReq.Header.Set(key, value)
	}

	start := time.Now()
	log.Debug("Searching posts")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.WithError(err).Error("Search request failed")
		return SearchResult{}, errs.Wrap(errs.ErrorTypeNetwork, err, "search request failed")
	}
	defer resp.Body.Close()

	logger.LogRequest(log, httpReq.Method, c.baseURL+PostIndexPath, resp.StatusCode, time.Since(start))

	if !errs.IsSuccessStatus(resp.StatusCode) {
		return SearchResult{}, errs.HTTPStatus(resp.StatusCode, fmt.Sprintf("search returned %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return SearchResult{}, errs.Wrap(errs.ErrorTypeNetwork, err, "failed to read search response")
	}

	result, err := DecodeSearchResponse(body)
	if err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		log.WithError(err).ErrorWithFields("Failed to parse search response", map[string]interface{}{
			"status":       resp.StatusCode,
			"body_preview": preview,
		})
		return SearchResult{}, err
	}

	log.DebugWithFields("Search completed", map[string]interface{}{
		"posts":  result.Len(),
		"single": result.IsSingle(),
	})
	return result, nil
}
