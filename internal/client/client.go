// Package client fetches job progress from the progress endpoints.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/jobwatch/internal/status"
)

// DefaultServerURL is used when no base URL is configured.
const DefaultServerURL = "http://localhost:5000"

// jsonpCallback is the callback name sent when JSONP compatibility is on.
const jsonpCallback = "jobwatch_cb"

// ErrEmptyJobID is returned when a fetch is attempted without a job id.
var ErrEmptyJobID = errors.New("job id required")

// TransportError describes a failed request: network error, non-2xx
// response, or an undecodable body.
type TransportError struct {
	Endpoint   string
	StatusText string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusText != "" {
		return fmt.Sprintf("%s: %s: %v", e.Endpoint, e.StatusText, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client talks to the progress endpoints of one server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	jsonp      bool
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets a per-request timeout. Zero leaves the transport default.
// The timeout is applied to a copy of the HTTP client, so a shared client
// passed with WithHTTPClient is never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithJSONP asks the server for a callback-wrapped response.
func WithJSONP(enabled bool) Option {
	return func(c *Client) {
		c.jsonp = enabled
	}
}

// New creates a client for baseURL.
// If baseURL is empty, uses JOBWATCH_SERVER_URL or DefaultServerURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("JOBWATCH_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = DefaultServerURL
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

// BaseURL returns the server base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// StatusURL returns the status endpoint for a job.
func (c *Client) StatusURL(jobID string) string {
	return c.baseURL + "/progress/" + url.PathEscape(jobID) + "/status"
}

// PercentURL returns the plain-text percentage endpoint for a job.
func (c *Client) PercentURL(jobID string) string {
	return c.baseURL + "/progress/" + url.PathEscape(jobID) + "/pc"
}

// FetchStatus retrieves the current status snapshot for a job.
func (c *Client) FetchStatus(ctx context.Context, jobID string) (*status.Snapshot, error) {
	if jobID == "" {
		return nil, ErrEmptyJobID
	}

	endpoint := c.StatusURL(jobID)
	params := url.Values{}
	if c.jsonp {
		params.Set("callback", jsonpCallback)
	}

	body, err := c.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	snap, err := status.Decode(body)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, StatusText: "parsererror", Err: err}
	}
	return &snap, nil
}

// FetchPercent retrieves the raw percentage body for a job.
// The body is returned as-is apart from surrounding whitespace.
func (c *Client) FetchPercent(ctx context.Context, jobID string) (string, error) {
	if jobID == "" {
		return "", ErrEmptyJobID
	}

	body, err := c.get(ctx, c.PercentURL(jobID), url.Values{})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

// get issues an uncached GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	// cache buster, same shape jQuery uses for cache:false
	params.Set("_", strconv.FormatInt(c.now().UnixMilli(), 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("X-Request-Id", uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, StatusText: resp.Status, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			Endpoint:   endpoint,
			StatusText: resp.Status,
			Err:        fmt.Errorf("server error: %s", truncate(string(body), 200)),
		}
	}

	return body, nil
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
