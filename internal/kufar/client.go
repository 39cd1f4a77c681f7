package kufar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultPageSize = 100
	maxBodyBytes    = 16 << 20
)

// DefaultEndpoints lists the primary search endpoint followed by its alternates.
var DefaultEndpoints = []string{
	"https://api.kufar.by/search-api/v2/search/rendered-paginated",
	"https://api.kufar.by/search-api/v1/search/rendered-paginated",
	"https://cre-api.kufar.by/search-api/v2/search/rendered-paginated",
}

// ErrAllEndpointsFailed means no endpoint answered a keyword query successfully.
var ErrAllEndpointsFailed = errors.New("all kufar endpoints failed")

// HTTPClient interface for making HTTP requests (allows injection for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// SearchParams are the query parameters sent with every keyword query.
// Empty optional filters are omitted from the request.
type SearchParams struct {
	PageSize int
	Lang     string
	Sort     string
	Category string
	Region   string
	Currency string
}

// DefaultSearchParams returns the parameters the web client sends.
func DefaultSearchParams() SearchParams {
	return SearchParams{PageSize: defaultPageSize, Lang: "ru", Sort: "lst.d"}
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL replaces every endpoint with a single URL (useful for testing).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.endpoints = []string{baseURL}
	}
}

// WithEndpoints sets the primary endpoint followed by its alternates.
func WithEndpoints(urls ...string) ClientOption {
	return func(c *Client) {
		c.endpoints = append([]string(nil), urls...)
	}
}

// WithTimeout bounds each endpoint attempt.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSearchParams sets the request parameters.
func WithSearchParams(p SearchParams) ClientOption {
	return func(c *Client) {
		c.params = p
	}
}

// WithUSDRate sets the BYN per USD rate used for USD-only prices.
func WithUSDRate(usdToBYN float64) ClientOption {
	return func(c *Client) {
		c.usdToBYN = usdToBYN
	}
}

// WithLogger sets the logger for recovered failures.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client queries the Kufar search API.
type Client struct {
	endpoints  []string
	params     SearchParams
	timeout    time.Duration
	usdToBYN   float64
	httpClient HTTPClient
	logger     *slog.Logger
	normalizer *Normalizer
}

// NewClient creates a Kufar search client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		endpoints:  append([]string(nil), DefaultEndpoints...),
		params:     DefaultSearchParams(),
		timeout:    defaultTimeout,
		usdToBYN:   DefaultUSDToBYN,
		httpClient: &http.Client{},
		logger:     discardLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.normalizer = NewNormalizer(c.usdToBYN, c.logger)
	return c
}

// Search queries the endpoints in order and normalizes the first successful
// payload. Endpoint failures are logged and never returned: when every
// endpoint fails the result is empty. Only cancellation of ctx is reported.
func (c *Client) Search(ctx context.Context, keyword string) ([]Listing, error) {
	body, err := c.fetchFirst(ctx, keyword)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Warn("keyword query failed", "keyword", keyword, "error", err)
		return []Listing{}, nil
	}

	return c.normalizer.Normalize(body, keyword), nil
}

// fetchFirst returns the body of the first endpoint answering 200 OK.
// Endpoints after it are never contacted.
func (c *Client) fetchFirst(ctx context.Context, keyword string) ([]byte, error) {
	if len(c.endpoints) == 0 {
		return nil, fmt.Errorf("%w: no endpoints configured", ErrAllEndpointsFailed)
	}

	var errs []error
	for _, endpoint := range c.endpoints {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		body, err := c.attempt(ctx, endpoint, keyword)
		if err == nil {
			c.logger.Debug("endpoint answered", "endpoint", endpoint, "keyword", keyword)
			return body, nil
		}

		c.logger.Warn("endpoint failed", "endpoint", endpoint, "keyword", keyword, "error", err)
		errs = append(errs, err)
	}

	return nil, fmt.Errorf("%w: %w", ErrAllEndpointsFailed, errors.Join(errs...))
}

func (c *Client) attempt(ctx context.Context, endpoint, keyword string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL, err := c.buildURL(endpoint, keyword)
	if err != nil {
		return nil, err
	}
	return c.doRequest(ctx, reqURL)
}

func (c *Client) buildURL(endpoint, keyword string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}

	q := u.Query()
	q.Set("query", keyword)
	if c.params.PageSize > 0 {
		q.Set("size", strconv.Itoa(c.params.PageSize))
	}
	setIfPresent(q, "lang", c.params.Lang)
	setIfPresent(q, "sort", c.params.Sort)
	setIfPresent(q, "cat", c.params.Category)
	setIfPresent(q, "rgn", c.params.Region)
	setIfPresent(q, "cur", c.params.Currency)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func setIfPresent(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", desktopUAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Origin", siteOrigin)
	req.Header.Set("Referer", siteReferer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, handleAPIError(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return body, nil
}

func handleAPIError(statusCode int) error {
	switch statusCode {
	case http.StatusForbidden:
		return fmt.Errorf("kufar API refused the request (status %d)", statusCode)
	case http.StatusTooManyRequests:
		return fmt.Errorf("kufar API rate limit exceeded (status %d)", statusCode)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("kufar API server error (status %d)", statusCode)
	default:
		return fmt.Errorf("kufar API error (status %d)", statusCode)
	}
}
