// Package coingecko provides a client for the CoinGecko market chart API
package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/marketview/internal/common"
	"github.com/bobmcallan/marketview/internal/interfaces"
	"github.com/bobmcallan/marketview/internal/models"
)

const (
	DefaultBaseURL   = "https://api.coingecko.com/api/v3"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// ErrInvalidResponse is returned when a 2xx body cannot be decoded
var ErrInvalidResponse = errors.New("failed to decode response")

// Client implements the MarketChartClient interface
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the HTTP client (recorded transports in tests)
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new CoinGecko client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a non-2xx provider response
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("CoinGecko API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// errorBody covers both error shapes CoinGecko returns.
type errorBody struct {
	Error  string `json:"error"`
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
}

// providerMessage extracts a readable message from an error body.
func providerMessage(statusCode int, body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Error != "" {
			return eb.Error
		}
		if eb.Status.ErrorMessage != "" {
			return eb.Status.ErrorMessage
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 && !strings.HasPrefix(text, "<") {
		return text
	}
	return http.StatusText(statusCode)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", c.baseURL+path).Str("days", params.Get("days")).Msg("CoinGecko API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    providerMessage(resp.StatusCode, body),
			Endpoint:   path,
		}
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(result); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	return nil
}

// GetMarketChart retrieves price, market cap and volume history for a coin.
// Defaults: vs_currency=usd, days=30, interval=daily.
func (c *Client) GetMarketChart(ctx context.Context, coinID string, opts ...interfaces.MarketChartOption) (*models.MarketChartPayload, error) {
	if coinID == "" {
		return nil, fmt.Errorf("coin id is required")
	}

	params := &interfaces.MarketChartParams{
		VsCurrency: "usd",
		Days:       "30",
		Interval:   "daily",
	}
	for _, opt := range opts {
		opt(params)
	}

	urlParams := url.Values{}
	urlParams.Set("vs_currency", params.VsCurrency)
	urlParams.Set("days", params.Days)
	if params.Interval != "" {
		urlParams.Set("interval", params.Interval)
	}
	if params.DemoAPIKey != "" {
		urlParams.Set("x_cg_demo_api_key", params.DemoAPIKey)
	}

	path := fmt.Sprintf("/coins/%s/market_chart", url.PathEscape(coinID))

	var payload models.MarketChartPayload
	if err := c.get(ctx, path, urlParams, &payload); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("coin", coinID).
		Int("prices", len(payload.Prices)).
		Msg("CoinGecko market chart received")

	return &payload, nil
}

// Ensure Client implements MarketChartClient
var _ interfaces.MarketChartClient = (*Client)(nil)
