package oracle

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Notifier delivers out-of-band operator alerts. Delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, subject, body string)
}

// Client provides access to the market-data provider's REST API.
type Client struct {
	baseURL      string
	apiKey       string
	baseCurrency string
	httpClient   *http.Client
	logger       *slog.Logger
	notifier     Notifier

	maxRetries int
	retryDelay time.Duration
	maxFanout  int

	cache *priceCache
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new price oracle client. baseCurrency is the currency
// batched valuations are expressed in; it is always valued at 1.
func NewClient(baseURL, baseCurrency string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:      baseURL,
		baseCurrency: baseCurrency,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:     slog.Default(),
		maxRetries: 10,
		retryDelay: time.Second,
		cache:      newPriceCache(time.Minute),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry budget and the delay between attempts.
func WithRetries(max int, delay time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryDelay = delay
	}
}

// WithFanout bounds the number of concurrent historical lookups.
func WithFanout(n int) ClientOption {
	return func(c *Client) {
		c.maxFanout = n
	}
}

// WithAPIKey sets the provider API key.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithNotifier sets the operator alert notifier.
func WithNotifier(n Notifier) ClientOption {
	return func(c *Client) {
		c.notifier = n
	}
}

// WithCacheTTL bounds how long cached prices are served.
func WithCacheTTL(ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.cache = newPriceCache(ttl)
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// notify raises an operator alert if a notifier is configured.
func (c *Client) notify(ctx context.Context, subject, body string) {
	if c.notifier != nil {
		c.notifier.Notify(ctx, subject, body)
	}
}
