package oracle

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
)

// ErrPriceUnavailable is returned when the provider could not supply a
// price within the retry budget. Callers must treat it as "cannot complete
// request", never as zero or a tradeable value.
var ErrPriceUnavailable = errors.New("price unavailable")

// ErrUnsupportedPair is returned when the provider reports that it has no
// data for the requested pair. It matches ErrPriceUnavailable under
// errors.Is.
var ErrUnsupportedPair = fmt.Errorf("unsupported pair: %w", ErrPriceUnavailable)

// providerStatus is the envelope the provider uses for error replies.
// Successful live replies carry no Response field at all.
type providerStatus struct {
	Response string `json:"Response"`
	Message  string `json:"Message"`
}

// noDataMessage is the provider's reply when a pair is not listed at all.
// Seeing it means retrying is pointless.
const noDataMessage = "There is no data for any of the toSymbols"

func (s providerStatus) unsupported() bool {
	return strings.Contains(s.Message, noDataMessage)
}

// doRequest performs a GET and returns the raw body.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Apikey "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("provider status %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return body, nil
}

// attemptOutcome classifies one fetch attempt.
type attemptOutcome int

const (
	attemptOK attemptOutcome = iota
	attemptMiss
	attemptFatal // retrying is pointless (pair unsupported)
)

// fetchWithRetry runs attempt until it succeeds, the retry budget is
// exhausted, or the attempt reports a fatal miss. A fixed delay separates
// attempts. Exhaustion and fatal misses raise an operator alert.
func (c *Client) fetchWithRetry(ctx context.Context, path string, query url.Values, attempt func([]byte) attemptOutcome) error {
	misses := 0

	for {
		body, err := c.doRequest(ctx, path, query)
		if err == nil {
			switch attempt(body) {
			case attemptOK:
				return nil
			case attemptFatal:
				c.logger.Error("provider has no data for pair", "path", path, "query", query.Encode())
				c.notify(ctx, "API Error Getting Price",
					fmt.Sprintf("Provider reports no data for %s?%s", path, query.Encode()))
				return ErrUnsupportedPair
			}
		} else {
			c.logger.Warn("price request failed", "path", path, "err", err)
		}

		misses++
		c.logger.Warn("retrying price request", "attempt", misses, "path", path)

		if misses >= c.maxRetries {
			c.notify(ctx, "API Error Getting Price",
				fmt.Sprintf("Retry number %d call %s?%s", misses, path, query.Encode()))
			return fmt.Errorf("retries exhausted after %d attempts: %w", misses, ErrPriceUnavailable)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
}

// decodeStatus extracts the provider's error envelope, if any.
func decodeStatus(body []byte) providerStatus {
	var s providerStatus
	// Best effort: a success body decodes to an empty status.
	_ = json.Unmarshal(body, &s)
	return s
}
