package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// liveWindow is how far in the past a requested time may lie before the
// historical endpoint is used instead of the spot endpoint.
const liveWindow = 60 * time.Second

// exchangeAggregate selects the provider's aggregated price index.
const exchangeAggregate = "CCCAGG"

// histoResponse is the historical minute-bar reply.
type histoResponse struct {
	Response string     `json:"Response"`
	Message  string     `json:"Message"`
	Data     []priceBar `json:"Data"`
}

// priceBar is a single 1-minute bar.
type priceBar struct {
	Time  int64   `json:"time"`
	Close float64 `json:"close"`
}

// Price returns the price of one unit of fromSymbol expressed in toSymbol
// at the given time. Times within 60 seconds of now use the live spot
// endpoint; older times use the 1-minute historical bar ending at that time.
func (c *Client) Price(ctx context.Context, fromSymbol, toSymbol string, at time.Time) (decimal.Decimal, error) {
	if p, ok := c.cache.get(fromSymbol, toSymbol, at); ok {
		return p, nil
	}

	var (
		price decimal.Decimal
		err   error
	)
	if time.Since(at) <= liveWindow {
		price, err = c.spotPrice(ctx, fromSymbol, toSymbol)
	} else {
		price, err = c.historicalPrice(ctx, fromSymbol, toSymbol, at)
	}
	if err != nil {
		return decimal.Decimal{}, err
	}

	c.cache.put(fromSymbol, toSymbol, at, price)
	return price, nil
}

// spotPrice queries the live endpoint for a single pair. The reply must be
// keyed by the pair's base symbol or the attempt counts as a miss.
func (c *Client) spotPrice(ctx context.Context, fromSymbol, toSymbol string) (decimal.Decimal, error) {
	query := url.Values{}
	query.Set("fsyms", fromSymbol)
	query.Set("tsyms", toSymbol)

	var price decimal.Decimal
	err := c.fetchWithRetry(ctx, "/pricemulti", query, func(body []byte) attemptOutcome {
		if decodeStatus(body).unsupported() {
			return attemptFatal
		}

		var prices map[string]map[string]float64
		if err := json.Unmarshal(body, &prices); err != nil {
			return attemptMiss
		}

		v, ok := prices[fromSymbol][toSymbol]
		if !ok || v <= 0 {
			return attemptMiss
		}

		price = decimal.NewFromFloat(v)
		return attemptOK
	})
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("spot price %s/%s: %w", fromSymbol, toSymbol, err)
	}

	return price, nil
}

// historicalPrice queries one 1-minute bar ending at the requested time and
// accepts it only if the bar closed within 60 seconds of that time.
func (c *Client) historicalPrice(ctx context.Context, fromSymbol, toSymbol string, at time.Time) (decimal.Decimal, error) {
	query := url.Values{}
	query.Set("fsym", fromSymbol)
	query.Set("tsym", toSymbol)
	query.Set("toTs", strconv.FormatInt(at.Unix(), 10))
	query.Set("e", exchangeAggregate)
	query.Set("limit", "1")

	var price decimal.Decimal
	err := c.fetchWithRetry(ctx, "/histominute", query, func(body []byte) attemptOutcome {
		var resp histoResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return attemptMiss
		}
		if resp.Response != "Success" {
			return attemptMiss
		}

		for _, bar := range resp.Data {
			if at.Unix()-bar.Time < 60 && bar.Close > 0 {
				price = decimal.NewFromFloat(bar.Close)
				return attemptOK
			}
		}
		return attemptMiss
	})
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("historical price %s/%s at %d: %w", fromSymbol, toSymbol, at.Unix(), err)
	}

	return price, nil
}

// CurrentValues returns the current base-currency value of every symbol in
// one batched call. Success is judged by the presence of the first requested
// symbol in the reply.
func (c *Client) CurrentValues(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	if len(symbols) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	query := url.Values{}
	query.Set("fsyms", strings.Join(symbols, ","))
	query.Set("tsyms", c.baseCurrency)

	values := make(map[string]decimal.Decimal, len(symbols))
	err := c.fetchWithRetry(ctx, "/pricemulti", query, func(body []byte) attemptOutcome {
		var prices map[string]map[string]float64
		if err := json.Unmarshal(body, &prices); err != nil {
			return attemptMiss
		}
		if _, ok := prices[symbols[0]]; !ok {
			return attemptMiss
		}

		for sym, quotes := range prices {
			if v, ok := quotes[c.baseCurrency]; ok && v > 0 {
				values[sym] = decimal.NewFromFloat(v)
			}
		}
		return attemptOK
	})
	if err != nil {
		return nil, fmt.Errorf("current values: %w", err)
	}

	return values, nil
}

// HistoricalValues returns the base-currency value of every symbol at the
// given time. Lookups fan out one concurrent request per non-base symbol;
// the base currency is fixed at 1 without a call. A failed symbol is dropped
// from the result rather than failing the batch.
func (c *Client) HistoricalValues(ctx context.Context, symbols []string, at time.Time) (map[string]decimal.Decimal, error) {
	type slot struct {
		value decimal.Decimal
		ok    bool
	}
	results := make([]slot, len(symbols))

	var g errgroup.Group
	g.SetLimit(c.fanoutLimit())

	for i, sym := range symbols {
		if sym == c.baseCurrency {
			results[i] = slot{value: decimal.NewFromInt(1), ok: true}
			continue
		}

		i, sym := i, sym
		g.Go(func() error {
			v, err := c.Price(ctx, sym, c.baseCurrency, at)
			if err != nil {
				// Drop this symbol's contribution; the rest proceed.
				c.logger.Warn("historical value lookup failed", "symbol", sym, "err", err)
				return nil
			}
			results[i] = slot{value: v, ok: true}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	values := make(map[string]decimal.Decimal, len(symbols))
	for i, sym := range symbols {
		if results[i].ok {
			values[sym] = results[i].value
		}
	}
	return values, nil
}

func (c *Client) fanoutLimit() int {
	if c.maxFanout > 0 {
		return c.maxFanout
	}
	return 10
}
