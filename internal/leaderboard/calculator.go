package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mlowery/crypto-game/internal/model"
)

// liveWindow bounds how stale an as-of time may be before historical
// prices are used instead of the live batch endpoint.
const liveWindow = 60 * time.Second

// PriceSource supplies batched base-currency valuations.
type PriceSource interface {
	CurrentValues(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
	HistoricalValues(ctx context.Context, symbols []string, at time.Time) (map[string]decimal.Decimal, error)
}

// Ledger is the store subset the calculator reads and writes.
type Ledger interface {
	Currencies(ctx context.Context, gameID int64) ([]string, error)
	GameBalances(ctx context.Context, gameID int64) ([]model.Balance, error)
	OpenOrders(ctx context.Context, gameID int64) ([]model.LimitOrder, error)
	ReplaceStandings(ctx context.Context, gameID int64, standings []model.Standing) error
}

// Calculator computes and persists leaderboard snapshots.
type Calculator struct {
	ledger Ledger
	prices PriceSource
	logger *slog.Logger
}

// New creates a leaderboard calculator.
func New(ledger Ledger, prices PriceSource, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{ledger: ledger, prices: prices, logger: logger}
}

// Refresh recomputes a game's standings as of the given time and replaces
// the persisted snapshot. Recent as-of times value portfolios at live
// prices; older times (a game being closed at its end time) use
// historical prices so the final standing reflects the moment the game
// ended. Returns the new standings in rank order.
func (c *Calculator) Refresh(ctx context.Context, game model.Game, asOf time.Time) ([]model.Standing, error) {
	standings, err := c.compute(ctx, game, asOf)
	if err != nil {
		return nil, err
	}
	if err := c.ledger.ReplaceStandings(ctx, game.ID, standings); err != nil {
		return nil, fmt.Errorf("replace standings: %w", err)
	}
	return standings, nil
}

func (c *Calculator) compute(ctx context.Context, game model.Game, asOf time.Time) ([]model.Standing, error) {
	currencies, err := c.ledger.Currencies(ctx, game.ID)
	if err != nil {
		return nil, fmt.Errorf("game currencies: %w", err)
	}
	if len(currencies) == 0 {
		return nil, nil
	}

	balances, err := c.ledger.GameBalances(ctx, game.ID)
	if err != nil {
		return nil, fmt.Errorf("game balances: %w", err)
	}
	orders, err := c.ledger.OpenOrders(ctx, game.ID)
	if err != nil {
		return nil, fmt.Errorf("game open orders: %w", err)
	}
	for _, o := range orders {
		currencies = appendMissing(currencies, o.SellCurrency)
	}

	values, err := c.valuations(ctx, currencies, asOf)
	if err != nil {
		return nil, fmt.Errorf("valuations: %w", err)
	}

	totals := make(map[string]decimal.Decimal)
	accumulate := func(owner, currency string, amount decimal.Decimal) {
		price, ok := values[currency]
		if !ok {
			// A missing price drops this contribution rather than
			// failing the whole leaderboard.
			c.logger.Warn("no valuation for currency, skipping contribution",
				"game_id", game.ID, "owner", owner, "currency", currency)
			return
		}
		totals[owner] = totals[owner].Add(amount.Mul(price))
	}
	for _, b := range balances {
		accumulate(b.Owner, b.Currency, b.Amount)
	}
	for _, o := range orders {
		accumulate(o.Owner, o.SellCurrency, o.SellAmount)
	}

	standings := make([]model.Standing, 0, len(totals))
	for owner, value := range totals {
		standings = append(standings, model.Standing{
			GameID: game.ID,
			Owner:  owner,
			Value:  value,
		})
	}
	sort.Slice(standings, func(i, j int) bool {
		if !standings[i].Value.Equal(standings[j].Value) {
			return standings[i].Value.GreaterThan(standings[j].Value)
		}
		return standings[i].Owner < standings[j].Owner
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings, nil
}

// valuations picks the live batch endpoint for fresh as-of times and the
// per-symbol historical fan-out otherwise.
func (c *Calculator) valuations(ctx context.Context, symbols []string, asOf time.Time) (map[string]decimal.Decimal, error) {
	if time.Since(asOf) <= liveWindow {
		return c.prices.CurrentValues(ctx, symbols)
	}
	return c.prices.HistoricalValues(ctx, symbols, asOf)
}

func appendMissing(symbols []string, sym string) []string {
	for _, s := range symbols {
		if s == sym {
			return symbols
		}
	}
	return append(symbols, sym)
}
