package engine

import (
	"context"
	"fmt"

	"github.com/mlowery/crypto-game/internal/model"
)

// Portfolio projects an owner's current position in a game: every
// holding and open limit-order reservation valued at current prices.
// Holdings whose price the source cannot supply are omitted from the
// projection rather than failing the whole summary.
func (e *Engine) Portfolio(ctx context.Context, gameID int64, owner string) (*model.PortfolioSummary, error) {
	balances, err := e.ledger.OwnerBalances(ctx, gameID, owner)
	if err != nil {
		return nil, fmt.Errorf("portfolio balances: %w", err)
	}
	orders, err := e.ledger.OwnerOpenOrders(ctx, gameID, owner)
	if err != nil {
		return nil, fmt.Errorf("portfolio open orders: %w", err)
	}

	base := e.ledger.BaseCurrency()
	symbols := collectSymbols(balances, orders)
	values, err := e.prices.CurrentValues(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("portfolio valuation: %w", err)
	}

	summary := &model.PortfolioSummary{BaseCurrency: base}
	for _, b := range balances {
		price, ok := values[b.Currency]
		if !ok {
			e.logger.Warn("no price for holding, omitting from portfolio",
				"game_id", gameID, "owner", owner, "currency", b.Currency)
			continue
		}
		value := b.Amount.Mul(price)
		summary.Holdings = append(summary.Holdings, model.Holding{
			Currency: b.Currency,
			Amount:   b.Amount,
			Value:    value,
		})
		summary.HoldingsValue = summary.HoldingsValue.Add(value)
	}
	for _, o := range orders {
		line := model.OpenOrderLine{
			OrderID:      o.ID,
			BuyCurrency:  o.BuyCurrency,
			BuyAmount:    o.BuyAmount,
			SellCurrency: o.SellCurrency,
			SellAmount:   o.SellAmount,
			LimitPrice:   o.LimitPrice,
		}
		if price, ok := values[o.SellCurrency]; ok {
			line.Value = o.SellAmount.Mul(price)
			summary.ReservedValue = summary.ReservedValue.Add(line.Value)
		}
		summary.OpenOrders = append(summary.OpenOrders, line)
	}
	summary.TotalValue = summary.HoldingsValue.Add(summary.ReservedValue)
	return summary, nil
}

// collectSymbols returns the union of currencies held and reserved,
// de-duplicated, in first-seen order.
func collectSymbols(balances []model.Balance, orders []model.LimitOrder) []string {
	seen := make(map[string]bool)
	var symbols []string
	add := func(sym string) {
		if !seen[sym] {
			seen[sym] = true
			symbols = append(symbols, sym)
		}
	}
	for _, b := range balances {
		add(b.Currency)
	}
	for _, o := range orders {
		add(o.SellCurrency)
	}
	return symbols
}

// attachPortfolio decorates a result with the owner's portfolio when the
// projection succeeds; valuation trouble never masks the result itself.
func (e *Engine) attachPortfolio(ctx context.Context, res model.Result, gameID int64, owner string) model.Result {
	summary, err := e.Portfolio(ctx, gameID, owner)
	if err != nil {
		e.logger.Warn("portfolio projection failed", "game_id", gameID, "owner", owner, "error", err)
		return res
	}
	return res.WithPortfolio(summary)
}
