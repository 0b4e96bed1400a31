package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/mlowery/crypto-game/internal/ledger"
	"github.com/mlowery/crypto-game/internal/model"
)

// ExecuteMarket fills a market order at the price the oracle reports for
// the request time. Validation and funding problems come back as failed
// results; only infrastructure faults surface as errors.
func (e *Engine) ExecuteMarket(ctx context.Context, req model.Request, cmd model.MarketOrder) (model.Result, error) {
	qty, err := ParseQuantity(cmd.Quantity)
	if err != nil {
		return model.Failure(msgBadQuantity), nil
	}

	price, err := e.prices.Price(ctx, cmd.BuySymbol, cmd.SellSymbol, req.At)
	if err != nil {
		e.logger.Warn("market order price lookup failed",
			"game_id", req.GameID, "owner", req.Owner,
			"buy", cmd.BuySymbol, "sell", cmd.SellSymbol, "error", err)
		return model.Failure(msgNoPrice), nil
	}

	available, err := e.ledger.Balance(ctx, req.GameID, req.Owner, cmd.SellSymbol)
	if err != nil {
		return model.Result{}, fmt.Errorf("market order balance: %w", err)
	}

	cost, bought := qty.Plan(available, price)
	if !available.IsPositive() || available.LessThan(cost) {
		return e.attachPortfolio(ctx, model.Failure(msgNoFunds), req.GameID, req.Owner), nil
	}

	trade := model.ExecutedTrade{
		GameID:       req.GameID,
		RequestID:    req.ID,
		Owner:        req.Owner,
		BuyCurrency:  cmd.BuySymbol,
		BuyAmount:    bought,
		SellCurrency: cmd.SellSymbol,
		SellAmount:   cost,
	}
	if err := e.ledger.ExecuteTrade(ctx, trade); err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			// The balance moved between the read and the trade.
			return e.attachPortfolio(ctx, model.Failure(msgNoFunds), req.GameID, req.Owner), nil
		}
		return model.Result{}, fmt.Errorf("execute trade: %w", err)
	}

	e.logger.Info("market order filled",
		"game_id", req.GameID, "owner", req.Owner,
		"buy", cmd.BuySymbol, "bought", bought.String(),
		"sell", cmd.SellSymbol, "cost", cost.String(),
		"price", price.String())

	detail := fmt.Sprintf("bought %s %s for %s %s",
		bought.String(), cmd.BuySymbol, cost.String(), cmd.SellSymbol)
	return e.attachPortfolio(ctx, model.Success(detail), req.GameID, req.Owner), nil
}
