package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mlowery/crypto-game/internal/ledger"
	"github.com/mlowery/crypto-game/internal/model"
)

// CreateLimit validates and reserves a limit order. The order's cost in
// the sell currency is locked away from the owner's balance immediately
// and stays locked until the order executes or is canceled.
func (e *Engine) CreateLimit(ctx context.Context, req model.Request, cmd model.NewLimitOrder) (model.Result, error) {
	qty, err := ParseQuantity(cmd.Quantity)
	if err != nil {
		return model.Failure(msgBadQuantity), nil
	}
	if !cmd.LimitPrice.IsPositive() {
		return model.Failure("the limit price must be greater than 0"), nil
	}

	current, err := e.prices.Price(ctx, cmd.BuySymbol, cmd.SellSymbol, req.At)
	if err != nil {
		e.logger.Warn("limit order price lookup failed",
			"game_id", req.GameID, "owner", req.Owner,
			"buy", cmd.BuySymbol, "sell", cmd.SellSymbol, "error", err)
		return model.Failure(msgNoPrice), nil
	}

	// A limit buy only makes sense below the current price. A limit price
	// above it usually means the caller quoted the pair the wrong way
	// around, so suggest the reciprocal.
	if current.LessThan(cmd.LimitPrice) {
		detail := fmt.Sprintf(
			"the limit price (%s) is above the current price (%s); "+
				"if you meant the inverse pair, try a limit price of %s",
			cmd.LimitPrice.String(), current.String(), reciprocal(cmd.LimitPrice))
		return model.Failure(detail), nil
	}

	available, err := e.ledger.Balance(ctx, req.GameID, req.Owner, cmd.SellSymbol)
	if err != nil {
		return model.Result{}, fmt.Errorf("limit order balance: %w", err)
	}

	cost, bought := qty.Plan(available, cmd.LimitPrice)
	if !available.IsPositive() || available.LessThan(cost) {
		return e.attachPortfolio(ctx, model.Failure(msgNoFunds), req.GameID, req.Owner), nil
	}

	order := model.LimitOrder{
		GameID:       req.GameID,
		RequestID:    req.ID,
		Owner:        req.Owner,
		BuyCurrency:  cmd.BuySymbol,
		BuyAmount:    bought,
		SellCurrency: cmd.SellSymbol,
		SellAmount:   cost,
		LimitPrice:   cmd.LimitPrice,
	}
	orderID, err := e.ledger.ReserveLimitOrder(ctx, order)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			return e.attachPortfolio(ctx, model.Failure(msgNoFunds), req.GameID, req.Owner), nil
		}
		return model.Result{}, fmt.Errorf("reserve limit order: %w", err)
	}

	e.logger.Info("limit order created",
		"game_id", req.GameID, "owner", req.Owner, "order_id", orderID,
		"buy", cmd.BuySymbol, "sell", cmd.SellSymbol,
		"limit_price", cmd.LimitPrice.String(), "reserved", cost.String())

	detail := fmt.Sprintf("limit order %d created: buy %s %s once %s reaches %s %s",
		orderID, bought.String(), cmd.BuySymbol,
		cmd.BuySymbol, cmd.LimitPrice.String(), cmd.SellSymbol)
	return e.attachPortfolio(ctx, model.Success(detail), req.GameID, req.Owner), nil
}

// Cancel cancels one of the requester's open limit orders and returns
// the reserved funds. Orders belonging to someone else, already
// executed, or already canceled report a not-found failure.
func (e *Engine) Cancel(ctx context.Context, req model.Request, cmd model.CancelLimit) (model.Result, error) {
	canceled, err := e.ledger.CancelLimitOrder(ctx, cmd.OrderID, req.Owner)
	if err != nil {
		return model.Result{}, fmt.Errorf("cancel limit order: %w", err)
	}
	if !canceled {
		detail := fmt.Sprintf("no open limit order %d found for you in this game", cmd.OrderID)
		return e.attachPortfolio(ctx, model.Failure(detail), req.GameID, req.Owner), nil
	}

	e.logger.Info("limit order canceled",
		"game_id", req.GameID, "owner", req.Owner, "order_id", cmd.OrderID)
	detail := fmt.Sprintf("limit order %d canceled and funds returned", cmd.OrderID)
	return e.attachPortfolio(ctx, model.Success(detail), req.GameID, req.Owner), nil
}

// reciprocal formats 1/price to six significant figures for the
// inverted-pair hint.
func reciprocal(price decimal.Decimal) string {
	inv, _ := decimal.NewFromInt(1).Div(price).Float64()
	return fmt.Sprintf("%.6g", inv)
}
