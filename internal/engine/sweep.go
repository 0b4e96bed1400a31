package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mlowery/crypto-game/internal/ledger"
	"github.com/mlowery/crypto-game/internal/model"
)

// Sweep walks a game's open limit orders and settles every one whose
// limit price has been reached. Each order is handled independently: a
// price lookup or settlement failure is logged and alerted but never
// stops the rest of the sweep. Returns how many orders were settled.
func (e *Engine) Sweep(ctx context.Context, gameID int64) (int, error) {
	orders, err := e.ledger.OpenOrders(ctx, gameID)
	if err != nil {
		return 0, fmt.Errorf("sweep open orders: %w", err)
	}
	if len(orders) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	var settled atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.SweepConcurrency)
	for _, order := range orders {
		order := order
		g.Go(func() error {
			if e.sweepOne(ctx, order, now) {
				settled.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(settled.Load()), err
	}

	if n := settled.Load(); n > 0 {
		e.logger.Info("sweep settled limit orders", "game_id", gameID, "settled", n)
	}
	return int(settled.Load()), nil
}

// sweepOne settles a single order if its price condition holds. Reports
// whether the order was settled by this call.
func (e *Engine) sweepOne(ctx context.Context, order model.LimitOrder, now time.Time) bool {
	current, err := e.prices.Price(ctx, order.BuyCurrency, order.SellCurrency, now)
	if err != nil {
		e.logger.Warn("sweep price lookup failed",
			"order_id", order.ID, "buy", order.BuyCurrency,
			"sell", order.SellCurrency, "error", err)
		return false
	}
	// Executes once the market trades at or below the limit.
	if current.GreaterThan(order.LimitPrice) {
		return false
	}

	if err := e.ledger.SettleLimitOrder(ctx, order.ID); err != nil {
		if errors.Is(err, ledger.ErrOrderNotOpen) {
			// Raced with a cancellation or another sweep. Nothing to do.
			return false
		}
		e.logger.Error("limit order settlement failed", "order_id", order.ID, "error", err)
		e.notify(ctx, "Error executing limit order",
			fmt.Sprintf("order %d (game %d, owner %s): %v", order.ID, order.GameID, order.Owner, err))
		return false
	}

	e.logger.Info("limit order settled",
		"order_id", order.ID, "game_id", order.GameID, "owner", order.Owner,
		"limit_price", order.LimitPrice.String(), "price", current.String())
	return true
}
