package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mlowery/crypto-game/internal/model"
)

// ExecuteTrade atomically debits the sell currency by cost, credits the buy
// currency by buyAmount, and appends the audit record. The sell balance is
// re-verified under lock; all four mutations commit together or not at all.
func (s *Store) ExecuteTrade(ctx context.Context, t model.ExecutedTrade) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		available, found, err := lockBalance(ctx, tx, t.GameID, t.Owner, t.SellCurrency)
		if err != nil {
			return err
		}
		if !found || available.LessThan(t.SellAmount) {
			return ErrInsufficientFunds
		}

		if err := setBalance(ctx, tx, t.GameID, t.Owner, t.SellCurrency, available.Sub(t.SellAmount)); err != nil {
			return err
		}
		if err := creditBalance(ctx, tx, t.GameID, t.Owner, t.BuyCurrency, t.BuyAmount); err != nil {
			return err
		}
		return insertTrade(ctx, tx, t)
	})
}

// ReserveLimitOrder atomically debits the order's cost from the owner's
// sell-currency balance and inserts the open order. The reservation prevents
// the same funds backing two pending orders.
func (s *Store) ReserveLimitOrder(ctx context.Context, o model.LimitOrder) (int64, error) {
	var orderID int64
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		available, found, err := lockBalance(ctx, tx, o.GameID, o.Owner, o.SellCurrency)
		if err != nil {
			return err
		}
		if !found || available.LessThan(o.SellAmount) {
			return ErrInsufficientFunds
		}

		if err := setBalance(ctx, tx, o.GameID, o.Owner, o.SellCurrency, available.Sub(o.SellAmount)); err != nil {
			return err
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO limit_orders
				(game_id, request_id, owner, buy_currency, buy_amount,
				 sell_currency, sell_amount, limit_price)
			VALUES ($1, $2, $3, $4, $5::numeric, $6, $7::numeric, $8::numeric)
			RETURNING order_id
		`, o.GameID, o.RequestID, o.Owner, o.BuyCurrency, o.BuyAmount.String(),
			o.SellCurrency, o.SellAmount.String(), o.LimitPrice.String()).Scan(&orderID)
		if err != nil {
			return fmt.Errorf("insert limit order: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return orderID, nil
}

// SettleLimitOrder executes an open limit order: marks it executed, credits
// the buy currency, and appends the audit record. The reservation already
// removed the sell funds, so nothing is re-debited. If any step fails the
// transaction rolls back and the order remains open for a later sweep.
func (s *Store) SettleLimitOrder(ctx context.Context, orderID int64) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		var (
			o       model.LimitOrder
			buyRaw  string
			sellRaw string
		)
		err := tx.QueryRow(ctx, `
			UPDATE limit_orders SET executed = TRUE
			WHERE order_id = $1 AND NOT executed AND NOT canceled
			RETURNING game_id, request_id, owner, buy_currency, buy_amount::text,
			          sell_currency, sell_amount::text
		`, orderID).Scan(&o.GameID, &o.RequestID, &o.Owner, &o.BuyCurrency, &buyRaw,
			&o.SellCurrency, &sellRaw)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotOpen
		}
		if err != nil {
			return fmt.Errorf("mark executed: %w", err)
		}

		if o.BuyAmount, err = scanAmount(buyRaw); err != nil {
			return err
		}
		if o.SellAmount, err = scanAmount(sellRaw); err != nil {
			return err
		}

		if err := creditBalance(ctx, tx, o.GameID, o.Owner, o.BuyCurrency, o.BuyAmount); err != nil {
			return err
		}

		return insertTrade(ctx, tx, model.ExecutedTrade{
			GameID:       o.GameID,
			RequestID:    o.RequestID,
			Owner:        o.Owner,
			BuyCurrency:  o.BuyCurrency,
			BuyAmount:    o.BuyAmount,
			SellCurrency: o.SellCurrency,
			SellAmount:   o.SellAmount,
		})
	})
}

// CancelLimitOrder cancels an open order owned by owner, returning the
// reserved funds to the sell-currency balance. Reports whether a matching
// open order was found.
func (s *Store) CancelLimitOrder(ctx context.Context, orderID int64, owner string) (bool, error) {
	found := false
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var (
			gameID       int64
			sellCurrency string
			sellRaw      string
		)
		err := tx.QueryRow(ctx, `
			UPDATE limit_orders SET canceled = TRUE
			WHERE order_id = $1 AND owner = $2 AND NOT executed AND NOT canceled
			RETURNING game_id, sell_currency, sell_amount::text
		`, orderID, owner).Scan(&gameID, &sellCurrency, &sellRaw)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("mark canceled: %w", err)
		}

		sellAmount, err := scanAmount(sellRaw)
		if err != nil {
			return err
		}
		if err := creditBalance(ctx, tx, gameID, owner, sellCurrency, sellAmount); err != nil {
			return err
		}

		found = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// OpenOrders returns every non-terminal limit order in a game.
func (s *Store) OpenOrders(ctx context.Context, gameID int64) ([]model.LimitOrder, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT order_id, game_id, request_id, owner, buy_currency, buy_amount::text,
		       sell_currency, sell_amount::text, limit_price::text, executed, canceled
		FROM limit_orders
		WHERE game_id = $1 AND NOT executed AND NOT canceled
		ORDER BY order_id ASC
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query open orders: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

// OwnerOpenOrders returns an owner's non-terminal limit orders in a game,
// ordered by buy currency.
func (s *Store) OwnerOpenOrders(ctx context.Context, gameID int64, owner string) ([]model.LimitOrder, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT order_id, game_id, request_id, owner, buy_currency, buy_amount::text,
		       sell_currency, sell_amount::text, limit_price::text, executed, canceled
		FROM limit_orders
		WHERE game_id = $1 AND owner = $2 AND NOT executed AND NOT canceled
		ORDER BY buy_currency ASC, order_id ASC
	`, gameID, owner)
	if err != nil {
		return nil, fmt.Errorf("query owner open orders: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

func collectOrders(rows pgx.Rows) ([]model.LimitOrder, error) {
	var orders []model.LimitOrder
	for rows.Next() {
		var (
			o        model.LimitOrder
			buyRaw   string
			sellRaw  string
			priceRaw string
		)
		if err := rows.Scan(&o.ID, &o.GameID, &o.RequestID, &o.Owner, &o.BuyCurrency, &buyRaw,
			&o.SellCurrency, &sellRaw, &priceRaw, &o.Executed, &o.Canceled); err != nil {
			return nil, fmt.Errorf("scan limit order: %w", err)
		}

		var err error
		if o.BuyAmount, err = scanAmount(buyRaw); err != nil {
			return nil, err
		}
		if o.SellAmount, err = scanAmount(sellRaw); err != nil {
			return nil, err
		}
		if o.LimitPrice, err = scanAmount(priceRaw); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func insertTrade(ctx context.Context, tx pgx.Tx, t model.ExecutedTrade) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO executed_trades
			(game_id, request_id, owner, buy_currency, buy_amount,
			 sell_currency, sell_amount)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7::numeric)
	`, t.GameID, t.RequestID, t.Owner, t.BuyCurrency, t.BuyAmount.String(),
		t.SellCurrency, t.SellAmount.String())
	if err != nil {
		return fmt.Errorf("insert executed trade: %w", err)
	}
	return nil
}
