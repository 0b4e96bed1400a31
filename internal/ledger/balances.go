package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mlowery/crypto-game/internal/model"
)

// EnsureEndowment creates the starting cash balance for (game, owner) if the
// owner has no balances in the game yet. Safe to call before every order.
func (s *Store) EnsureEndowment(ctx context.Context, gameID int64, owner string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO balances (game_id, owner, currency, amount)
		SELECT $1, $2, $3, $4::numeric
		WHERE NOT EXISTS (
			SELECT 1 FROM balances WHERE game_id = $1 AND owner = $2
		)
		ON CONFLICT (game_id, owner, currency) DO NOTHING
	`, gameID, owner, s.baseCurrency, s.endowment.String())
	if err != nil {
		return fmt.Errorf("ensure endowment: %w", err)
	}
	return nil
}

// Balance returns the owner's amount of one currency, zero if absent.
func (s *Store) Balance(ctx context.Context, gameID int64, owner, currency string) (decimal.Decimal, error) {
	var raw string
	err := s.pool.QueryRow(ctx, `
		SELECT amount::text FROM balances
		WHERE game_id = $1 AND owner = $2 AND currency = $3
	`, gameID, owner, currency).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Decimal{}, nil
	}
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("query balance: %w", err)
	}
	return scanAmount(raw)
}

// OwnerBalances returns all of an owner's balances in a game, ordered by
// currency.
func (s *Store) OwnerBalances(ctx context.Context, gameID int64, owner string) ([]model.Balance, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT balance_id, game_id, owner, currency, amount::text
		FROM balances
		WHERE game_id = $1 AND owner = $2
		ORDER BY currency ASC
	`, gameID, owner)
	if err != nil {
		return nil, fmt.Errorf("query owner balances: %w", err)
	}
	defer rows.Close()

	return collectBalances(rows)
}

// GameBalances returns every balance row in a game.
func (s *Store) GameBalances(ctx context.Context, gameID int64) ([]model.Balance, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT balance_id, game_id, owner, currency, amount::text
		FROM balances
		WHERE game_id = $1
		ORDER BY owner ASC, currency ASC
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query game balances: %w", err)
	}
	defer rows.Close()

	return collectBalances(rows)
}

// Currencies returns the distinct currencies in use in a game, ordered.
func (s *Store) Currencies(ctx context.Context, gameID int64) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT currency FROM balances
		WHERE game_id = $1
		ORDER BY currency ASC
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query currencies: %w", err)
	}
	defer rows.Close()

	var currencies []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan currency: %w", err)
		}
		currencies = append(currencies, c)
	}
	return currencies, rows.Err()
}

func collectBalances(rows pgx.Rows) ([]model.Balance, error) {
	var balances []model.Balance
	for rows.Next() {
		var (
			b   model.Balance
			raw string
		)
		if err := rows.Scan(&b.ID, &b.GameID, &b.Owner, &b.Currency, &raw); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		amount, err := scanAmount(raw)
		if err != nil {
			return nil, err
		}
		b.Amount = amount
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

// lockBalance reads a balance row FOR UPDATE inside tx, returning zero and
// false if the row does not exist.
func lockBalance(ctx context.Context, tx pgx.Tx, gameID int64, owner, currency string) (decimal.Decimal, bool, error) {
	var raw string
	err := tx.QueryRow(ctx, `
		SELECT amount::text FROM balances
		WHERE game_id = $1 AND owner = $2 AND currency = $3
		FOR UPDATE
	`, gameID, owner, currency).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Decimal{}, false, nil
	}
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("lock balance: %w", err)
	}

	amount, err := scanAmount(raw)
	if err != nil {
		return decimal.Decimal{}, false, err
	}
	return amount, true, nil
}

// setBalance overwrites a balance row inside tx.
func setBalance(ctx context.Context, tx pgx.Tx, gameID int64, owner, currency string, amount decimal.Decimal) error {
	_, err := tx.Exec(ctx, `
		UPDATE balances SET amount = $4::numeric
		WHERE game_id = $1 AND owner = $2 AND currency = $3
	`, gameID, owner, currency, amount.String())
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}

// creditBalance adds to a balance row inside tx, creating it if needed.
func creditBalance(ctx context.Context, tx pgx.Tx, gameID int64, owner, currency string, amount decimal.Decimal) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO balances (game_id, owner, currency, amount)
		VALUES ($1, $2, $3, $4::numeric)
		ON CONFLICT (game_id, owner, currency)
		DO UPDATE SET amount = balances.amount + EXCLUDED.amount
	`, gameID, owner, currency, amount.String())
	if err != nil {
		return fmt.Errorf("credit balance: %w", err)
	}
	return nil
}
