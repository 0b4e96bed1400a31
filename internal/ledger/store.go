package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrInsufficientFunds is returned when a locked balance cannot cover a
// trade's cost.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrOrderNotOpen is returned when a limit order is missing or already
// terminal.
var ErrOrderNotOpen = errors.New("limit order not open")

// Store provides transactional access to the game ledger.
type Store struct {
	pool         *pgxpool.Pool
	logger       *slog.Logger
	baseCurrency string
	endowment    decimal.Decimal
}

// NewStore creates a ledger store. endowment is the cash every participant
// starts with, denominated in baseCurrency.
func NewStore(pool *pgxpool.Pool, baseCurrency string, endowment decimal.Decimal, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		pool:         pool,
		logger:       logger,
		baseCurrency: baseCurrency,
		endowment:    endowment,
	}
}

// BaseCurrency returns the currency valuations are expressed in.
func (s *Store) BaseCurrency() string {
	return s.baseCurrency
}

// inTx runs fn inside a transaction, committing on success and rolling back
// on any error or panic.
func (s *Store) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// scanAmount converts a numeric column transferred as text.
func scanAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d, nil
}
