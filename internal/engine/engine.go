package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mlowery/crypto-game/internal/model"
)

// PriceSource supplies point-in-time and batched current prices.
type PriceSource interface {
	Price(ctx context.Context, fromSymbol, toSymbol string, at time.Time) (decimal.Decimal, error)
	CurrentValues(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
}

// Ledger is the subset of the store the engine mutates and reads.
type Ledger interface {
	BaseCurrency() string
	Balance(ctx context.Context, gameID int64, owner, currency string) (decimal.Decimal, error)
	OwnerBalances(ctx context.Context, gameID int64, owner string) ([]model.Balance, error)
	OwnerOpenOrders(ctx context.Context, gameID int64, owner string) ([]model.LimitOrder, error)
	OpenOrders(ctx context.Context, gameID int64) ([]model.LimitOrder, error)
	ExecuteTrade(ctx context.Context, t model.ExecutedTrade) error
	ReserveLimitOrder(ctx context.Context, o model.LimitOrder) (int64, error)
	SettleLimitOrder(ctx context.Context, orderID int64) error
	CancelLimitOrder(ctx context.Context, orderID int64, owner string) (bool, error)
}

// Notifier delivers operator alerts for failures needing investigation.
type Notifier interface {
	Notify(ctx context.Context, subject, body string)
}

// Config holds engine tuning.
type Config struct {
	SweepConcurrency int // Max concurrent order settlements per sweep
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		SweepConcurrency: 10,
	}
}

// Engine executes market and limit orders for the trading game.
type Engine struct {
	cfg      Config
	ledger   Ledger
	prices   PriceSource
	notifier Notifier
	logger   *slog.Logger
}

// New creates an order-execution engine.
func New(cfg Config, ledger Ledger, prices PriceSource, notifier Notifier, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SweepConcurrency < 1 {
		cfg.SweepConcurrency = DefaultConfig().SweepConcurrency
	}
	return &Engine{
		cfg:      cfg,
		ledger:   ledger,
		prices:   prices,
		notifier: notifier,
		logger:   logger,
	}
}

func (e *Engine) notify(ctx context.Context, subject, body string) {
	if e.notifier != nil {
		e.notifier.Notify(ctx, subject, body)
	}
}

// Messages returned to callers. The reply layer renders them verbatim.
const (
	msgBadQuantity = "quantities must be greater than 0 and percentages cannot exceed 100%"
	msgNoPrice     = "the currency pair may be unsupported or the price source is unavailable; please try again later"
	msgNoFunds     = "you have insufficient funds to make that trade"
)
