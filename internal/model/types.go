package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Persisted Entities
// -----------------------------------------------------------------------------

// Game represents one time-boxed contest instance. Games are never deleted;
// the only mutation after creation is flipping Complete once EndAt passes.
type Game struct {
	ID        int64     // Primary key
	ThreadRef string    // Owning discussion-thread reference
	BeginAt   time.Time // Contest start (UTC)
	EndAt     time.Time // Contest end (UTC)
	Complete  bool      // True once the game has been closed
}

// Balance is one owner's holding of one currency within one game.
// Unique per (game, owner, currency); amount is never negative.
type Balance struct {
	ID       int64
	GameID   int64
	Owner    string
	Currency string
	Amount   decimal.Decimal
}

// LimitOrder is a standing instruction to trade once price crosses a
// threshold. SellAmount was reserved out of the owner's balance when the
// order was accepted; Executed and Canceled are mutually exclusive terminal
// states.
type LimitOrder struct {
	ID           int64
	GameID       int64
	RequestID    uuid.UUID // Originating request
	Owner        string
	BuyCurrency  string
	BuyAmount    decimal.Decimal
	SellCurrency string
	SellAmount   decimal.Decimal // Reserved funds, in sell currency
	LimitPrice   decimal.Decimal // Sell currency per unit of buy currency
	Executed     bool
	Canceled     bool
}

// Open reports whether the order is still pending.
func (o LimitOrder) Open() bool {
	return !o.Executed && !o.Canceled
}

// ExecutedTrade is the immutable audit record of a fill.
type ExecutedTrade struct {
	ID           int64
	GameID       int64
	RequestID    uuid.UUID // Request that originated the trade
	Owner        string
	BuyCurrency  string
	BuyAmount    decimal.Decimal
	SellCurrency string
	SellAmount   decimal.Decimal
	CreatedAt    time.Time
}

// Standing is one row of a game's leaderboard snapshot.
type Standing struct {
	GameID int64
	Owner  string
	Value  decimal.Decimal // Portfolio value in the base currency
	Rank   int             // 1-based position, descending by value
}

// -----------------------------------------------------------------------------
// Projections
// -----------------------------------------------------------------------------

// Holding is one valued line of a portfolio summary.
type Holding struct {
	Currency string
	Amount   decimal.Decimal
	Value    decimal.Decimal // Amount valued in the base currency
}

// OpenOrderLine is one valued open limit order in a portfolio summary.
type OpenOrderLine struct {
	OrderID      int64
	BuyCurrency  string
	BuyAmount    decimal.Decimal
	SellCurrency string
	SellAmount   decimal.Decimal
	LimitPrice   decimal.Decimal
	Value        decimal.Decimal // Reserved funds valued in the base currency
}

// PortfolioSummary is the structured projection returned with order results.
// The reply-formatting layer owns its presentation.
type PortfolioSummary struct {
	BaseCurrency  string
	Holdings      []Holding
	OpenOrders    []OpenOrderLine
	HoldingsValue decimal.Decimal
	ReservedValue decimal.Decimal
	TotalValue    decimal.Decimal
}
