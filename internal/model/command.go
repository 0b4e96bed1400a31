package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request identifies one inbound command occurrence. The ID is the
// idempotency key: a request processed once is never processed again.
type Request struct {
	ID     uuid.UUID
	GameID int64
	Owner  string
	At     time.Time // When the command was issued
}

// GameUnit is the duration unit of a new game.
type GameUnit string

const (
	UnitDay    GameUnit = "day"
	UnitDays   GameUnit = "days"
	UnitMonth  GameUnit = "month"
	UnitMonths GameUnit = "months"
)

// Valid reports whether the unit is one of the supported values.
func (u GameUnit) Valid() bool {
	switch u {
	case UnitDay, UnitDays, UnitMonth, UnitMonths:
		return true
	}
	return false
}

// Monthly reports whether the unit uses calendar-month arithmetic.
func (u GameUnit) Monthly() bool {
	return u == UnitMonth || u == UnitMonths
}

// Command is the closed set of instructions the engine accepts. The parsing
// layer produces these values; free text never reaches the core. The marker
// method keeps the set closed to this package.
type Command interface {
	isCommand()
}

// NewGame starts a contest running for Length units from now.
type NewGame struct {
	Length    int
	Unit      GameUnit
	ThreadRef string // Discussion thread the game will live in
}

// MarketOrder buys BuySymbol with SellSymbol at the current price.
// Quantity is either an absolute amount ("1000") or a percentage of the
// available sell-currency balance ("50%").
type MarketOrder struct {
	Quantity   string
	BuySymbol  string
	SellSymbol string
}

// NewLimitOrder reserves funds to buy BuySymbol with SellSymbol once the
// price reaches LimitPrice.
type NewLimitOrder struct {
	Quantity   string
	BuySymbol  string
	SellSymbol string
	LimitPrice decimal.Decimal
}

// CancelLimit cancels a pending limit order owned by the requester.
type CancelLimit struct {
	OrderID int64
}

// PortfolioQuery asks for the requester's current portfolio summary.
type PortfolioQuery struct{}

func (NewGame) isCommand()        {}
func (MarketOrder) isCommand()    {}
func (NewLimitOrder) isCommand()  {}
func (CancelLimit) isCommand()    {}
func (PortfolioQuery) isCommand() {}
