package engine

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrBadQuantity reports a quantity spec that is zero, negative, over 100
// percent, or unparseable.
var ErrBadQuantity = errors.New("invalid quantity")

var oneHundred = decimal.NewFromInt(100)

// Quantity is a parsed order size: either an absolute amount of the
// currency being sold for percent specs, or of the currency being bought
// for absolute specs.
type Quantity struct {
	Value   decimal.Decimal
	Percent bool
}

// ParseQuantity parses an order size spec. A trailing "%" marks a
// percentage of the available sell-side balance, which must fall in
// (0, 100]. Anything else is an absolute amount of the buy currency and
// must be positive.
func ParseQuantity(spec string) (Quantity, error) {
	spec = strings.TrimSpace(spec)
	percent := strings.HasSuffix(spec, "%")
	if percent {
		spec = strings.TrimSuffix(spec, "%")
	}

	value, err := decimal.NewFromString(strings.ReplaceAll(spec, ",", ""))
	if err != nil {
		return Quantity{}, ErrBadQuantity
	}
	if !value.IsPositive() {
		return Quantity{}, ErrBadQuantity
	}
	if percent && value.GreaterThan(oneHundred) {
		return Quantity{}, ErrBadQuantity
	}
	return Quantity{Value: value, Percent: percent}, nil
}

// Plan converts the quantity into a (cost, bought) pair at the given
// price: cost is how much of the sell currency is spent, bought how much
// of the buy currency is received.
func (q Quantity) Plan(available, price decimal.Decimal) (cost, bought decimal.Decimal) {
	if q.Percent {
		cost = q.Value.Div(oneHundred).Mul(available)
		bought = cost.Div(price)
		return cost, bought
	}
	return q.Value.Mul(price), q.Value
}
