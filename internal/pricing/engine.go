package pricing

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
)

// BasisPointScale is the denominator for percentage based strategies.
// 10000 basis points equal 100%.
const BasisPointScale = 10000

var (
	// ErrInvalidCost is returned when the supplied cost is negative.
	ErrInvalidCost = errors.New("invalid cost")
	// ErrInvalidMarkup is returned when the markup value is outside the range the strategy accepts.
	ErrInvalidMarkup = errors.New("invalid markup")
	// ErrUnsupportedStrategy is returned for strategy names outside the fixed set.
	ErrUnsupportedStrategy = errors.New("unsupported pricing strategy")
)

var (
	bpsScale = big.NewInt(BasisPointScale)
	one      = big.NewInt(1)
	two      = big.NewInt(2)
)

// Strategy selects the formula used to derive a selling price from cost.
type Strategy int

const (
	// StrategyMargin prices so the markup is a fraction of the selling price, not of cost.
	StrategyMargin Strategy = iota
	// StrategyTargetMargin behaves exactly like StrategyMargin under a distinct name.
	StrategyTargetMargin
	// StrategyCostPlus adds a percentage of cost on top of cost.
	StrategyCostPlus
	// StrategyMarkupOnCost behaves exactly like StrategyCostPlus under a distinct name.
	StrategyMarkupOnCost
	// StrategyKeystone doubles cost; the markup value is ignored.
	StrategyKeystone
	// StrategyKeystonePlus doubles cost and then adds a percentage on top.
	StrategyKeystonePlus
	// StrategyFixedAmount adds a flat amount of smallest units to cost.
	StrategyFixedAmount
)

// strategyOrder fixes the canonical listing order used in errors and APIs.
var strategyOrder = []Strategy{
	StrategyMargin,
	StrategyTargetMargin,
	StrategyCostPlus,
	StrategyMarkupOnCost,
	StrategyKeystone,
	StrategyKeystonePlus,
	StrategyFixedAmount,
}

var strategyNames = map[Strategy]string{
	StrategyMargin:       "margin",
	StrategyTargetMargin: "targetMargin",
	StrategyCostPlus:     "costPlus",
	StrategyMarkupOnCost: "markupOnCost",
	StrategyKeystone:     "keystone",
	StrategyKeystonePlus: "keystonePlus",
	StrategyFixedAmount:  "fixedAmount",
}

// String implements fmt.Stringer using the wire name of the strategy.
func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy maps a wire name to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	for _, s := range strategyOrder {
		if strategyNames[s] == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedStrategy, name, strings.Join(StrategyNames(), ", "))
}

// StrategyNames lists the supported strategy wire names in canonical order.
func StrategyNames() []string {
	names := make([]string, 0, len(strategyOrder))
	for _, s := range strategyOrder {
		names = append(names, strategyNames[s])
	}
	return names
}

// Calculate derives a selling price from cost and a markup value using the
// given strategy, then applies the rounding rule to the raw price.
//
// cost and the result are amounts in the smallest currency unit. The meaning
// of markup depends on the strategy: basis points for the percentage
// strategies, a flat smallest-unit amount for fixedAmount, ignored for
// keystone. A nil markup is treated as zero. All arithmetic is exact integer
// arithmetic; the inputs are never mutated.
func Calculate(cost, markup *big.Int, strategy Strategy, round Rounding) (*big.Int, error) {
	if cost == nil || cost.Sign() < 0 {
		return nil, fmt.Errorf("%w: cost must be non-negative, got %s", ErrInvalidCost, bigText(cost))
	}
	if markup == nil {
		markup = new(big.Int)
	}
	raw, err := rawPrice(cost, markup, strategy)
	if err != nil {
		return nil, err
	}
	return round.Apply(raw), nil
}

// CalculateMargin prices cost using the margin strategy only. It predates
// Calculate and is kept for callers that never select a strategy.
func CalculateMargin(cost, marginBps *big.Int, round Rounding) (*big.Int, error) {
	return Calculate(cost, marginBps, StrategyMargin, round)
}

func rawPrice(cost, markup *big.Int, strategy Strategy) (*big.Int, error) {
	switch strategy {
	case StrategyMargin, StrategyTargetMargin:
		// Ceiling division guarantees the seller never earns less than the
		// requested margin; the overcharge is at most one smallest unit.
		if markup.Sign() < 0 || markup.Cmp(bpsScale) >= 0 {
			return nil, fmt.Errorf("%w: %s requires 0 <= markup < %d basis points, got %s", ErrInvalidMarkup, strategy, BasisPointScale, markup)
		}
		denom := new(big.Int).Sub(bpsScale, markup)
		return mulDivCeil(cost, bpsScale, denom), nil
	case StrategyCostPlus, StrategyMarkupOnCost:
		if markup.Sign() < 0 {
			return nil, fmt.Errorf("%w: %s requires markup >= 0 basis points, got %s", ErrInvalidMarkup, strategy, markup)
		}
		return mulDivFloor(cost, new(big.Int).Add(bpsScale, markup), bpsScale), nil
	case StrategyKeystone:
		return new(big.Int).Mul(cost, two), nil
	case StrategyKeystonePlus:
		if markup.Sign() < 0 {
			return nil, fmt.Errorf("%w: %s requires markup >= 0 basis points, got %s", ErrInvalidMarkup, strategy, markup)
		}
		doubled := new(big.Int).Mul(cost, two)
		return mulDivFloor(doubled, new(big.Int).Add(bpsScale, markup), bpsScale), nil
	case StrategyFixedAmount:
		if markup.Sign() < 0 {
			return nil, fmt.Errorf("%w: %s requires a non-negative amount, got %s", ErrInvalidMarkup, strategy, markup)
		}
		return new(big.Int).Add(cost, markup), nil
	default:
		return nil, fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedStrategy, strategy, strings.Join(StrategyNames(), ", "))
	}
}

// mulDivFloor computes floor(a*b/d) for non-negative operands.
func mulDivFloor(a, b, d *big.Int) *big.Int {
	num := new(big.Int).Mul(a, b)
	return num.Quo(num, d)
}

// mulDivCeil computes ceil(a*b/d) for non-negative operands.
func mulDivCeil(a, b, d *big.Int) *big.Int {
	num := new(big.Int).Mul(a, b)
	quo, rem := new(big.Int).QuoRem(num, d, new(big.Int))
	if rem.Sign() != 0 {
		quo.Add(quo, one)
	}
	return quo
}

// PercentToBps converts an ordinary percentage (30.0 means 30%) to basis
// points (3000), rounding half away from zero.
func PercentToBps(percent float64) int64 {
	scaled := percent * 100
	if scaled >= 0 {
		return int64(math.Floor(scaled + 0.5))
	}
	return -int64(math.Floor(-scaled + 0.5))
}

func bigText(v *big.Int) string {
	if v == nil {
		return "<nil>"
	}
	return v.String()
}
