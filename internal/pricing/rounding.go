package pricing

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
)

// ErrUnsupportedRounding is returned when a rounding name is not in the registry.
var ErrUnsupportedRounding = errors.New("rounding strategy not found")

var (
	hundred    = big.NewInt(100)
	ninetyNine = big.NewInt(99)
)

// RoundFunc maps an integer price in smallest units to a rounded price.
type RoundFunc func(*big.Int) *big.Int

type roundingKind int

const (
	roundIdentity roundingKind = iota
	roundCeilStep
	roundCharm99
	roundCustom
)

// Rounding is a cosmetic rounding rule applied to a computed raw price.
// The zero value is the identity rule.
type Rounding struct {
	kind roundingKind
	step *big.Int
	fn   RoundFunc
}

// Identity returns the rule that leaves prices unchanged.
func Identity() Rounding {
	return Rounding{kind: roundIdentity}
}

// CeilStep returns the rule that rounds up to the next multiple of step
// smallest units. Prices already on a multiple pass through unchanged.
// Steps below 1 are treated as 1.
func CeilStep(step int64) Rounding {
	if step < 1 {
		step = 1
	}
	return Rounding{kind: roundCeilStep, step: big.NewInt(step)}
}

// Charm99 returns the rule that rounds up to the nearest price ending in 99
// smallest units, assuming 100 smallest units per major unit.
func Charm99() Rounding {
	return Rounding{kind: roundCharm99}
}

// Custom wraps an arbitrary caller-supplied rounding function. A nil
// function behaves like Identity.
func Custom(fn RoundFunc) Rounding {
	return Rounding{kind: roundCustom, fn: fn}
}

// Apply rounds price according to the rule. The input is never mutated and
// a fresh value is always returned.
func (r Rounding) Apply(price *big.Int) *big.Int {
	switch r.kind {
	case roundCeilStep:
		rem := new(big.Int).Rem(price, r.step)
		out := new(big.Int).Sub(price, rem)
		if rem.Sign() != 0 {
			out.Add(out, r.step)
		}
		return out
	case roundCharm99:
		whole := new(big.Int).Quo(price, hundred)
		candidate := new(big.Int).Mul(whole, hundred)
		candidate.Add(candidate, ninetyNine)
		if candidate.Cmp(price) >= 0 {
			return candidate
		}
		candidate.Add(candidate, hundred)
		return candidate
	case roundCustom:
		if r.fn != nil {
			return r.fn(price)
		}
		return new(big.Int).Set(price)
	default:
		return new(big.Int).Set(price)
	}
}

// String returns the registry name for built-in rules, "ceilN" for arbitrary
// step rules, and "custom" for wrapped functions.
func (r Rounding) String() string {
	switch r.kind {
	case roundCeilStep:
		return fmt.Sprintf("ceil%s", r.step)
	case roundCharm99:
		return "charm99"
	case roundCustom:
		return "custom"
	default:
		return "identity"
	}
}

// roundingRegistry holds the fixed set of named rules. The ceil variants
// cover the cash granularities of circulating currencies: 1 for currencies
// with no practical sub-unit constraint, 5 for five-unit cash rounding
// (CHF style), larger steps for display prices on whole units.
var roundingRegistry = map[string]Rounding{
	"identity": Identity(),
	"charm99":  Charm99(),
	"ceil1":    CeilStep(1),
	"ceil5":    CeilStep(5),
	"ceil10":   CeilStep(10),
	"ceil50":   CeilStep(50),
	"ceil100":  CeilStep(100),
}

// ParseRounding resolves a built-in rounding rule by registry name.
func ParseRounding(name string) (Rounding, error) {
	if r, ok := roundingRegistry[name]; ok {
		return r, nil
	}
	return Rounding{}, fmt.Errorf("%w: %q", ErrUnsupportedRounding, name)
}

// RoundingNames lists the registry keys in sorted order.
func RoundingNames() []string {
	names := make([]string, 0, len(roundingRegistry))
	for name := range roundingRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
