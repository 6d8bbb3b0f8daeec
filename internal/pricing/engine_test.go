package pricing

import (
	"errors"
	"math/big"
	"testing"
)

func bi(v int64) *big.Int { return big.NewInt(v) }

func TestMarginScenario(t *testing.T) {
	// ceil(250*10000/7000) = 358
	price, err := Calculate(bi(250), bi(3000), StrategyMargin, Identity())
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if price.Cmp(bi(358)) != 0 {
		t.Fatalf("expected 358, got %s", price)
	}
}

func TestMarginWithCeilStepRounding(t *testing.T) {
	price, err := Calculate(bi(250), bi(3000), StrategyMargin, CeilStep(5))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if price.Cmp(bi(360)) != 0 {
		t.Fatalf("expected 360, got %s", price)
	}
}

func TestMarginWithCharm99Rounding(t *testing.T) {
	// raw is 358, so whole=3, candidate=399 >= 358
	price, err := Calculate(bi(250), bi(3000), StrategyMargin, Charm99())
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if price.Cmp(bi(399)) != 0 {
		t.Fatalf("expected 399, got %s", price)
	}
}

func TestMarginCeilingIsMinimal(t *testing.T) {
	// P*(10000-M) >= C*10000 and (P-1)*(10000-M) < C*10000 for all valid inputs.
	costs := []int64{0, 1, 2, 99, 100, 250, 999, 1000, 123456789}
	margins := []int64{0, 1, 500, 3000, 5000, 9999}
	for _, c := range costs {
		for _, m := range margins {
			price, err := Calculate(bi(c), bi(m), StrategyMargin, Identity())
			if err != nil {
				t.Fatalf("cost=%d margin=%d: %v", c, m, err)
			}
			keep := new(big.Int).Sub(bpsScale, bi(m))
			earned := new(big.Int).Mul(price, keep)
			needed := new(big.Int).Mul(bi(c), bpsScale)
			if earned.Cmp(needed) < 0 {
				t.Fatalf("cost=%d margin=%d: price %s violates margin floor", c, m, price)
			}
			if price.Sign() > 0 {
				lower := new(big.Int).Mul(new(big.Int).Sub(price, big.NewInt(1)), keep)
				if lower.Cmp(needed) >= 0 {
					t.Fatalf("cost=%d margin=%d: price %s is not minimal", c, m, price)
				}
			}
		}
	}
}

func TestTargetMarginMatchesMargin(t *testing.T) {
	a, err := Calculate(bi(250), bi(3000), StrategyMargin, Identity())
	if err != nil {
		t.Fatalf("margin: %v", err)
	}
	b, err := Calculate(bi(250), bi(3000), StrategyTargetMargin, Identity())
	if err != nil {
		t.Fatalf("targetMargin: %v", err)
	}
	if a.Cmp(b) != 0 {
		t.Fatalf("margin=%s targetMargin=%s", a, b)
	}
}

func TestKeystoneDoublesCost(t *testing.T) {
	for _, c := range []int64{0, 1, 250, 1000, 987654321} {
		// markup deliberately nonsense, keystone must ignore it
		price, err := Calculate(bi(c), bi(-42), StrategyKeystone, Identity())
		if err != nil {
			t.Fatalf("cost=%d: %v", c, err)
		}
		if price.Cmp(bi(2*c)) != 0 {
			t.Fatalf("cost=%d: expected %d, got %s", c, 2*c, price)
		}
	}
}

func TestKeystoneBigCost(t *testing.T) {
	price, err := Calculate(bi(1000), bi(0), StrategyKeystone, Identity())
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if price.Cmp(bi(2000)) != 0 {
		t.Fatalf("expected 2000, got %s", price)
	}
}

func TestCostPlusFloors(t *testing.T) {
	price, err := Calculate(bi(1000), bi(2500), StrategyCostPlus, Identity())
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if price.Cmp(bi(1250)) != 0 {
		t.Fatalf("expected 1250, got %s", price)
	}
	// floor(999*10001/10000) = 999
	price, err = Calculate(bi(999), bi(1), StrategyCostPlus, Identity())
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if price.Cmp(bi(999)) != 0 {
		t.Fatalf("expected floor division, got %s", price)
	}
}

func TestMarkupOnCostMatchesCostPlus(t *testing.T) {
	a, err := Calculate(bi(1000), bi(2500), StrategyCostPlus, Identity())
	if err != nil {
		t.Fatalf("costPlus: %v", err)
	}
	b, err := Calculate(bi(1000), bi(2500), StrategyMarkupOnCost, Identity())
	if err != nil {
		t.Fatalf("markupOnCost: %v", err)
	}
	if a.Cmp(b) != 0 {
		t.Fatalf("costPlus=%s markupOnCost=%s", a, b)
	}
}

func TestKeystonePlus(t *testing.T) {
	// floor(1000*2*11000/10000) = 2200
	price, err := Calculate(bi(1000), bi(1000), StrategyKeystonePlus, Identity())
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if price.Cmp(bi(2200)) != 0 {
		t.Fatalf("expected 2200, got %s", price)
	}
}

func TestFixedAmount(t *testing.T) {
	price, err := Calculate(bi(500), bi(500), StrategyFixedAmount, Identity())
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if price.Cmp(bi(1000)) != 0 {
		t.Fatalf("expected 1000, got %s", price)
	}
}

func TestNegativeCostRejectedForEveryStrategy(t *testing.T) {
	for _, s := range strategyOrder {
		_, err := Calculate(bi(-1), bi(0), s, Identity())
		if !errors.Is(err, ErrInvalidCost) {
			t.Fatalf("strategy %s: expected ErrInvalidCost, got %v", s, err)
		}
	}
}

func TestFullMarginRejected(t *testing.T) {
	for _, s := range []Strategy{StrategyMargin, StrategyTargetMargin} {
		_, err := Calculate(bi(100), bi(10000), s, Identity())
		if !errors.Is(err, ErrInvalidMarkup) {
			t.Fatalf("strategy %s: expected ErrInvalidMarkup at 10000 bps, got %v", s, err)
		}
		_, err = Calculate(bi(100), bi(-1), s, Identity())
		if !errors.Is(err, ErrInvalidMarkup) {
			t.Fatalf("strategy %s: expected ErrInvalidMarkup below zero, got %v", s, err)
		}
	}
}

func TestNegativeMarkupRejectedForAdditiveStrategies(t *testing.T) {
	for _, s := range []Strategy{StrategyCostPlus, StrategyMarkupOnCost, StrategyKeystonePlus, StrategyFixedAmount} {
		_, err := Calculate(bi(100), bi(-1), s, Identity())
		if !errors.Is(err, ErrInvalidMarkup) {
			t.Fatalf("strategy %s: expected ErrInvalidMarkup, got %v", s, err)
		}
	}
}

func TestParseStrategy(t *testing.T) {
	for _, name := range StrategyNames() {
		s, err := ParseStrategy(name)
		if err != nil {
			t.Fatalf("parse %q: %v", name, err)
		}
		if s.String() != name {
			t.Fatalf("round trip %q -> %q", name, s)
		}
	}
	_, err := ParseStrategy("cargoCult")
	if !errors.Is(err, ErrUnsupportedStrategy) {
		t.Fatalf("expected ErrUnsupportedStrategy, got %v", err)
	}
}

func TestCalculateMarginLegacyEntryPoint(t *testing.T) {
	legacy, err := CalculateMargin(bi(250), bi(3000), Identity())
	if err != nil {
		t.Fatalf("legacy: %v", err)
	}
	general, err := Calculate(bi(250), bi(3000), StrategyMargin, Identity())
	if err != nil {
		t.Fatalf("general: %v", err)
	}
	if legacy.Cmp(general) != 0 {
		t.Fatalf("legacy=%s general=%s", legacy, general)
	}
}

func TestCalculateDoesNotMutateInputs(t *testing.T) {
	cost := bi(250)
	markup := bi(3000)
	if _, err := Calculate(cost, markup, StrategyMargin, CeilStep(5)); err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if cost.Cmp(bi(250)) != 0 || markup.Cmp(bi(3000)) != 0 {
		t.Fatalf("inputs mutated: cost=%s markup=%s", cost, markup)
	}
}

func TestCalculateHugeCost(t *testing.T) {
	cost, ok := new(big.Int).SetString("340282366920938463463374607431768211456", 10) // 2^128
	if !ok {
		t.Fatal("parse big cost")
	}
	price, err := Calculate(cost, bi(5000), StrategyMargin, Identity())
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	expected := new(big.Int).Mul(cost, bi(2)) // 50% margin doubles the price
	if price.Cmp(expected) != 0 {
		t.Fatalf("expected %s, got %s", expected, price)
	}
}

func TestPercentToBps(t *testing.T) {
	cases := []struct {
		percent float64
		bps     int64
	}{
		{0, 0},
		{30, 3000},
		{25.5, 2550},
		{0.005, 1},
		{0.004, 0},
		{-1.5, -150},
		{99.999, 10000},
	}
	for _, tc := range cases {
		if got := PercentToBps(tc.percent); got != tc.bps {
			t.Fatalf("PercentToBps(%v) = %d, expected %d", tc.percent, got, tc.bps)
		}
	}
}
