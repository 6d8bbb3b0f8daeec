// Package currency carries the ISO 4217 metadata the pricing engine itself
// never looks at: how many decimal places a currency uses and the smallest
// cash step it is traded in. The engine works on plain smallest-unit
// integers; this package converts between those integers and decimal
// amounts at the edges.
package currency

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrUnknownCurrency is returned when a code is not in the ISO 4217 table.
var ErrUnknownCurrency = errors.New("unknown currency")

// ErrInvalidAmount is returned when a decimal amount cannot be expressed
// exactly in the currency's smallest unit.
var ErrInvalidAmount = errors.New("invalid amount")

// Currency describes the ISO 4217 properties needed to convert between
// decimal amounts and smallest-unit integers.
type Currency struct {
	// Code is the three-letter alphabetic code, e.g. "USD".
	Code string
	// Num is the three-digit numeric code, e.g. "840".
	Num string
	// Scale is the number of digits after the decimal point.
	Scale int
	// CashStep is the conventional cash rounding granularity in smallest
	// units: 5 for currencies rounded to five sub-units (CHF), 1 otherwise.
	CashStep int64
}

var currencies = []Currency{
	{Code: "AED", Num: "784", Scale: 2, CashStep: 1},
	{Code: "AUD", Num: "036", Scale: 2, CashStep: 5},
	{Code: "BHD", Num: "048", Scale: 3, CashStep: 5},
	{Code: "BRL", Num: "986", Scale: 2, CashStep: 1},
	{Code: "CAD", Num: "124", Scale: 2, CashStep: 5},
	{Code: "CHF", Num: "756", Scale: 2, CashStep: 5},
	{Code: "CLP", Num: "152", Scale: 0, CashStep: 1},
	{Code: "CNY", Num: "156", Scale: 2, CashStep: 1},
	{Code: "CZK", Num: "203", Scale: 2, CashStep: 100},
	{Code: "DKK", Num: "208", Scale: 2, CashStep: 50},
	{Code: "EUR", Num: "978", Scale: 2, CashStep: 1},
	{Code: "GBP", Num: "826", Scale: 2, CashStep: 1},
	{Code: "HKD", Num: "344", Scale: 2, CashStep: 10},
	{Code: "IDR", Num: "360", Scale: 2, CashStep: 100},
	{Code: "ILS", Num: "376", Scale: 2, CashStep: 10},
	{Code: "INR", Num: "356", Scale: 2, CashStep: 100},
	{Code: "JPY", Num: "392", Scale: 0, CashStep: 1},
	{Code: "KRW", Num: "410", Scale: 0, CashStep: 1},
	{Code: "KWD", Num: "414", Scale: 3, CashStep: 5},
	{Code: "MXN", Num: "484", Scale: 2, CashStep: 5},
	{Code: "MYR", Num: "458", Scale: 2, CashStep: 5},
	{Code: "NOK", Num: "578", Scale: 2, CashStep: 100},
	{Code: "NZD", Num: "554", Scale: 2, CashStep: 10},
	{Code: "OMR", Num: "512", Scale: 3, CashStep: 5},
	{Code: "PHP", Num: "608", Scale: 2, CashStep: 1},
	{Code: "PLN", Num: "985", Scale: 2, CashStep: 1},
	{Code: "SAR", Num: "682", Scale: 2, CashStep: 1},
	{Code: "SEK", Num: "752", Scale: 2, CashStep: 100},
	{Code: "SGD", Num: "702", Scale: 2, CashStep: 1},
	{Code: "THB", Num: "764", Scale: 2, CashStep: 25},
	{Code: "TRY", Num: "949", Scale: 2, CashStep: 1},
	{Code: "USD", Num: "840", Scale: 2, CashStep: 1},
	{Code: "VND", Num: "704", Scale: 0, CashStep: 100},
	{Code: "ZAR", Num: "710", Scale: 2, CashStep: 10},
}

var lookup = buildLookup()

func buildLookup() map[string]Currency {
	m := make(map[string]Currency, len(currencies)*2)
	for _, c := range currencies {
		m[c.Code] = c
		m[c.Num] = c
	}
	return m
}

// Parse resolves a currency from its alphabetic or numeric ISO 4217 code.
// Alphabetic codes are matched case-insensitively.
func Parse(code string) (Currency, error) {
	key := strings.ToUpper(strings.TrimSpace(code))
	if c, ok := lookup[key]; ok {
		return c, nil
	}
	return Currency{}, fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
}

// Codes lists the supported alphabetic codes in table order.
func Codes() []string {
	out := make([]string, 0, len(currencies))
	for _, c := range currencies {
		out = append(out, c.Code)
	}
	return out
}

// MinorUnits converts a decimal amount such as "2.50" into smallest units.
// The fractional part must not exceed the currency scale; shorter fractions
// are zero padded. The sign is preserved so callers can surface their own
// validation errors for negative costs.
func (c Currency) MinorUnits(amount string) (*big.Int, error) {
	text := strings.TrimSpace(amount)
	if text == "" {
		return nil, fmt.Errorf("%w: empty amount", ErrInvalidAmount)
	}
	negative := false
	switch text[0] {
	case '-':
		negative = true
		text = text[1:]
	case '+':
		text = text[1:]
	}
	whole, frac := text, ""
	if idx := strings.IndexByte(text, '.'); idx >= 0 {
		whole, frac = text[:idx], text[idx+1:]
	}
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > c.Scale {
		return nil, fmt.Errorf("%w: %q has more than %d decimal places for %s", ErrInvalidAmount, amount, c.Scale, c.Code)
	}
	frac += strings.Repeat("0", c.Scale-len(frac))
	digits := whole + frac
	if !isDigits(digits) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	minor, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if negative {
		minor.Neg(minor)
	}
	return minor, nil
}

// FormatMinor renders a smallest-unit amount as a decimal string with the
// currency's scale, e.g. 358 -> "3.58" for a two-decimal currency.
func (c Currency) FormatMinor(minor *big.Int) string {
	if minor == nil {
		minor = new(big.Int)
	}
	digits := new(big.Int).Abs(minor).String()
	sign := ""
	if minor.Sign() < 0 {
		sign = "-"
	}
	if c.Scale == 0 {
		return sign + digits
	}
	if len(digits) <= c.Scale {
		digits = strings.Repeat("0", c.Scale-len(digits)+1) + digits
	}
	cut := len(digits) - c.Scale
	return sign + digits[:cut] + "." + digits[cut:]
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
