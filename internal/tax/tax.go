// Package tax implements consumption-tax math for order line items.
//
// All amounts are exact decimals. The single rounding rule is ceiling to the
// whole currency unit (JPY carries no minor unit), applied once to the final
// tax expression. A nil rate means the item is tax-exempt, which is a distinct
// state from a zero rate.
package tax

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Mode represents how tax is baked into an amount.
type Mode string

const (
	// ModeInternal (内税): the amount already includes tax; the tax portion
	// is extracted by division.
	ModeInternal Mode = "internal"

	// ModeExternal (外税): the amount excludes tax; the tax portion is added
	// by multiplication.
	ModeExternal Mode = "external"
)

// ParseMode normalizes a stored tax mode. Unknown or empty values resolve to
// ModeInternal, matching rows created before tax-category tracking existed.
func ParseMode(raw string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeExternal:
		return ModeExternal
	default:
		return ModeInternal
	}
}

var hundred = decimal.NewFromInt(100)

// Compute returns the tax amount for a single line item.
//
// rate is a percentage (10 for 10%). A nil rate returns zero: the item is
// exempt. A zero rate is a real rate and flows through the formula.
//
// Ceiling rounds toward positive infinity, so a negative discount line keeps
// its exact tax when the quotient is whole (ceil(-91) == -91).
func Compute(amount decimal.Decimal, rate *decimal.Decimal, mode Mode) decimal.Decimal {
	if rate == nil {
		return decimal.Zero
	}

	fraction := rate.Div(hundred)
	if mode == ModeExternal {
		return amount.Mul(fraction).Ceil()
	}
	return amount.Mul(fraction).Div(decimal.NewFromInt(1).Add(fraction)).Ceil()
}

// ComputeOnTotal applies the same formula once to an aggregated total. Summing
// per-item ceilings can legitimately differ from one ceiling on the sum; the
// caller picks the granularity the order is settled at.
func ComputeOnTotal(total decimal.Decimal, rate *decimal.Decimal, mode Mode) decimal.Decimal {
	return Compute(total, rate, mode)
}

// ParseAmount reads a stored numeric field. Malformed or empty input degrades
// to zero so one bad line item cannot abort an order's totals.
func ParseAmount(raw string) decimal.Decimal {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return value
}

// ParseRate reads a tax-rate field. Blank or malformed input resolves to nil
// (exempt), never to a default rate.
func ParseRate(raw string) *decimal.Decimal {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil
	}
	return &value
}

// RateFromFloat wraps a float percentage as a rate pointer. Used by callers
// that carry rates as plain numbers in requests.
func RateFromFloat(value float64) *decimal.Decimal {
	rate := decimal.NewFromFloat(value)
	return &rate
}
