/*
Package money provides the exact-arithmetic value type for the engine.

PURPOSE:
  Every monetary amount and every percentage in the system flows through
  money.Money. The type wraps decimal.Decimal so that discount math,
  claim amounts, and ROI ratios are exact: no float64 ever touches a
  price after construction.

KEY CONCEPTS IN THIS FILE:
  - Money: An exact decimal magnitude (price, discount, percentage, ratio)
  - Scale: Division rounds half-up to Scale fractional digits
  - Boundary encoding: Money crosses process boundaries as decimal strings

DESIGN PRINCIPLES:
  1. Exactness: Add/Sub/Mul are exact; only Div rounds, at a fixed scale
  2. Determinism: The same inputs always produce bit-identical output,
     which makes calculator results safely memoizable
  3. String boundaries: JSON, YAML, SQL and event payloads all carry the
     canonical decimal string, never a binary float

USAGE:
  price := money.MustParse("100")
  discount := price.Percent(money.MustParse("10")) // 10.00 per unit
  final := price.Sub(discount)                     // 90

SEE ALSO:
  - promo/types.go: Domain types built on Money
  - engine/calculator.go: The arithmetic consumer
*/
package money

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Scale is the number of fractional digits kept when dividing.
// Four digits keeps per-unit rates exact enough to re-aggregate without
// drift at typical order volumes.
const Scale = 4

// =============================================================================
// MONEY - Exact decimal magnitude
// =============================================================================

type Money struct {
	Value decimal.Decimal
}

func Zero() Money { return Money{} }

func FromInt(n int64) Money { return Money{Value: decimal.NewFromInt(n)} }

// Parse reads a canonical decimal string ("19.99", "-4", "6.6667").
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", s, err)
	}
	return Money{Value: d}, nil
}

// MustParse is for constants and tests; invalid input panics.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// =============================================================================
// ARITHMETIC
// =============================================================================

func (m Money) Add(o Money) Money { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Mul(o Money) Money { return Money{Value: m.Value.Mul(o.Value)} }
func (m Money) MulInt(n int64) Money {
	return Money{Value: m.Value.Mul(decimal.NewFromInt(n))}
}
func (m Money) Neg() Money { return Money{Value: m.Value.Neg()} }

// Div rounds half-up to Scale digits. Division is the only lossy
// operation; callers that need a different scale re-round explicitly.
func (m Money) Div(o Money) Money {
	return Money{Value: m.Value.DivRound(o.Value, Scale)}
}

func (m Money) DivInt(n int64) Money {
	return Money{Value: m.Value.DivRound(decimal.NewFromInt(n), Scale)}
}

// Percent returns m * pct / 100, exactly (Shift(-2) is a pure exponent
// move, no rounding).
func (m Money) Percent(pct Money) Money {
	return Money{Value: m.Value.Mul(pct.Value).Shift(-2)}
}

func (m Money) Min(o Money) Money {
	if m.LessThan(o) {
		return m
	}
	return o
}

func (m Money) Max(o Money) Money {
	if m.GreaterThan(o) {
		return m
	}
	return o
}

// =============================================================================
// COMPARISON
// =============================================================================

func (m Money) IsZero() bool                 { return m.Value.IsZero() }
func (m Money) IsNegative() bool             { return m.Value.IsNegative() }
func (m Money) IsPositive() bool             { return m.Value.IsPositive() }
func (m Money) Equal(o Money) bool           { return m.Value.Equal(o.Value) }
func (m Money) GreaterThan(o Money) bool     { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool        { return m.Value.LessThan(o.Value) }
func (m Money) GreaterOrEqual(o Money) bool  { return m.Value.GreaterThanOrEqual(o.Value) }
func (m Money) LessOrEqual(o Money) bool     { return m.Value.LessThanOrEqual(o.Value) }

// Float64 is for confidence-style scores and display only. Monetary
// paths must never round-trip through it.
func (m Money) Float64() float64 {
	f, _ := m.Value.Float64()
	return f
}

// =============================================================================
// BOUNDARY ENCODING - Canonical decimal strings
// =============================================================================

// String returns the exact canonical form, e.g. "6.6667".
func (m Money) String() string { return m.Value.String() }

// StringFixed returns a display form with exactly two fractional digits.
func (m Money) StringFixed() string { return m.Value.StringFixed(2) }

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Value.String())
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Money) MarshalYAML() (interface{}, error) {
	return m.Value.String(), nil
}

func (m *Money) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
