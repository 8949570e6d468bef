/*
money.go - Monetary value type

PURPOSE:
  Every amount in the system flows through Money, a thin wrapper around
  decimal.Decimal. Using arbitrary-precision decimals everywhere avoids
  the floating-point drift that corrupts balances over many small
  payments.

WHY A WRAPPER?
  Working with decimal.Decimal directly is fine for one-off math, but the
  ledger only needs a small, closed set of operations (add, subtract,
  negate, compare, floor at zero). Wrapping keeps call sites short and
  makes it impossible to accidentally mix a raw float into a balance.

STORAGE:
  Money is persisted as TEXT (decimal string), never as REAL. The store
  round-trips through String()/ParseMoney.

SEE ALSO:
  - billing/balance.go: The main consumer of Money arithmetic
  - store/sqlite/sqlite.go: TEXT encoding
*/
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an arbitrary-precision monetary amount. The zero value is 0.00.
// Sign conventions are owned by callers: ledger entry amounts are signed,
// payment amounts are always positive.
type Money struct {
	value decimal.Decimal
}

// NewMoney builds a Money from integer units and an exponent,
// e.g. NewMoney(149950, -2) == 1499.50.
func NewMoney(units int64, exp int32) Money {
	return Money{value: decimal.New(units, exp)}
}

// NewMoneyFromInt builds a whole-unit Money.
func NewMoneyFromInt(v int64) Money {
	return Money{value: decimal.NewFromInt(v)}
}

// ParseMoney parses a decimal string ("1499.50").
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid money value %q: %w", s, err)
	}
	return Money{value: d}, nil
}

// MustMoney is ParseMoney for literals in tests and seeds. Panics on bad input.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero is the additive identity.
func Zero() Money { return Money{} }

func (m Money) Add(o Money) Money { return Money{value: m.value.Add(o.value)} }
func (m Money) Sub(o Money) Money { return Money{value: m.value.Sub(o.value)} }
func (m Money) Neg() Money        { return Money{value: m.value.Neg()} }

func (m Money) IsZero() bool     { return m.value.IsZero() }
func (m Money) IsNegative() bool { return m.value.IsNegative() }
func (m Money) IsPositive() bool { return m.value.IsPositive() }

func (m Money) Equal(o Money) bool       { return m.value.Equal(o.value) }
func (m Money) GreaterThan(o Money) bool { return m.value.GreaterThan(o.value) }
func (m Money) LessThan(o Money) bool    { return m.value.LessThan(o.value) }

// FloorZero clamps negative amounts to zero. Used by balance reconciliation:
// an overpaid document reports balance 0, never a negative debt.
func (m Money) FloorZero() Money {
	if m.value.IsNegative() {
		return Zero()
	}
	return m
}

// Mul scales by a decimal factor (line subtotal = unit price * quantity).
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{value: m.value.Mul(factor)}
}

// String renders the canonical decimal form, suitable for storage.
func (m Money) String() string { return m.value.String() }

// StringFixed renders with exactly two decimal places for display.
func (m Money) StringFixed() string { return m.value.StringFixed(2) }

// Decimal exposes the underlying value for callers that need raw decimal math.
func (m Money) Decimal() decimal.Decimal { return m.value }

// MarshalJSON encodes Money as a JSON string to preserve precision.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.value.String() + `"`), nil
}

// UnmarshalJSON accepts both "1499.50" and 1499.50.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid money value %s: %w", string(b), err)
	}
	m.value = d
	return nil
}
