package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/focusvent/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MinorUnitScale is the number of fractional digits carried by Money (cents)
const MinorUnitScale = 2

var (
	maxMinorUnits = decimal.NewFromInt(math.MaxInt64)
	minMinorUnits = decimal.NewFromInt(math.MinInt64)
)

// Money is a value object representing a monetary amount as an integer count
// of minor currency units. It is immutable - all operations return new Money
// instances, and every arithmetic fault is reported instead of wrapping.
type Money struct {
	minor int64
}

// NewMoneyFromMinorUnits creates Money from an integer count of minor units
func NewMoneyFromMinorUnits(minor int64) Money {
	return Money{minor: minor}
}

// NewMoneyFromString parses a decimal numeral such as "12.5" or "-0.05".
// The value is converted to minor units rounding halves away from zero, so
// "0.125" becomes 13 and "-0.125" becomes -13.
func NewMoneyFromString(amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", shared.ErrInvalidFormat, amount)
	}
	// Extreme exponents are settled without rescaling the coefficient.
	exp := int64(d.Exponent())
	switch {
	case d.IsZero():
		return ZeroMoney(), nil
	case exp > maxIntegralExponent:
		return Money{}, fmt.Errorf("%w: %q", shared.ErrOverflow, amount)
	case exp < -int64(len(amount)+MinorUnitScale):
		return ZeroMoney(), nil
	}
	return NewMoneyFromDecimal(d)
}

// Any non-zero coefficient scaled by 10^(maxIntegralExponent+1+MinorUnitScale)
// exceeds the int64 range.
const maxIntegralExponent = 17

// NewMoneyFromDecimal converts a major-unit decimal to Money, rounding half away from zero
func NewMoneyFromDecimal(amount decimal.Decimal) (Money, error) {
	return fromIntegral(amount.Shift(MinorUnitScale).Round(0))
}

// MustNewMoneyFromString parses an amount and panics on error
func MustNewMoneyFromString(amount string) Money {
	m, err := NewMoneyFromString(amount)
	if err != nil {
		panic(err)
	}
	return m
}

// ZeroMoney returns a zero amount
func ZeroMoney() Money {
	return Money{}
}

func fromIntegral(d decimal.Decimal) (Money, error) {
	if d.GreaterThan(maxMinorUnits) || d.LessThan(minMinorUnits) {
		return Money{}, fmt.Errorf("%w: %s minor units", shared.ErrOverflow, d.String())
	}
	return Money{minor: d.IntPart()}, nil
}

// MinorUnits returns the amount in minor units
func (m Money) MinorUnits() int64 {
	return m.minor
}

// Decimal returns the amount in major units as an exact decimal
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.minor, -MinorUnitScale)
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.minor == 0
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.minor > 0
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.minor < 0
}

// Add returns the sum of both amounts or ErrOverflow
func (m Money) Add(other Money) (Money, error) {
	sum := m.minor + other.minor
	if (other.minor > 0 && sum < m.minor) || (other.minor < 0 && sum > m.minor) {
		return Money{}, fmt.Errorf("%w: %s + %s", shared.ErrOverflow, m, other)
	}
	return Money{minor: sum}, nil
}

// Subtract returns the difference or ErrOverflow
func (m Money) Subtract(other Money) (Money, error) {
	diff := m.minor - other.minor
	if (other.minor > 0 && diff > m.minor) || (other.minor < 0 && diff < m.minor) {
		return Money{}, fmt.Errorf("%w: %s - %s", shared.ErrOverflow, m, other)
	}
	return Money{minor: diff}, nil
}

// Scale multiplies the amount by factor (e.g. a quantity) and rounds the
// result to whole minor units, halves away from zero.
func (m Money) Scale(factor decimal.Decimal) (Money, error) {
	return fromIntegral(decimal.NewFromInt(m.minor).Mul(factor).Round(0))
}

// Divide performs truncating integer division of the minor units
func (m Money) Divide(divisor int64) (Money, error) {
	if divisor == 0 {
		return Money{}, shared.ErrDivisionByZero
	}
	if m.minor == math.MinInt64 && divisor == -1 {
		return Money{}, fmt.Errorf("%w: %s / -1", shared.ErrOverflow, m)
	}
	return Money{minor: m.minor / divisor}, nil
}

// Negate returns the amount with the opposite sign
func (m Money) Negate() (Money, error) {
	if m.minor == math.MinInt64 {
		return Money{}, fmt.Errorf("%w: -(%s)", shared.ErrOverflow, m)
	}
	return Money{minor: -m.minor}, nil
}

// Equals returns true if both amounts are equal
func (m Money) Equals(other Money) bool {
	return m.minor == other.minor
}

// Compare returns -1, 0 or +1 ordering m against other
func (m Money) Compare(other Money) int {
	switch {
	case m.minor < other.minor:
		return -1
	case m.minor > other.minor:
		return 1
	}
	return 0
}

// LessThan returns true if this amount is less than the other
func (m Money) LessThan(other Money) bool {
	return m.minor < other.minor
}

// GreaterThan returns true if this amount is greater than the other
func (m Money) GreaterThan(other Money) bool {
	return m.minor > other.minor
}

// String formats the amount in major units without trailing zeros:
// 1250 -> "12.5", 1200 -> "12", 5 -> "0.05".
func (m Money) String() string {
	return m.Decimal().String()
}

// StringFixed formats the amount with exactly two fractional digits ("12.50").
// Use it for display only; the wire form is String.
func (m Money) StringFixed() string {
	return m.Decimal().StringFixed(MinorUnitScale)
}

// Sum adds all values, failing on the first overflow
func Sum(values ...Money) (Money, error) {
	total := ZeroMoney()
	for _, v := range values {
		var err error
		if total, err = total.Add(v); err != nil {
			return Money{}, err
		}
	}
	return total, nil
}

// MarshalJSON encodes the amount as a JSON string ("12.5")
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes a JSON string holding a decimal numeral.
// A JSON null leaves the value untouched.
func (m *Money) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: amount must be a JSON string", shared.ErrInvalidFormat)
	}
	parsed, err := NewMoneyFromString(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (m Money) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for query and form values
func (m *Money) UnmarshalText(text []byte) error {
	parsed, err := NewMoneyFromString(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer. Amounts are stored as integer minor units.
func (m Money) Value() (driver.Value, error) {
	return m.minor, nil
}

// Scan implements sql.Scanner for integer minor-unit columns
func (m *Money) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		m.minor = 0
	case int64:
		m.minor = v
	case []byte:
		return m.scanString(string(v))
	case string:
		return m.scanString(v)
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}
	return nil
}

func (m *Money) scanString(s string) error {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid minor units %q: %w", s, err)
	}
	m.minor = n
	return nil
}
