package valueobject

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/focusvent/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// maxQuantityExponent bounds the decimal exponent accepted for a quantity
const maxQuantityExponent = 32

// Quantity is a value object representing how many units of a product are sold.
// It supports decimal quantities for items sold by weight/volume.
// It is immutable - all operations return new Quantity instances
type Quantity struct {
	value decimal.Decimal
}

// NewQuantity creates a new Quantity; negative values are rejected
func NewQuantity(value decimal.Decimal) (Quantity, error) {
	if value.IsNegative() {
		return Quantity{}, fmt.Errorf("%w: quantity cannot be negative", shared.ErrInvalidInput)
	}
	if exp := value.Exponent(); exp > maxQuantityExponent || exp < -maxQuantityExponent {
		return Quantity{}, fmt.Errorf("%w: quantity out of range", shared.ErrInvalidInput)
	}
	return Quantity{value: value}, nil
}

// NewQuantityFromInt creates Quantity from an int64 value
func NewQuantityFromInt(value int64) (Quantity, error) {
	return NewQuantity(decimal.NewFromInt(value))
}

// NewQuantityFromString creates Quantity from a string representation
func NewQuantityFromString(value string) (Quantity, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Quantity{}, fmt.Errorf("%w: invalid quantity %q", shared.ErrInvalidInput, value)
	}
	return NewQuantity(d)
}

// MustNewQuantity creates a Quantity and panics on error
func MustNewQuantity(value decimal.Decimal) Quantity {
	q, err := NewQuantity(value)
	if err != nil {
		panic(err)
	}
	return q
}

// MustNewQuantityFromString creates a Quantity from a string and panics on error
func MustNewQuantityFromString(value string) Quantity {
	q, err := NewQuantityFromString(value)
	if err != nil {
		panic(err)
	}
	return q
}

// ZeroQuantity returns a zero quantity
func ZeroQuantity() Quantity {
	return Quantity{value: decimal.Zero}
}

// Amount returns the quantity as a decimal
func (q Quantity) Amount() decimal.Decimal {
	return q.value
}

// IsZero returns true if the quantity is zero
func (q Quantity) IsZero() bool {
	return q.value.IsZero()
}

// IsPositive returns true if the quantity is greater than zero
func (q Quantity) IsPositive() bool {
	return q.value.IsPositive()
}

// Equals returns true if both quantities are numerically equal
func (q Quantity) Equals(other Quantity) bool {
	return q.value.Equal(other.value)
}

// String returns the quantity in its natural decimal form
func (q Quantity) String() string {
	return q.value.String()
}

// MarshalJSON encodes the quantity as a JSON number
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.value.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string
func (q *Quantity) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	raw := string(data)
	if bytes.HasPrefix(data, []byte(`"`)) {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%w: invalid quantity", shared.ErrInvalidInput)
		}
	}
	parsed, err := NewQuantityFromString(raw)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// Value implements driver.Valuer for numeric columns
func (q Quantity) Value() (driver.Value, error) {
	return q.value.String(), nil
}

// Scan implements sql.Scanner for numeric columns
func (q *Quantity) Scan(value any) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("cannot scan quantity: %w", err)
	}
	q.value = d
	return nil
}
