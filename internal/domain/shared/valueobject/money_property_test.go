package valueobject

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func TestProperty_MoneyRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		minor := rapid.Int64().Draw(t, "minor")

		formatted := NewMoneyFromMinorUnits(minor).String()
		parsed, err := NewMoneyFromString(formatted)
		if err != nil {
			t.Fatalf("parse(%q) failed for %d minor units: %v", formatted, minor, err)
		}
		if parsed.MinorUnits() != minor {
			t.Fatalf("round-trip failed: %d -> %q -> %d", minor, formatted, parsed.MinorUnits())
		}
	})
}

func TestProperty_MoneyAddMatchesIntegerAddition(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Int64Range(math.MinInt64/2, math.MaxInt64/2).Draw(t, "a")
		b := rapid.Int64Range(math.MinInt64/2, math.MaxInt64/2).Draw(t, "b")

		sum, err := NewMoneyFromMinorUnits(a).Add(NewMoneyFromMinorUnits(b))
		if err != nil {
			t.Fatalf("Add(%d, %d) failed: %v", a, b, err)
		}
		if sum.MinorUnits() != a+b {
			t.Fatalf("Add(%d, %d) = %d, want %d", a, b, sum.MinorUnits(), a+b)
		}

		diff, err := NewMoneyFromMinorUnits(a).Subtract(NewMoneyFromMinorUnits(b))
		if err != nil {
			t.Fatalf("Subtract(%d, %d) failed: %v", a, b, err)
		}
		if diff.MinorUnits() != a-b {
			t.Fatalf("Subtract(%d, %d) = %d, want %d", a, b, diff.MinorUnits(), a-b)
		}

		reversed, _ := NewMoneyFromMinorUnits(b).Add(NewMoneyFromMinorUnits(a))
		if !reversed.Equals(sum) {
			t.Fatalf("Add is not commutative for %d, %d", a, b)
		}
	})
}

func TestProperty_MoneyAddNeverWraps(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Int64().Draw(t, "a")
		b := rapid.Int64().Draw(t, "b")

		sum, err := NewMoneyFromMinorUnits(a).Add(NewMoneyFromMinorUnits(b))
		if err != nil {
			return
		}
		// Without overflow the sign of the result is consistent with the operands.
		if a >= 0 && b >= 0 && sum.IsNegative() {
			t.Fatalf("Add(%d, %d) wrapped to %d", a, b, sum.MinorUnits())
		}
		if a < 0 && b < 0 && !sum.IsNegative() {
			t.Fatalf("Add(%d, %d) wrapped to %d", a, b, sum.MinorUnits())
		}
	})
}
