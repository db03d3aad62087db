package sales

import (
	"github.com/focusvent/backend/internal/domain/shared/valueobject"
)

// CalculationInput holds the priced inputs of one line item.
// Build it with NewCalculationInput so an absent discount is defaulted consistently.
type CalculationInput struct {
	UnitPrice valueobject.Money
	UnitTax   valueobject.Money
	Discount  valueobject.Money
	Quantity  valueobject.Quantity
}

// NewCalculationInput creates calculation inputs; a nil discount means no discount.
// UnitTax is the absolute per-unit tax captured when the line was priced.
func NewCalculationInput(unitPrice, unitTax valueobject.Money, discount *valueobject.Money, quantity valueobject.Quantity) CalculationInput {
	applied := valueobject.ZeroMoney()
	if discount != nil {
		applied = *discount
	}
	return CalculationInput{
		UnitPrice: unitPrice,
		UnitTax:   unitTax,
		Discount:  applied,
		Quantity:  quantity,
	}
}

// Breakdown holds the monetary amounts derived from a CalculationInput
type Breakdown struct {
	SubtotalWithoutDiscount valueobject.Money `json:"subtotal_without_discount"`
	DiscountApplied         valueobject.Money `json:"discount_applied"`
	Subtotal                valueobject.Money `json:"subtotal"`
	TaxApplied              valueobject.Money `json:"tax_applied"`
	Total                   valueobject.Money `json:"total"`
}

// Calculate derives subtotal, discount, tax and total for one line item.
//
//	subtotalWithoutDiscount = unitPrice * quantity
//	subtotal                = subtotalWithoutDiscount - discount
//	taxApplied              = unitTax * quantity
//	total                   = subtotal + taxApplied
//
// The discount is not clamped, so a discount larger than the line yields a
// negative subtotal. The only failure is shared.ErrOverflow.
func Calculate(in CalculationInput) (Breakdown, error) {
	subtotalWithoutDiscount, err := in.UnitPrice.Scale(in.Quantity.Amount())
	if err != nil {
		return Breakdown{}, err
	}
	subtotal, err := subtotalWithoutDiscount.Subtract(in.Discount)
	if err != nil {
		return Breakdown{}, err
	}
	taxApplied, err := in.UnitTax.Scale(in.Quantity.Amount())
	if err != nil {
		return Breakdown{}, err
	}
	total, err := subtotal.Add(taxApplied)
	if err != nil {
		return Breakdown{}, err
	}

	return Breakdown{
		SubtotalWithoutDiscount: subtotalWithoutDiscount,
		DiscountApplied:         in.Discount,
		Subtotal:                subtotal,
		TaxApplied:              taxApplied,
		Total:                   total,
	}, nil
}

// Add returns the field-wise sum of two breakdowns
func (b Breakdown) Add(other Breakdown) (Breakdown, error) {
	var (
		out Breakdown
		err error
	)
	pairs := []struct {
		dst         *valueobject.Money
		left, right valueobject.Money
	}{
		{&out.SubtotalWithoutDiscount, b.SubtotalWithoutDiscount, other.SubtotalWithoutDiscount},
		{&out.DiscountApplied, b.DiscountApplied, other.DiscountApplied},
		{&out.Subtotal, b.Subtotal, other.Subtotal},
		{&out.TaxApplied, b.TaxApplied, other.TaxApplied},
		{&out.Total, b.Total, other.Total},
	}
	for _, p := range pairs {
		if *p.dst, err = valueobject.Sum(p.left, p.right); err != nil {
			return Breakdown{}, err
		}
	}
	return out, nil
}

// SumAmounts aggregates the derived amounts of a set of line items
func SumAmounts(items []LineItem) (Breakdown, error) {
	var total Breakdown
	for i := range items {
		var err error
		if total, err = total.Add(items[i].Amounts()); err != nil {
			return Breakdown{}, err
		}
	}
	return total, nil
}
