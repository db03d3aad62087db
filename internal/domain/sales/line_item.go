package sales

import (
	"fmt"

	"github.com/focusvent/backend/internal/domain/shared"
	"github.com/focusvent/backend/internal/domain/shared/valueobject"
)

// LineItem is one product line of a sale.
// (SaleID, ProductID) is its natural key. The priced inputs and the derived
// amounts change together through NewLineItem and Revise only.
type LineItem struct {
	shared.BaseEntity
	SaleID      int64
	ProductID   int64
	Observation *string
	input       CalculationInput
	amounts     Breakdown
}

// NewLineItem creates a new, not yet persisted line item and prices it
func NewLineItem(saleID, productID int64, in CalculationInput, observation *string) (*LineItem, error) {
	if saleID <= 0 {
		return nil, fmt.Errorf("%w: sale id must be positive", shared.ErrInvalidInput)
	}
	if productID <= 0 {
		return nil, fmt.Errorf("%w: product id must be positive", shared.ErrInvalidInput)
	}

	amounts, err := Calculate(in)
	if err != nil {
		return nil, err
	}

	return &LineItem{
		BaseEntity:  shared.NewBaseEntity(),
		SaleID:      saleID,
		ProductID:   productID,
		Observation: observation,
		input:       in,
		amounts:     amounts,
	}, nil
}

// RestoreLineItem rebuilds a persisted line item without recomputing its amounts
func RestoreLineItem(base shared.BaseEntity, saleID, productID int64, in CalculationInput, amounts Breakdown, observation *string) *LineItem {
	return &LineItem{
		BaseEntity:  base,
		SaleID:      saleID,
		ProductID:   productID,
		Observation: observation,
		input:       in,
		amounts:     amounts,
	}
}

// Revise overwrites the priced inputs and recomputes every derived amount.
// A nil observation keeps the stored one. Identity and natural key are kept.
// On error the item is left unchanged.
func (l *LineItem) Revise(in CalculationInput, observation *string) error {
	amounts, err := Calculate(in)
	if err != nil {
		return err
	}
	l.input = in
	l.amounts = amounts
	if observation != nil {
		l.Observation = observation
	}
	l.Touch()
	return nil
}

// Input returns the priced inputs
func (l *LineItem) Input() CalculationInput {
	return l.input
}

// Quantity returns the sold quantity
func (l *LineItem) Quantity() valueobject.Quantity {
	return l.input.Quantity
}

// UnitPrice returns the price per unit
func (l *LineItem) UnitPrice() valueobject.Money {
	return l.input.UnitPrice
}

// UnitTax returns the tax per unit
func (l *LineItem) UnitTax() valueobject.Money {
	return l.input.UnitTax
}

// Discount returns the absolute discount on the line
func (l *LineItem) Discount() valueobject.Money {
	return l.input.Discount
}

// Amounts returns the derived amounts
func (l *LineItem) Amounts() Breakdown {
	return l.amounts
}
