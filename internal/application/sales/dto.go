package sales

import (
	"time"

	"github.com/focusvent/backend/internal/domain/sales"
	"github.com/focusvent/backend/internal/domain/shared/valueobject"
)

// ReconcileLineItemsCommand carries a batch of line items for one sale
type ReconcileLineItemsCommand struct {
	SaleID int64
	Items  []LineItemInput
}

// LineItemInput is one submitted line. Derived amounts are never accepted.
type LineItemInput struct {
	ProductID   int64
	Quantity    valueobject.Quantity
	UnitPrice   valueobject.Money
	UnitTax     valueobject.Money
	Discount    *valueobject.Money
	Observation *string
}

// CalculationInput builds the domain calculation input for the line
func (in LineItemInput) CalculationInput() sales.CalculationInput {
	return sales.NewCalculationInput(in.UnitPrice, in.UnitTax, in.Discount, in.Quantity)
}

// ReconcileResult summarizes a completed batch
type ReconcileResult struct {
	SaleID   int64 `json:"sale_id"`
	Inserted int   `json:"inserted"`
	Updated  int   `json:"updated"`
	Pruned   int64 `json:"pruned"`
}

// Counts returns the row accounting of the batch
func (r *ReconcileResult) Counts() (inserted, updated int, pruned int64) {
	if r == nil {
		return 0, 0, 0
	}
	return r.Inserted, r.Updated, r.Pruned
}

// LineItemResponse represents a persisted line item
type LineItemResponse struct {
	ID                      int64                `json:"id"`
	SaleID                  int64                `json:"sale_id"`
	ProductID               int64                `json:"product_id"`
	Quantity                valueobject.Quantity `json:"quantity"`
	UnitPrice               valueobject.Money    `json:"unit_price"`
	UnitTax                 valueobject.Money    `json:"unit_tax"`
	Discount                valueobject.Money    `json:"discount"`
	SubtotalWithoutDiscount valueobject.Money    `json:"subtotal_without_discount"`
	DiscountApplied         valueobject.Money    `json:"discount_applied"`
	Subtotal                valueobject.Money    `json:"subtotal"`
	TaxApplied              valueobject.Money    `json:"tax_applied"`
	Total                   valueobject.Money    `json:"total"`
	Observation             *string              `json:"observation,omitempty"`
	CreatedAt               time.Time            `json:"created_at"`
	UpdatedAt               time.Time            `json:"updated_at"`
}

// SaleLineItemsResponse lists the line items of a sale with aggregated amounts
type SaleLineItemsResponse struct {
	SaleID int64              `json:"sale_id"`
	Items  []LineItemResponse `json:"items"`
	Totals sales.Breakdown    `json:"totals"`
}

// ToLineItemResponse converts a domain line item to a response
func ToLineItemResponse(item *sales.LineItem) LineItemResponse {
	amounts := item.Amounts()
	return LineItemResponse{
		ID:                      item.ID,
		SaleID:                  item.SaleID,
		ProductID:               item.ProductID,
		Quantity:                item.Quantity(),
		UnitPrice:               item.UnitPrice(),
		UnitTax:                 item.UnitTax(),
		Discount:                item.Discount(),
		SubtotalWithoutDiscount: amounts.SubtotalWithoutDiscount,
		DiscountApplied:         amounts.DiscountApplied,
		Subtotal:                amounts.Subtotal,
		TaxApplied:              amounts.TaxApplied,
		Total:                   amounts.Total,
		Observation:             item.Observation,
		CreatedAt:               item.CreatedAt,
		UpdatedAt:               item.UpdatedAt,
	}
}

// ToLineItemResponses converts a slice of domain line items
func ToLineItemResponses(items []sales.LineItem) []LineItemResponse {
	responses := make([]LineItemResponse, len(items))
	for i := range items {
		responses[i] = ToLineItemResponse(&items[i])
	}
	return responses
}
