package models

import (
	"github.com/focusvent/backend/internal/domain/sales"
	"github.com/focusvent/backend/internal/domain/shared/valueobject"
)

// LineItemModel is the persistence model for the sales.LineItem entity.
// (sale_id, product_id) is unique; concurrent inserts rely on it.
type LineItemModel struct {
	BaseModel
	SaleID                  int64                `gorm:"not null;uniqueIndex:uq_sale_products_sale_product,priority:1"`
	ProductID               int64                `gorm:"not null;uniqueIndex:uq_sale_products_sale_product,priority:2"`
	Amount                  valueobject.Quantity `gorm:"column:amount;type:numeric;not null"`
	Price                   valueobject.Money    `gorm:"column:price;type:bigint;not null"`
	Tax                     valueobject.Money    `gorm:"column:tax;type:bigint;not null"`
	Discount                valueobject.Money    `gorm:"column:discount;type:bigint;not null"`
	SubTotalWithoutDiscount valueobject.Money    `gorm:"column:sub_total_without_discount;type:bigint;not null"`
	DiscountCalculated      valueobject.Money    `gorm:"column:discount_calculated;type:bigint;not null"`
	Subtotal                valueobject.Money    `gorm:"column:subtotal;type:bigint;not null"`
	TaxesCalculated         valueobject.Money    `gorm:"column:taxes_calculated;type:bigint;not null"`
	Total                   valueobject.Money    `gorm:"column:total;type:bigint;not null"`
	Observation             *string              `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (LineItemModel) TableName() string {
	return "sale_products"
}

// ToDomain converts the persistence model to a domain LineItem
func (m *LineItemModel) ToDomain() *sales.LineItem {
	in := sales.CalculationInput{
		UnitPrice: m.Price,
		UnitTax:   m.Tax,
		Discount:  m.Discount,
		Quantity:  m.Amount,
	}
	amounts := sales.Breakdown{
		SubtotalWithoutDiscount: m.SubTotalWithoutDiscount,
		DiscountApplied:         m.DiscountCalculated,
		Subtotal:                m.Subtotal,
		TaxApplied:              m.TaxesCalculated,
		Total:                   m.Total,
	}
	return sales.RestoreLineItem(m.BaseModel.ToDomain(), m.SaleID, m.ProductID, in, amounts, m.Observation)
}

// FromDomain populates the persistence model from a domain LineItem
func (m *LineItemModel) FromDomain(item *sales.LineItem) {
	m.FromDomainBaseEntity(item.BaseEntity)
	m.SaleID = item.SaleID
	m.ProductID = item.ProductID
	m.Amount = item.Quantity()
	m.Price = item.UnitPrice()
	m.Tax = item.UnitTax()
	m.Discount = item.Discount()

	amounts := item.Amounts()
	m.SubTotalWithoutDiscount = amounts.SubtotalWithoutDiscount
	m.DiscountCalculated = amounts.DiscountApplied
	m.Subtotal = amounts.Subtotal
	m.TaxesCalculated = amounts.TaxApplied
	m.Total = amounts.Total
	m.Observation = item.Observation
}

// LineItemModelFromDomain creates a new persistence model from a domain LineItem
func LineItemModelFromDomain(item *sales.LineItem) *LineItemModel {
	m := &LineItemModel{}
	m.FromDomain(item)
	return m
}
