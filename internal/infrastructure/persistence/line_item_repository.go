package persistence

import (
	"context"
	"time"

	"github.com/focusvent/backend/internal/domain/sales"
	"github.com/focusvent/backend/internal/domain/shared"
	"github.com/focusvent/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLineItemRepository implements sales.LineItemRepository using GORM
type GormLineItemRepository struct {
	*gormRepository[sales.LineItem, models.LineItemModel]
}

// NewGormLineItemRepository creates a new GormLineItemRepository
func NewGormLineItemRepository(db *gorm.DB) *GormLineItemRepository {
	return &GormLineItemRepository{
		gormRepository: &gormRepository[sales.LineItem, models.LineItemModel]{
			db:            db,
			toDomain:      (*models.LineItemModel).ToDomain,
			sortFields:    LineItemSortFields,
			filterColumns: LineItemFilterColumns,
		},
	}
}

// priced columns overwritten on insert conflicts
var lineItemMutableColumns = []string{
	"amount",
	"price",
	"tax",
	"discount",
	"sub_total_without_discount",
	"discount_calculated",
	"subtotal",
	"taxes_calculated",
	"total",
	"updated_at",
}

// a conflicting insert without an observation keeps the stored one
var keepObservation = clause.Assignment{
	Column: clause.Column{Name: "observation"},
	Value:  gorm.Expr("COALESCE(excluded.observation, sale_products.observation)"),
}

// FindBySaleAndProduct finds a line item by sale and product, taking a row
// lock on dialects that support it
func (r *GormLineItemRepository) FindBySaleAndProduct(ctx context.Context, saleID, productID int64) (*sales.LineItem, error) {
	var m models.LineItemModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("sale_id = ? AND product_id = ?", saleID, productID).
		First(&m).Error
	if err != nil {
		return nil, translateError("find by sale and product", err)
	}
	return m.ToDomain(), nil
}

// FindBySale returns every line item of a sale ordered by id
func (r *GormLineItemRepository) FindBySale(ctx context.Context, saleID int64) ([]sales.LineItem, error) {
	var rows []models.LineItemModel
	if err := r.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError("find by sale", err)
	}

	items := make([]sales.LineItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, nil
}

// Insert creates the line item. A row committed concurrently under the same
// (sale_id, product_id) is overwritten with the new priced values.
func (r *GormLineItemRepository) Insert(ctx context.Context, item *sales.LineItem) error {
	m := models.LineItemModelFromDomain(item)
	m.ID = 0
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sale_id"}, {Name: "product_id"}},
			DoUpdates: append(clause.AssignmentColumns(lineItemMutableColumns), keepObservation),
		}).
		Create(m).Error
	if err != nil {
		return translateError("insert", err)
	}
	item.ID = m.ID
	return nil
}

// Update overwrites the priced columns of the line item with the given ID
func (r *GormLineItemRepository) Update(ctx context.Context, id int64, item *sales.LineItem) error {
	m := models.LineItemModelFromDomain(item)
	updatedAt := m.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	result := r.db.WithContext(ctx).
		Model(&models.LineItemModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"amount":                     m.Amount,
			"price":                      m.Price,
			"tax":                        m.Tax,
			"discount":                   m.Discount,
			"sub_total_without_discount": m.SubTotalWithoutDiscount,
			"discount_calculated":        m.DiscountCalculated,
			"subtotal":                   m.Subtotal,
			"taxes_calculated":           m.TaxesCalculated,
			"total":                      m.Total,
			"observation":                m.Observation,
			"updated_at":                 updatedAt,
		})
	if result.Error != nil {
		return translateError("update", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteBySaleExcept removes the sale's line items for products not listed in keepProductIDs
func (r *GormLineItemRepository) DeleteBySaleExcept(ctx context.Context, saleID int64, keepProductIDs []int64) (int64, error) {
	query := r.db.WithContext(ctx).Where("sale_id = ?", saleID)
	if len(keepProductIDs) > 0 {
		query = query.Where("product_id NOT IN ?", keepProductIDs)
	}

	result := query.Delete(&models.LineItemModel{})
	if result.Error != nil {
		return 0, translateError("prune", result.Error)
	}
	return result.RowsAffected, nil
}

var _ sales.LineItemRepository = (*GormLineItemRepository)(nil)
