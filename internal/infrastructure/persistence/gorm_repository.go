package persistence

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/focusvent/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// gormRepository implements shared.Repository[E] for a GORM model M.
// Concrete repositories embed it and add their own queries.
type gormRepository[E any, M any] struct {
	db            *gorm.DB
	toDomain      func(*M) *E
	sortFields    map[string]bool
	filterColumns map[string]bool
}

// FindByID finds a record by its ID
func (r *gormRepository[E, M]) FindByID(ctx context.Context, id int64) (*E, error) {
	var m M
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError("find", err)
	}
	return r.toDomain(&m), nil
}

// FindAll returns one page of records matching the filter
func (r *gormRepository[E, M]) FindAll(ctx context.Context, filter shared.Filter) ([]E, error) {
	var rows []M
	query := r.applyFilter(r.db.WithContext(ctx).Model(new(M)), filter)
	if err := query.Find(&rows).Error; err != nil {
		return nil, translateError("list", err)
	}

	items := make([]E, len(rows))
	for i := range rows {
		items[i] = *r.toDomain(&rows[i])
	}
	return items, nil
}

// Count counts the records matching the filter, ignoring pagination
func (r *gormRepository[E, M]) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyConditions(r.db.WithContext(ctx).Model(new(M)), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, translateError("count", err)
	}
	return count, nil
}

// Delete removes a record by its ID
func (r *gormRepository[E, M]) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(new(M), "id = ?", id)
	if result.Error != nil {
		return translateError("delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyFilter applies conditions, ordering and pagination
func (r *gormRepository[E, M]) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyConditions(query, filter)

	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, r.sortFields, "id")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// applyConditions applies whitelisted equality conditions in column order
func (r *gormRepository[E, M]) applyConditions(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for _, column := range slices.Sorted(maps.Keys(filter.Filters)) {
		if !r.filterColumns[column] {
			continue
		}
		query = query.Where(column+" = ?", filter.Filters[column])
	}
	return query
}

// translateError maps GORM errors to domain errors
func translateError(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return shared.NewStorageError(op, err)
}
