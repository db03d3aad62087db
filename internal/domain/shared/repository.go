package shared

import (
	"context"
)

// Repository is the generic read/delete contract shared by every record type.
// Each entity type gets one implementation parameterized by T instead of a
// hand-written copy of the same list/show/delete plumbing.
type Repository[T any] interface {
	FindByID(ctx context.Context, id int64) (*T, error)
	FindAll(ctx context.Context, filter Filter) ([]T, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// Filter represents query filter options.
// Filters holds equality conditions keyed by column name; keys not whitelisted
// by the implementing repository are ignored.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Filters  map[string]any
}

// DefaultFilter returns a filter with default values
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "id",
		OrderDir: "asc",
		Filters:  make(map[string]any),
	}
}

// Where returns a copy of the filter with an additional equality condition
func (f Filter) Where(column string, value any) Filter {
	filters := make(map[string]any, len(f.Filters)+1)
	for k, v := range f.Filters {
		filters[k] = v
	}
	filters[column] = value
	f.Filters = filters
	return f
}

// Offset returns the row offset for the filter's page
func (f Filter) Offset() int {
	if f.Page <= 1 || f.PageSize <= 0 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Paginated represents a paginated result
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginated creates a new paginated result
func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(total) / pageSize
		if int(total)%pageSize > 0 {
			totalPages++
		}
	}
	return Paginated[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
