package sales

import (
	"context"
	"fmt"

	"github.com/focusvent/backend/internal/domain/sales"
	"github.com/focusvent/backend/internal/domain/shared"
)

// LineItemService serves the read side of sale line items
type LineItemService struct {
	repo sales.LineItemRepository
}

// NewLineItemService creates a new LineItemService
func NewLineItemService(repo sales.LineItemRepository) *LineItemService {
	return &LineItemService{repo: repo}
}

// GetByID returns a single line item
func (s *LineItemService) GetByID(ctx context.Context, id int64) (*LineItemResponse, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToLineItemResponse(item)
	return &response, nil
}

// ListBySale returns every line item of a sale with aggregated totals
func (s *LineItemService) ListBySale(ctx context.Context, saleID int64) (*SaleLineItemsResponse, error) {
	if saleID <= 0 {
		return nil, fmt.Errorf("%w: sale id must be positive", shared.ErrInvalidInput)
	}
	items, err := s.repo.FindBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	totals, err := sales.SumAmounts(items)
	if err != nil {
		return nil, err
	}
	return &SaleLineItemsResponse{
		SaleID: saleID,
		Items:  ToLineItemResponses(items),
		Totals: totals,
	}, nil
}

// List returns a page of line items matching the filter
func (s *LineItemService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[LineItemResponse], error) {
	items, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToLineItemResponses(items), total, filter.Page, filter.PageSize)
	return &page, nil
}

// Delete removes a line item by id
func (s *LineItemService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
