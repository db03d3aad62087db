package sales

import (
	"context"

	"github.com/focusvent/backend/internal/domain/shared"
)

// LineItemRepository defines the interface for line item persistence.
// Every failure of the backing store is returned as *shared.StorageError.
type LineItemRepository interface {
	shared.Repository[LineItem]

	// FindBySaleAndProduct finds a line item by its natural key and locks it for
	// the rest of the surrounding transaction. Returns shared.ErrNotFound on a miss.
	FindBySaleAndProduct(ctx context.Context, saleID, productID int64) (*LineItem, error)

	// FindBySale returns every line item of a sale ordered by id
	FindBySale(ctx context.Context, saleID int64) ([]LineItem, error)

	// Insert persists a new line item and assigns its ID. If a row with the same
	// natural key was committed concurrently, that row is overwritten instead.
	Insert(ctx context.Context, item *LineItem) error

	// Update overwrites the stored line item with the given ID
	Update(ctx context.Context, id int64, item *LineItem) error

	// DeleteBySaleExcept removes the sale's line items whose product is not in
	// keepProductIDs and returns how many rows were removed
	DeleteBySaleExcept(ctx context.Context, saleID int64, keepProductIDs []int64) (int64, error)
}
