package handler

import (
	"context"
	"fmt"

	appsales "github.com/focusvent/backend/internal/application/sales"
	"github.com/focusvent/backend/internal/domain/shared"
	"github.com/focusvent/backend/internal/domain/shared/valueobject"
	"github.com/focusvent/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// LineItemReconciler applies a batch of line items to a sale
type LineItemReconciler interface {
	Reconcile(ctx context.Context, cmd appsales.ReconcileLineItemsCommand) (*appsales.ReconcileResult, error)
}

// LineItemHandler handles sale line item API endpoints
type LineItemHandler struct {
	BaseHandler
	reconciler LineItemReconciler
	service    *appsales.LineItemService
}

// NewLineItemHandler creates a new LineItemHandler
func NewLineItemHandler(reconciler LineItemReconciler, service *appsales.LineItemService) *LineItemHandler {
	return &LineItemHandler{
		reconciler: reconciler,
		service:    service,
	}
}

// ReconcileLineItemsRequest is the body of a line item batch.
// Derived amounts and any per-item sale_id are ignored; the path sale id wins.
type ReconcileLineItemsRequest struct {
	Items []LineItemRequest `json:"items" binding:"dive"`
}

// LineItemRequest is one submitted line. Amounts are decimal strings, e.g. "29.5".
type LineItemRequest struct {
	ProductID   int64                 `json:"product_id" binding:"required,gt=0"`
	Quantity    *valueobject.Quantity `json:"quantity" binding:"required"`
	UnitPrice   *valueobject.Money    `json:"unit_price" binding:"required"`
	UnitTax     *valueobject.Money    `json:"unit_tax" binding:"required"`
	Discount    *valueobject.Money    `json:"discount"`
	Observation *string               `json:"observation" binding:"omitempty,max=1000"`
}

// ListLineItemsQuery holds list paging and equality filters
type ListLineItemsQuery struct {
	dto.ListRequest
	SaleID    int64 `form:"sale_id" binding:"omitempty,gt=0"`
	ProductID int64 `form:"product_id" binding:"omitempty,gt=0"`
}

// toCommand maps the request onto the application command
func (r ReconcileLineItemsRequest) toCommand(saleID int64) appsales.ReconcileLineItemsCommand {
	cmd := appsales.ReconcileLineItemsCommand{
		SaleID: saleID,
		Items:  make([]appsales.LineItemInput, 0, len(r.Items)),
	}
	for _, item := range r.Items {
		input := appsales.LineItemInput{
			ProductID:   item.ProductID,
			Quantity:    *item.Quantity,
			UnitPrice:   *item.UnitPrice,
			UnitTax:     *item.UnitTax,
			Discount:    item.Discount,
			Observation: item.Observation,
		}
		cmd.Items = append(cmd.Items, input)
	}
	return cmd
}

// Reconcile godoc
// @Summary      Reconcile the line items of a sale
// @Description  Inserts new (sale, product) pairs and revises existing ones in one transaction
// @Tags         line-items
// @Accept       json
// @Produce      json
// @Param        sale_id path int true "Sale ID"
// @Param        request body ReconcileLineItemsRequest true "Line item batch"
// @Success      200 {object} dto.Response{data=appsales.ReconcileResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /sales/{sale_id}/items [put]
func (h *LineItemHandler) Reconcile(c *gin.Context) {
	saleID, ok := paramID(c, "sale_id")
	if !ok {
		h.BadRequest(c, "Invalid sale ID")
		return
	}

	var req ReconcileLineItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	result, err := h.reconciler.Reconcile(c.Request.Context(), req.toCommand(saleID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ListBySale godoc
// @Summary      List the line items of a sale
// @Description  Returns every persisted line item of the sale with aggregated totals
// @Tags         line-items
// @Produce      json
// @Param        sale_id path int true "Sale ID"
// @Success      200 {object} dto.Response{data=appsales.SaleLineItemsResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /sales/{sale_id}/items [get]
func (h *LineItemHandler) ListBySale(c *gin.Context) {
	saleID, ok := paramID(c, "sale_id")
	if !ok {
		h.BadRequest(c, "Invalid sale ID")
		return
	}

	items, err := h.service.ListBySale(c.Request.Context(), saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, items)
}

// List godoc
// @Summary      List line items
// @Description  Pages through line items, optionally filtered by sale or product
// @Tags         line-items
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        order_by query string false "Sort field" default(id)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Param        sale_id query int false "Sale ID"
// @Param        product_id query int false "Product ID"
// @Success      200 {object} dto.Response{data=[]appsales.LineItemResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /line-items [get]
func (h *LineItemHandler) List(c *gin.Context) {
	query := ListLineItemsQuery{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&query); err != nil {
		h.HandleBindError(c, err)
		return
	}

	filter := shared.DefaultFilter()
	filter.Page = query.Page
	filter.PageSize = query.PageSize
	filter.OrderBy = query.OrderBy
	filter.OrderDir = query.OrderDir
	if query.SaleID > 0 {
		filter = filter.Where("sale_id", query.SaleID)
	}
	if query.ProductID > 0 {
		filter = filter.Where("product_id", query.ProductID)
	}

	page, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetByID godoc
// @Summary      Get a line item
// @Tags         line-items
// @Produce      json
// @Param        id path int true "Line item ID"
// @Success      200 {object} dto.Response{data=appsales.LineItemResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /line-items/{id} [get]
func (h *LineItemHandler) GetByID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid line item ID")
		return
	}

	item, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, fmt.Errorf("line item %d: %w", id, err))
		return
	}

	h.Success(c, item)
}

// Delete godoc
// @Summary      Delete a line item
// @Tags         line-items
// @Param        id path int true "Line item ID"
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /line-items/{id} [delete]
func (h *LineItemHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid line item ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, fmt.Errorf("line item %d: %w", id, err))
		return
	}

	h.NoContent(c)
}
