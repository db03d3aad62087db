package router

import "github.com/focusvent/backend/internal/interfaces/http/handler"

// SalesRoutes mounts the per-sale line item endpoints under /sales
func SalesRoutes(h *handler.LineItemHandler) *DomainGroup {
	g := NewDomainGroup("sales", "/sales")
	g.PUT("/:sale_id/items", h.Reconcile)
	g.GET("/:sale_id/items", h.ListBySale)
	return g
}

// LineItemRoutes mounts the generic line item read/delete endpoints under /line-items
func LineItemRoutes(h *handler.LineItemHandler) *DomainGroup {
	g := NewDomainGroup("line-items", "/line-items")
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.DELETE("/:id", h.Delete)
	return g
}

// SystemRoutes mounts build information under /system
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	g := NewDomainGroup("system", "/system")
	g.GET("/info", h.GetSystemInfo)
	return g
}
