package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// LineItemSortFields contains allowed sort fields for sale line items
var LineItemSortFields = map[string]bool{
	"id":                         true,
	"created_at":                 true,
	"updated_at":                 true,
	"sale_id":                    true,
	"product_id":                 true,
	"amount":                     true,
	"price":                      true,
	"subtotal":                   true,
	"sub_total_without_discount": true,
	"total":                      true,
}

// LineItemFilterColumns contains the columns line item listings may filter on
var LineItemFilterColumns = map[string]bool{
	"sale_id":    true,
	"product_id": true,
}
