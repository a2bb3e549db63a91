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

// CustomerReceivableSortFields contains allowed sort fields for customer receivables
var CustomerReceivableSortFields = map[string]bool{
	"created_at":    true,
	"updated_at":    true,
	"due_date":      true,
	"amount":        true,
	"quantity":      true,
	"customer_name": true,
	"status":        true,
}

// ReceivableRecordSortFields contains allowed sort fields for driver day records
var ReceivableRecordSortFields = map[string]bool{
	"date":                        true,
	"created_at":                  true,
	"total_cash_receivables":      true,
	"total_cylinder_receivables":  true,
	"cash_receivables_change":     true,
	"cylinder_receivables_change": true,
}
