package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns DESC", "", "DESC"},
		{"ASC uppercase returns ASC", "ASC", "ASC"},
		{"asc lowercase returns ASC", "asc", "ASC"},
		{"desc lowercase returns DESC", "desc", "DESC"},
		{"invalid value returns DESC", "SIDEWAYS", "DESC"},
		{"sql injection attempt returns DESC", "ASC; DROP TABLE receivable_records;--", "DESC"},
		{"whitespace around ASC returns ASC", "  asc  ", "ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns default", "", "created_at"},
		{"whitelisted field", "due_date", "due_date"},
		{"whitespace around field", "  amount ", "amount"},
		{"unknown field returns default", "tenant_id", "created_at"},
		{"case sensitive", "AMOUNT", "created_at"},
		{"expression returns default", "amount DESC, (SELECT 1)", "created_at"},
		{"quoted injection returns default", "customer_name'--", "created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, CustomerReceivableSortFields, "created_at"))
		})
	}
}

func TestLedgerSortWhitelists(t *testing.T) {
	assert.True(t, CustomerReceivableSortFields["due_date"])
	assert.True(t, CustomerReceivableSortFields["customer_name"])
	assert.False(t, CustomerReceivableSortFields["tenant_id"])
	assert.False(t, CustomerReceivableSortFields["notes"])

	assert.True(t, ReceivableRecordSortFields["date"])
	assert.True(t, ReceivableRecordSortFields["total_cash_receivables"])
	assert.False(t, ReceivableRecordSortFields["driver_id"])
}
