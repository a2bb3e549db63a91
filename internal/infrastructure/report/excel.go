// Package report renders ledger reports as spreadsheets.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	appledger "github.com/lpgledger/backend/internal/application/ledger"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/xuri/excelize/v2"
)

const changesSheet = "Changes"

// ContentTypeXLSX is the media type of the generated workbooks
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var changesHeader = []any{
	"Date", "Action", "Entity Type", "Entity ID", "User ID",
	"Driver", "Customer", "Description", "Old Values", "New Values",
}

// ExcelExporter writes the receivables-changes report as an xlsx workbook
type ExcelExporter struct{}

// NewExcelExporter creates a new ExcelExporter
func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{}
}

// ExportChanges streams rows into a single sheet with a frozen header row
func (e *ExcelExporter) ExportChanges(rows []appledger.ChangeRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", changesSheet); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(changesSheet, "A", "A", 20); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(changesSheet, "H", "J", 48); err != nil {
		return nil, err
	}

	sw, err := f.NewStreamWriter(changesSheet)
	if err != nil {
		return nil, fmt.Errorf("open sheet writer: %w", err)
	}
	if err := sw.SetPanes(&excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, err
	}
	if err := sw.SetRow("A1", changesHeader); err != nil {
		return nil, err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []any{
			r.At.UTC().Format("2006-01-02 15:04:05"),
			string(r.Action),
			string(r.EntityType),
			r.EntityID.String(),
			r.UserID.String(),
			r.DriverName,
			r.CustomerName,
			r.Description,
			metadataText(r.OldValues),
			metadataText(r.NewValues),
		}
		if err := sw.SetRow(cell, values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("flush sheet: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func metadataText(m ledger.Metadata) string {
	if len(m) == 0 {
		return ""
	}
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}
