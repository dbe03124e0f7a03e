// Package report turns extracted records into one tabular report per
// (seed, family).
package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/anetsop/rosterlab/internal/family"
	"github.com/anetsop/rosterlab/pkg/models"
)

// SheetName is the single sheet of every report workbook
const SheetName = "Results"

const (
	tableName  = "Results"
	tableStyle = "TableStyleMedium2"
	colWidth   = 14
)

// Table is a header row plus data rows, all the same width
type Table struct {
	Header []string
	Rows   [][]any
}

// Build permutes each record's values into report column order
func Build(columns []family.Column, records []models.ResultRecord) (*Table, error) {
	t := &Table{
		Header: make([]string, len(columns)),
		Rows:   make([][]any, 0, len(records)),
	}
	for i, c := range columns {
		t.Header[i] = c.Header
	}

	for _, rec := range records {
		values := rec.Values()
		if len(values) != len(columns) {
			return nil, fmt.Errorf("record %s has %d values, report has %d columns", rec.Artifact, len(values), len(columns))
		}
		row := make([]any, len(columns))
		for i, c := range columns {
			if c.Source < 0 || c.Source >= len(values) {
				return nil, fmt.Errorf("column %s reads value %d of %d", c.Header, c.Source, len(values))
			}
			row[i] = values[c.Source]
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// RowCount includes the header row
func (t *Table) RowCount() int {
	return 1 + len(t.Rows)
}

// WriteXLSX writes the table to path as a single formatted worksheet table.
// Numeric values stay numeric.
func WriteXLSX(path string, t *Table) error {
	if len(t.Header) == 0 {
		return fmt.Errorf("report %s has no columns", path)
	}

	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := wb.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := wb.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(t.Header))
	if err != nil {
		return err
	}
	if err := wb.SetColWidth(SheetName, "A", lastCol, colWidth); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	// an excel table needs at least one data row
	if len(t.Rows) > 0 {
		ref := fmt.Sprintf("A1:%s%d", lastCol, t.RowCount())
		if err := wb.AddTable(SheetName, &excelize.Table{Range: ref, Name: tableName, StyleName: tableStyle}); err != nil {
			return fmt.Errorf("failed to add table: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := wb.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report %s: %w", path, err)
	}
	return nil
}
