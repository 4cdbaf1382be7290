package sheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet every exported workbook is written to.
const SheetName = "Sheet1"

// Write serialises t as an xlsx workbook: a header row followed by one row
// per table row, in column order. Empty strings and nil become blank cells
// and ImageField is never written.
func Write(w io.Writer, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	columns := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c != ImageField {
			columns = append(columns, c)
		}
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range t.Rows {
		values := make([]any, len(columns))
		for j, c := range columns {
			values[j] = cellValue(row[c])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// cellValue maps the empty-string sentinel back to a blank cell.
func cellValue(v any) any {
	switch v := v.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return v
	case float64, bool, int, int64:
		return v
	default:
		return fmt.Sprint(v)
	}
}
