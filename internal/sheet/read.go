package sheet

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoWorksheet is returned when a workbook contains no sheets.
var ErrNoWorksheet = errors.New("workbook has no worksheets")

// ParseFile reads the first worksheet of the workbook at path.
func ParseFile(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	return parseWorkbook(f)
}

// Parse reads the first worksheet of a workbook streamed from r.
func Parse(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	return parseWorkbook(f)
}

// parseWorkbook turns the first sheet into a Table. The first row holds the
// headers; every following row becomes a Row with one entry per column and
// missing cells normalised to "".
func parseWorkbook(f *excelize.File) (*Table, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoWorksheet
	}
	sheetName := sheets[0]

	grid, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
	}
	if len(grid) == 0 {
		return &Table{Columns: []string{}, Rows: []Row{}}, nil
	}

	width := 0
	for _, cells := range grid {
		width = max(width, len(cells))
	}
	columns := headerNames(grid[0], width)

	rows := make([]Row, 0, len(grid)-1)
	for i, cells := range grid[1:] {
		row := make(Row, width)
		for col, name := range columns {
			if col >= len(cells) || cells[col] == "" {
				row[name] = ""
				continue
			}
			v, err := typedValue(f, sheetName, col+1, i+2, cells[col])
			if err != nil {
				return nil, err
			}
			row[name] = v
		}
		rows = append(rows, row)
	}

	return &Table{Columns: columns, Rows: rows}, nil
}

// headerNames builds a unique column list from the header cells. Blank
// headers become "Unnamed: <index>" and repeated ones get ".1", ".2" suffixes.
func headerNames(header []string, width int) []string {
	names := make([]string, width)
	used := make(map[string]bool, width)

	for i := range width {
		base := ""
		if i < len(header) {
			base = header[i]
		}
		if strings.TrimSpace(base) == "" {
			base = "Unnamed: " + strconv.Itoa(i)
		}

		name := base
		for n := 1; used[name]; n++ {
			name = base + "." + strconv.Itoa(n)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// typedValue converts a raw cell string into float64, bool or string based
// on the cell's stored type.
func typedValue(f *excelize.File, sheetName string, col, row int, raw string) (any, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, err
	}
	kind, err := f.GetCellType(sheetName, cell)
	if err != nil {
		return nil, fmt.Errorf("cell %s: %w", cell, err)
	}

	switch kind {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if n, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
			return n, nil
		}
	case excelize.CellTypeBool:
		if b, err := strconv.ParseBool(raw); err == nil {
			return b, nil
		}
	}
	return raw, nil
}
