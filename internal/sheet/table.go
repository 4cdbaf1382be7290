// Package sheet holds the in-memory table built from an uploaded workbook
// and the conversions between that table, xlsx files and client snapshots.
//
// A Table only ever lives for the duration of one request: ingest builds it
// from the uploaded file, export rebuilds it from the client's JSON snapshot.
package sheet

import (
	"path/filepath"
	"slices"
	"strings"
)

// ImageField is the row key carrying a derived base64 thumbnail.
// It is only ever present in ingest responses and is never written to a file.
const ImageField = "image"

// DefaultDownloadName is used when the client omits the original filename.
const DefaultDownloadName = "updated_file.xlsx"

// ContentType is the MIME type of every exported workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const downloadSuffix = "_update"

// Row maps a column name to a cell value. Values are string, float64 or bool;
// an absent cell is represented by the empty string.
type Row map[string]any

// Table is an ordered set of rows sharing one column list.
type Table struct {
	Columns []string
	Rows    []Row
}

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.Columns) }

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// HasExtension reports whether name ends in one of the allowed extensions.
// Comparison is case-insensitive; allowed entries include the leading dot.
func HasExtension(name string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	return slices.Contains(allowed, ext)
}

// DownloadName derives the attachment name for an exported workbook by
// inserting "_update" before the extension: "report.xlsx" -> "report_update.xlsx".
// Any directory part of name is discarded. A name without an extension gets ".xlsx".
func DownloadName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		name = DefaultDownloadName
	}

	dot := strings.LastIndex(name, ".")
	if dot < 0 || dot == len(name)-1 {
		return strings.TrimSuffix(name, ".") + downloadSuffix + ".xlsx"
	}
	return name[:dot] + downloadSuffix + name[dot:]
}
