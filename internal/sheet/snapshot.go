package sheet

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrMalformedSnapshot is returned when a client snapshot is not valid JSON
// or does not have the expected shape.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// Snapshot is the client's copy of a table sent back for export.
type Snapshot struct {
	Filename string
	Table    *Table
}

// DecodeSnapshot reads {"data": [row...], "filename": "...", "columns": [...]}.
//
// Column order follows "columns" when present; keys that only appear in rows
// are appended in the order they are first seen in the document. ImageField
// is dropped. JSON null becomes the empty-string sentinel.
func DecodeSnapshot(body []byte) (*Snapshot, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedSnapshot)
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: expected an object", ErrMalformedSnapshot)
	}

	snap := &Snapshot{
		Filename: doc.Get("filename").String(),
		Table:    &Table{Columns: []string{}, Rows: []Row{}},
	}
	if snap.Filename == "" {
		snap.Filename = DefaultDownloadName
	}

	seen := make(map[string]bool)
	addColumn := func(name string) {
		if name == ImageField || seen[name] {
			return
		}
		seen[name] = true
		snap.Table.Columns = append(snap.Table.Columns, name)
	}

	if cols := doc.Get("columns"); cols.IsArray() {
		for _, c := range cols.Array() {
			addColumn(c.String())
		}
	}

	data := doc.Get("data")
	if !data.Exists() || data.Type == gjson.Null {
		return snap, nil
	}
	if !data.IsArray() {
		return nil, fmt.Errorf("%w: data must be an array", ErrMalformedSnapshot)
	}

	var err error
	data.ForEach(func(idx, item gjson.Result) bool {
		if !item.IsObject() {
			err = fmt.Errorf("%w: row %d is not an object", ErrMalformedSnapshot, len(snap.Table.Rows))
			return false
		}
		row := make(Row)
		item.ForEach(func(key, value gjson.Result) bool {
			name := key.String()
			if name == ImageField {
				return true
			}
			addColumn(name)
			row[name] = jsonValue(value)
			return true
		})
		snap.Table.Rows = append(snap.Table.Rows, row)
		return true
	})
	if err != nil {
		return nil, err
	}

	return snap, nil
}

func jsonValue(v gjson.Result) any {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		return v.Num
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Null:
		return ""
	default:
		return v.Raw
	}
}
