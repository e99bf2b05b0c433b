package export

import (
	"bytes"
	"encoding/json"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Sheet1"

// Columns returns the union of the record keys in first-seen order.
func Columns(records []Record) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range records {
		for _, k := range r.Keys() {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	return cols
}

// WriteXLSX writes records as one sheet with a header row. Objects and
// arrays are written as compact JSON text. An existing file is overwritten.
func WriteXLSX(path string, records []Record) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	cols := Columns(records)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return errors.Wrap(err, "could not write header row")
	}

	for i, r := range records {
		row := make([]any, len(cols))
		for j, c := range cols {
			if raw, ok := r.Get(c); ok {
				row[j] = cellValue(raw)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return errors.Wrapf(err, "could not write row %d", i+2)
		}
	}

	return errors.Wrapf(f.SaveAs(path), "could not save %s", path)
}

func cellValue(raw json.RawMessage) any {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err == nil {
			return b
		}
	case 'n':
		return nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err == nil {
			return buf.String()
		}
	default:
		if n, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(string(raw), 64); err == nil {
			return f
		}
	}
	return string(raw)
}

// WriteJSON writes records as a JSON array indented by four spaces.
// Non-ASCII text is written as is. An existing file is overwritten.
func WriteJSON(path string, records []Record) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if records == nil {
		records = []Record{}
	}
	if err := enc.Encode(records); err != nil {
		return errors.Wrap(err, "could not encode monitoring lists")
	}
	return errors.Wrapf(os.WriteFile(path, buf.Bytes(), 0o644), "could not write %s", path)
}
