package persistence

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/aretw0/protflow/pkg/domain"
)

// CSV encodes a table as delimited text with a header row.
//
// Non-string cells are written as JSON literals. Strings are written verbatim
// unless they would read back as JSON (numbers, "true", quoted text, ...) or are
// empty, in which case they are JSON-quoted. An empty cell is a missing value.
type CSV struct{}

func (CSV) Marshal(t *domain.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	cols := t.Columns()
	if err := w.Write(cols); err != nil {
		return nil, err
	}
	record := make([]string, len(cols))
	for i := 0; i < t.Len(); i++ {
		for j, c := range cols {
			cell, err := encodeCSVCell(t.Get(i, c))
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i, c, err)
			}
			record[j] = cell
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func (CSV) Unmarshal(data []byte) (*domain.Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return domain.NewTable(), nil
	}
	cols := records[0]
	t := domain.NewTable(cols...)
	for _, rec := range records[1:] {
		row := make(domain.Row, len(cols))
		for j, c := range cols {
			v, err := decodeCSVCell(rec[j])
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", c, err)
			}
			row[c] = v
		}
		t.AppendRow(row)
	}
	return t, nil
}

func encodeCSVCell(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		if x == "" || json.Valid([]byte(x)) {
			data, err := json.Marshal(x)
			return string(data), err
		}
		return x, nil
	}
	data, err := json.Marshal(v)
	return string(data), err
}

func decodeCSVCell(cell string) (any, error) {
	if cell == "" {
		return nil, nil
	}
	if !json.Valid([]byte(cell)) {
		return cell, nil
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader([]byte(cell)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return domain.Normalize(v), nil
}
