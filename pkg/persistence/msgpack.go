package persistence

import (
	"fmt"

	"github.com/aretw0/protflow/pkg/domain"
	"github.com/vmihailenco/msgpack/v5"
)

type rowDocument struct {
	Columns []string `msgpack:"columns"`
	Rows    [][]any  `msgpack:"rows"`
}

// Msgpack encodes a table row by row.
type Msgpack struct{}

func (Msgpack) Marshal(t *domain.Table) ([]byte, error) {
	cols := t.Columns()
	doc := rowDocument{Columns: cols, Rows: make([][]any, t.Len())}
	for i := range doc.Rows {
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = t.Get(i, c)
		}
		doc.Rows[i] = row
	}
	data, err := msgpack.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal table: %w", err)
	}
	return data, nil
}

func (Msgpack) Unmarshal(data []byte) (*domain.Table, error) {
	var doc rowDocument
	if err := msgpack.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal table: %w", err)
	}
	t := domain.NewTable(doc.Columns...)
	for i, values := range doc.Rows {
		if len(values) != len(doc.Columns) {
			return nil, &domain.SchemaError{Reason: "row width does not match header", Rows: []int{i}}
		}
		row := make(domain.Row, len(values))
		for j, c := range doc.Columns {
			row[c] = values[j]
		}
		t.AppendRow(row)
	}
	return t, nil
}

type columnDocument struct {
	Columns []string `msgpack:"columns"`
	Len     int      `msgpack:"len"`
	Data    [][]any  `msgpack:"data"`
}

// Columnar encodes a table column by column, so each column is contiguous.
type Columnar struct{}

func (Columnar) Marshal(t *domain.Table) ([]byte, error) {
	cols := t.Columns()
	doc := columnDocument{Columns: cols, Len: t.Len(), Data: make([][]any, len(cols))}
	for j, c := range cols {
		values, err := t.Column(c)
		if err != nil {
			return nil, err
		}
		doc.Data[j] = values
	}
	data, err := msgpack.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal table: %w", err)
	}
	return data, nil
}

func (Columnar) Unmarshal(data []byte) (*domain.Table, error) {
	var doc columnDocument
	if err := msgpack.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal table: %w", err)
	}
	if len(doc.Data) != len(doc.Columns) {
		return nil, &domain.SchemaError{Reason: fmt.Sprintf("%d columns but %d data vectors", len(doc.Columns), len(doc.Data))}
	}
	t := domain.NewTable(doc.Columns...)
	for i := 0; i < doc.Len; i++ {
		row := make(domain.Row, len(doc.Columns))
		for j, c := range doc.Columns {
			if len(doc.Data[j]) != doc.Len {
				return nil, &domain.SchemaError{Reason: fmt.Sprintf("column %q has %d values, expected %d", c, len(doc.Data[j]), doc.Len)}
			}
			row[c] = doc.Data[j][i]
		}
		t.AppendRow(row)
	}
	return t, nil
}
