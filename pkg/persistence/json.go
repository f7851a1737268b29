package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aretw0/protflow/pkg/domain"
)

// document is the structured text layout shared by the JSON and YAML codecs.
type document struct {
	Columns []string         `json:"columns" yaml:"columns"`
	Records []map[string]any `json:"records" yaml:"records"`
}

func toDocument(t *domain.Table) document {
	doc := document{Columns: t.Columns(), Records: make([]map[string]any, t.Len())}
	for i := 0; i < t.Len(); i++ {
		doc.Records[i] = t.Row(i)
	}
	return doc
}

func fromDocument(doc document) *domain.Table {
	t := domain.NewTable(doc.Columns...)
	for _, r := range doc.Records {
		t.AppendRow(r)
	}
	return t
}

// JSON encodes a table as {"columns": [...], "records": [{...}, ...]}.
type JSON struct{}

func (JSON) Marshal(t *domain.Table) ([]byte, error) {
	data, err := json.MarshalIndent(toDocument(t), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal table: %w", err)
	}
	return data, nil
}

func (JSON) Unmarshal(data []byte) (*domain.Table, error) {
	var doc document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal table: %w", err)
	}
	return fromDocument(doc), nil
}
