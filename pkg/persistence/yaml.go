package persistence

import (
	"fmt"

	"github.com/aretw0/protflow/pkg/domain"
	"gopkg.in/yaml.v3"
)

// YAML encodes a table with the same layout as JSON.
type YAML struct{}

func (YAML) Marshal(t *domain.Table) ([]byte, error) {
	data, err := yaml.Marshal(toDocument(t))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal table: %w", err)
	}
	return data, nil
}

func (YAML) Unmarshal(data []byte) (*domain.Table, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal table: %w", err)
	}
	return fromDocument(doc), nil
}
