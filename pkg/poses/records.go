package poses

import (
	"fmt"

	"github.com/aretw0/protflow/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Record is a typed view of one registry row.
type Record struct {
	Input       string         `mapstructure:"input_poses"`
	Location    string         `mapstructure:"poses"`
	Description string         `mapstructure:"poses_description"`
	Scores      map[string]any `mapstructure:",remain"`
}

// Records decodes every row in order.
func (p *Poses) Records() ([]Record, error) {
	out := make([]Record, p.table.Len())
	for i := range out {
		if err := decodeRecord(p.table.Row(i), &out[i]); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return out, nil
}

// GetPose returns the record whose current description is description.
func (p *Poses) GetPose(description string) (Record, error) {
	for i := 0; i < p.table.Len(); i++ {
		if domain.CellString(p.table.Get(i, domain.ColDescription)) != description {
			continue
		}
		var rec Record
		err := decodeRecord(p.table.Row(i), &rec)
		return rec, err
	}
	return Record{}, fmt.Errorf("%w: pose %q in poses table", domain.ErrNotFound, description)
}

func decodeRecord(row domain.Row, rec *Record) error {
	clean := make(map[string]any, len(row))
	for k, v := range row {
		if v != nil {
			clean[k] = v
		}
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           rec,
	})
	if err != nil {
		return err
	}
	return dec.Decode(clean)
}
