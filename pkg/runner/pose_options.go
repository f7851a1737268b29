package runner

import (
	"fmt"

	"github.com/aretw0/protflow/pkg/domain"
	"github.com/aretw0/protflow/pkg/poses"
)

// PoseOptions selects per-pose option strings. The zero value means none.
type PoseOptions struct {
	column string
	values []string
	list   bool
}

// FromColumn reads per-pose options from a registry column.
func FromColumn(name string) PoseOptions {
	return PoseOptions{column: name}
}

// FromList uses one literal option string per pose, in registry order.
func FromList(values ...string) PoseOptions {
	return PoseOptions{values: values, list: true}
}

// IsZero reports whether no per-pose options were given.
func (po PoseOptions) IsZero() bool {
	return po.column == "" && !po.list
}

// PrepPoseOptions resolves po into one option string per pose.
func PrepPoseOptions(p *poses.Poses, po PoseOptions) ([]string, error) {
	switch {
	case po.column != "":
		values, err := p.Column(po.column)
		if err != nil {
			return nil, fmt.Errorf("pose options column %q: %w", po.column, err)
		}
		out := make([]string, len(values))
		for i, v := range values {
			out[i] = domain.CellString(v)
		}
		return out, nil
	case po.list:
		if p.Len() != 0 && len(po.values) != p.Len() {
			return nil, fmt.Errorf("%w: got %d pose options for %d poses", domain.ErrInvalidArgument, len(po.values), p.Len())
		}
		out := make([]string, len(po.values))
		copy(out, po.values)
		return out, nil
	}
	return make([]string, p.Len()), nil
}
