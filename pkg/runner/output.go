package runner

import (
	"fmt"

	"github.com/aretw0/protflow/pkg/domain"
	"github.com/aretw0/protflow/pkg/poses"
)

// SelectColumn is the derived join key column of a result table. It is
// removed again once the results are merged.
const SelectColumn = "select_col"

// Output is the validated, prefixed result table of one stage.
type Output struct {
	results     *domain.Table
	prefix      string
	indexLayers int
	indexSep    string
	discarded   int
	resumed     bool
}

// OutputOption configures an Output.
type OutputOption func(*Output)

// WithIndexSep sets the separator of index layers (default "_").
func WithIndexSep(sep string) OutputOption {
	return func(o *Output) {
		o.indexSep = sep
	}
}

// WithDiscarded records how many malformed result rows the runner dropped.
func WithDiscarded(n int) OutputOption {
	return func(o *Output) {
		o.discarded = n
	}
}

// WithResumed marks the output as loaded from a previous run.
func WithResumed() OutputOption {
	return func(o *Output) {
		o.resumed = true
	}
}

// NewOutput validates the raw results of a stage and prepares them for merging.
// indexLayers is the number of trailing description tokens the runner appended
// to every pose.
func NewOutput(results *domain.Table, prefix string, indexLayers int, opts ...OutputOption) (*Output, error) {
	o := &Output{
		prefix:      prefix,
		indexLayers: indexLayers,
		indexSep:    domain.DefaultIndexSep,
	}
	for _, opt := range opts {
		opt(o)
	}
	if prefix == "" {
		return nil, fmt.Errorf("%w: empty stage prefix", domain.ErrInvalidArgument)
	}
	if indexLayers < 0 {
		return nil, fmt.Errorf("%w: negative index layers %d", domain.ErrInvalidArgument, indexLayers)
	}
	if err := ValidateResults(results); err != nil {
		return nil, err
	}
	if results.HasColumn(SelectColumn) {
		return nil, fmt.Errorf("%w: result column %q is reserved", domain.ErrColumnCollision, SelectColumn)
	}

	descs, _ := results.Strings(domain.ColResultDescription)
	keys := make([]any, len(descs))
	for i, d := range descs {
		keys[i] = domain.StripIndexLayers(d, indexLayers, o.indexSep)
	}
	t := results.Clone()
	if err := t.AddColumn(SelectColumn, keys); err != nil {
		return nil, err
	}
	o.results = t.WithPrefix(prefix)
	return o, nil
}

// ValidateResults checks the raw result contract: "description" and "location"
// present, descriptions unique and equal to Description(location).
func ValidateResults(t *domain.Table) error {
	if t == nil {
		return &domain.SchemaError{Reason: "no result table"}
	}
	if missing := t.MissingColumns(domain.ColResultDescription, domain.ColResultLocation); len(missing) > 0 {
		return &domain.SchemaError{Reason: fmt.Sprintf("results must contain columns 'description' and 'location', missing %v", missing)}
	}
	descs, _ := t.Strings(domain.ColResultDescription)
	locs, _ := t.Strings(domain.ColResultLocation)

	var mismatched []int
	for i := range descs {
		if descs[i] != domain.Description(locs[i]) {
			mismatched = append(mismatched, i)
		}
	}
	if len(mismatched) > 0 {
		return &domain.SchemaError{Reason: "'description' does not match the file name in 'location'", Rows: mismatched}
	}

	if dups := domain.DuplicateValues(descs); len(dups) > 0 {
		var rows []int
		seen := make(map[string]bool, len(dups))
		for _, d := range dups {
			seen[d] = true
		}
		for i, d := range descs {
			if seen[d] {
				rows = append(rows, i)
			}
		}
		return &domain.SchemaError{Reason: fmt.Sprintf("duplicate result descriptions %v", dups), Rows: rows}
	}
	return nil
}

// Prefix returns the stage prefix.
func (o *Output) Prefix() string { return o.prefix }

// IndexLayers returns the number of index layers stripped to build join keys.
func (o *Output) IndexLayers() int { return o.indexLayers }

// Discarded returns the number of malformed result rows dropped by the runner.
func (o *Output) Discarded() int { return o.discarded }

// Resumed reports whether the results were loaded from a previous run.
func (o *Output) Resumed() bool { return o.resumed }

// Len returns the number of result rows.
func (o *Output) Len() int { return o.results.Len() }

// Results returns a copy of the prefixed result table, join key included.
func (o *Output) Results() *domain.Table { return o.results.Clone() }

func (o *Output) col(name string) string { return o.prefix + "_" + name }

// ReturnPoses merges the results into p. On failure p is not modified.
func (o *Output) ReturnPoses(p *poses.Poses) error {
	merged, err := Reconcile(p.Table(), o)
	if err != nil {
		return err
	}
	return p.Replace(merged)
}

// Reconcile merges out into registry and returns the new registry table.
// Neither argument is modified.
//
// An empty registry is bootstrapped by concatenation; input_poses stays empty
// for those rows. Otherwise rows are inner joined on poses_description and the
// stage's join key, in registry order.
func Reconcile(registry *domain.Table, out *Output) (*domain.Table, error) {
	for _, c := range out.results.Columns() {
		if registry.HasColumn(c) {
			return nil, fmt.Errorf("%w: stage %q would overwrite registry column %q", domain.ErrColumnCollision, out.prefix, c)
		}
	}

	var merged *domain.Table
	if registry.Len() == 0 {
		merged = domain.Concat(registry, out.results)
	} else {
		var err error
		if merged, err = join(registry, out); err != nil {
			return nil, err
		}
	}

	merged.DropColumn(out.col(SelectColumn))
	locs, err := merged.Column(out.col(domain.ColResultLocation))
	if err != nil {
		return nil, err
	}
	descs, err := merged.Column(out.col(domain.ColResultDescription))
	if err != nil {
		return nil, err
	}
	if err := merged.SetColumn(domain.ColPoses, locs); err != nil {
		return nil, err
	}
	if err := merged.SetColumn(domain.ColDescription, descs); err != nil {
		return nil, err
	}
	return merged, nil
}

func join(registry *domain.Table, out *Output) (*domain.Table, error) {
	keys, _ := out.results.Strings(out.col(SelectColumn))
	byKey := make(map[string][]int, len(keys))
	for i, k := range keys {
		byKey[k] = append(byKey[k], i)
	}

	descs, err := registry.Strings(domain.ColDescription)
	if err != nil {
		return nil, err
	}

	merged := domain.NewTable(append(registry.Columns(), out.results.Columns()...)...)
	matched := make([]bool, len(keys))
	var unmatchedPoses []string
	for i, d := range descs {
		hits := byKey[d]
		if len(hits) == 0 {
			unmatchedPoses = append(unmatchedPoses, d)
			continue
		}
		for _, j := range hits {
			row := registry.Row(i)
			for k, v := range out.results.Row(j) {
				row[k] = v
			}
			merged.AppendRow(row)
			matched[j] = true
		}
	}

	var unmatchedResults []string
	for j, ok := range matched {
		if !ok {
			unmatchedResults = append(unmatchedResults, domain.CellString(out.results.Get(j, out.col(domain.ColResultDescription))))
		}
	}

	if merged.Len() == 0 || len(unmatchedPoses) > 0 || len(unmatchedResults) > 0 {
		kind := domain.ErrPipelineDrop
		if merged.Len() == 0 {
			kind = domain.ErrNoOverlap
		}
		return nil, &domain.JoinError{
			Kind:             kind,
			Prefix:           out.prefix,
			RegistryRows:     registry.Len(),
			ResultRows:       out.results.Len(),
			MergedRows:       merged.Len(),
			UnmatchedPoses:   unmatchedPoses,
			UnmatchedResults: unmatchedResults,
		}
	}
	return merged, nil
}
