package domain

import (
	"fmt"
	"strings"
)

// Row is a single table record keyed by column name.
type Row map[string]any

// Table is an ordered set of columns over an ordered list of rows.
// Row order is meaningful: it defines the default ordering of poses.
// Cells are stored normalized (see Normalize); columns absent from a row read as nil.
type Table struct {
	columns []string
	index   map[string]int
	rows    []Row
}

// NewTable creates an empty table with the given columns.
func NewTable(columns ...string) *Table {
	t := &Table{index: make(map[string]int)}
	for _, c := range columns {
		t.ensureColumn(c)
	}
	return t
}

// NewTableFromColumns builds a table from column-major data. Every column must
// have the same length.
func NewTableFromColumns(columns []string, data map[string][]any) (*Table, error) {
	t := NewTable(columns...)
	n := -1
	for _, c := range columns {
		values := data[c]
		if n == -1 {
			n = len(values)
		}
		if len(values) != n {
			return nil, fmt.Errorf("%w: column %q has %d values, expected %d", ErrInvalidArgument, c, len(values), n)
		}
	}
	for i := 0; i < n; i++ {
		row := make(Row, len(columns))
		for _, c := range columns {
			row[c] = Normalize(data[c][i])
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func (t *Table) ensureColumn(name string) {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if _, ok := t.index[name]; ok {
		return
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, name)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Columns returns a copy of the ordered column names.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether the column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// HasColumnRoot reports whether root is a column or the prefix of a
// root + sep + ... column.
func (t *Table) HasColumnRoot(root, sep string) bool {
	for _, c := range t.columns {
		if c == root || strings.HasPrefix(c, root+sep) {
			return true
		}
	}
	return false
}

// AppendRow appends a row, registering columns it introduces.
func (t *Table) AppendRow(row Row) {
	r := make(Row, len(row))
	for _, c := range t.columns {
		if v, ok := row[c]; ok {
			r[c] = Normalize(v)
		}
	}
	for _, c := range SortedKeys(row) {
		if !t.HasColumn(c) {
			t.ensureColumn(c)
			r[c] = Normalize(row[c])
		}
	}
	t.rows = append(t.rows, r)
}

// Row returns a shallow copy of row i.
func (t *Table) Row(i int) Row {
	r := make(Row, len(t.columns))
	for _, c := range t.columns {
		r[c] = t.rows[i][c]
	}
	return r
}

// Get returns the cell at row i, column col.
func (t *Table) Get(i int, col string) any {
	return t.rows[i][col]
}

// Set writes a cell, registering the column if needed.
func (t *Table) Set(i int, col string, v any) {
	t.ensureColumn(col)
	t.rows[i][col] = Normalize(v)
}

// Column returns the values of a column in row order.
func (t *Table) Column(name string) ([]any, error) {
	if !t.HasColumn(name) {
		return nil, fmt.Errorf("%w: column %q", ErrNotFound, name)
	}
	out := make([]any, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[name]
	}
	return out, nil
}

// Strings returns a column rendered as strings (see CellString).
func (t *Table) Strings(name string) ([]string, error) {
	values, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = CellString(v)
	}
	return out, nil
}

// AddColumn adds a new column. It fails with ErrColumnCollision if the column exists.
func (t *Table) AddColumn(name string, values []any) error {
	if t.HasColumn(name) {
		return fmt.Errorf("%w: column %q already exists", ErrColumnCollision, name)
	}
	return t.SetColumn(name, values)
}

// SetColumn writes a whole column, replacing it when it already exists.
func (t *Table) SetColumn(name string, values []any) error {
	if len(values) != len(t.rows) {
		return fmt.Errorf("%w: column %q has %d values for %d rows", ErrInvalidArgument, name, len(values), len(t.rows))
	}
	t.ensureColumn(name)
	for i, v := range values {
		t.rows[i][name] = Normalize(v)
	}
	return nil
}

// DropColumn removes a column if present.
func (t *Table) DropColumn(name string) {
	pos, ok := t.index[name]
	if !ok {
		return
	}
	t.columns = append(t.columns[:pos], t.columns[pos+1:]...)
	delete(t.index, name)
	for i, c := range t.columns {
		t.index[c] = i
	}
	for _, r := range t.rows {
		delete(r, name)
	}
}

// RenameColumn renames a column in place.
func (t *Table) RenameColumn(from, to string) error {
	pos, ok := t.index[from]
	if !ok {
		return fmt.Errorf("%w: column %q", ErrNotFound, from)
	}
	if from == to {
		return nil
	}
	if t.HasColumn(to) {
		return fmt.Errorf("%w: column %q already exists", ErrColumnCollision, to)
	}
	t.columns[pos] = to
	delete(t.index, from)
	t.index[to] = pos
	for _, r := range t.rows {
		if v, ok := r[from]; ok {
			r[to] = v
			delete(r, from)
		}
	}
	return nil
}

// WithPrefix returns a copy whose columns are renamed to prefix + "_" + column.
func (t *Table) WithPrefix(prefix string) *Table {
	out := NewTable()
	for _, c := range t.columns {
		out.ensureColumn(prefix + "_" + c)
	}
	for _, r := range t.rows {
		nr := make(Row, len(r))
		for k, v := range r {
			nr[prefix+"_"+k] = cloneValue(v)
		}
		out.rows = append(out.rows, nr)
	}
	return out
}

// MissingColumns returns the given columns that the table lacks.
func (t *Table) MissingColumns(cols ...string) []string {
	var missing []string
	for _, c := range cols {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := NewTable(t.columns...)
	out.rows = make([]Row, len(t.rows))
	for i, r := range t.rows {
		nr := make(Row, len(r))
		for k, v := range r {
			nr[k] = cloneValue(v)
		}
		out.rows[i] = nr
	}
	return out
}

// Equal reports whether both tables carry the same column set and the same cells
// in the same row order. Column order is not significant.
func (t *Table) Equal(o *Table) bool {
	if t.Len() != o.Len() || len(t.columns) != len(o.columns) {
		return false
	}
	for _, c := range t.columns {
		if !o.HasColumn(c) {
			return false
		}
	}
	for i := range t.rows {
		for _, c := range t.columns {
			if !ValuesEqual(t.rows[i][c], o.rows[i][c]) {
				return false
			}
		}
	}
	return true
}

// Concat stacks the rows of b below the rows of a. The resulting column set is
// the union of both, in order of first appearance.
func Concat(a, b *Table) *Table {
	out := a.Clone()
	for _, c := range b.columns {
		out.ensureColumn(c)
	}
	for _, r := range b.Clone().rows {
		out.rows = append(out.rows, r)
	}
	return out
}

// DuplicateValues returns the values of a string column that occur more than once.
func DuplicateValues(values []string) []string {
	seen := make(map[string]int, len(values))
	var dups []string
	for _, v := range values {
		seen[v]++
		if seen[v] == 2 {
			dups = append(dups, v)
		}
	}
	return dups
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = cloneValue(e)
		}
		return out
	}
	return v
}
