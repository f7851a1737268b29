package domain_test

import (
	"errors"
	"testing"

	"github.com/aretw0/protflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) *domain.Table {
	t.Helper()
	tbl := domain.NewTable(domain.MandatoryColumns()...)
	tbl.AppendRow(domain.Row{"input_poses": "in/a.pdb", "poses": "in/a.pdb", "poses_description": "a"})
	tbl.AppendRow(domain.Row{"input_poses": "in/b.pdb", "poses": "in/b.pdb", "poses_description": "b"})
	return tbl
}

func TestTable_AppendRowRegistersNewColumns(t *testing.T) {
	tbl := sampleTable(t)
	tbl.AppendRow(domain.Row{"poses_description": "c", "extra": 3})

	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"input_poses", "poses", "poses_description", "extra"}, tbl.Columns())
	assert.Nil(t, tbl.Get(0, "extra"))
	assert.Equal(t, int64(3), tbl.Get(2, "extra"))
}

func TestTable_AddColumnCollision(t *testing.T) {
	tbl := sampleTable(t)

	err := tbl.AddColumn("poses", []any{"x", "y"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrColumnCollision))

	require.NoError(t, tbl.AddColumn("score", []any{1.5, 2}))
	assert.Equal(t, 1.5, tbl.Get(0, "score"))
	assert.Equal(t, int64(2), tbl.Get(1, "score"))

	err = tbl.AddColumn("short", []any{1})
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestTable_DropAndRename(t *testing.T) {
	tbl := sampleTable(t)
	tbl.DropColumn("input_poses")
	tbl.DropColumn("missing")
	assert.Equal(t, []string{"poses", "poses_description"}, tbl.Columns())

	require.NoError(t, tbl.RenameColumn("poses", "location"))
	assert.Equal(t, "in/a.pdb", tbl.Get(0, "location"))
	assert.False(t, tbl.HasColumn("poses"))

	err := tbl.RenameColumn("location", "poses_description")
	assert.True(t, errors.Is(err, domain.ErrColumnCollision))
	err = tbl.RenameColumn("nope", "x")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestTable_CloneIsDeep(t *testing.T) {
	tbl := sampleTable(t)
	tbl.Set(0, "tags", []any{"x", "y"})
	clone := tbl.Clone()

	clone.Set(1, "poses", "moved.pdb")
	clone.Get(0, "tags").([]any)[0] = "changed"

	assert.Equal(t, "in/b.pdb", tbl.Get(1, "poses"))
	assert.Equal(t, "x", tbl.Get(0, "tags").([]any)[0])
	assert.False(t, tbl.Equal(clone))
}

func TestTable_WithPrefix(t *testing.T) {
	res := domain.NewTable("description", "location")
	res.AppendRow(domain.Row{"description": "a_0001", "location": "out/a_0001.pdb"})

	pref := res.WithPrefix("rfd")
	assert.Equal(t, []string{"rfd_description", "rfd_location"}, pref.Columns())
	assert.Equal(t, "a_0001", pref.Get(0, "rfd_description"))
	assert.True(t, res.HasColumn("description"), "source must be untouched")
}

func TestTable_HasColumnRoot(t *testing.T) {
	tbl := sampleTable(t)
	tbl.Set(0, "rfd_location", "x")

	assert.True(t, tbl.HasColumnRoot("rfd", "_"))
	assert.True(t, tbl.HasColumnRoot("poses", "_"))
	assert.False(t, tbl.HasColumnRoot("rf", "_"))
}

func TestConcat(t *testing.T) {
	a := sampleTable(t)
	b := domain.NewTable("poses", "score")
	b.AppendRow(domain.Row{"poses": "c.pdb", "score": 1})

	out := domain.Concat(a, b)
	assert.Equal(t, 3, out.Len())
	assert.Equal(t, []string{"input_poses", "poses", "poses_description", "score"}, out.Columns())
	assert.Nil(t, out.Get(0, "score"))
	assert.Nil(t, out.Get(2, "input_poses"))
	assert.Equal(t, 2, a.Len())
}

func TestTable_EqualIgnoresColumnOrder(t *testing.T) {
	a := domain.NewTable("x", "y")
	a.AppendRow(domain.Row{"x": 1, "y": "v"})
	b := domain.NewTable("y", "x")
	b.AppendRow(domain.Row{"x": 1.0, "y": "v"})

	assert.True(t, a.Equal(b))
}

func TestNewTableFromColumns(t *testing.T) {
	tbl, err := domain.NewTableFromColumns([]string{"a", "b"}, map[string][]any{
		"a": {1, 2},
		"b": {"x", nil},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	assert.Nil(t, tbl.Get(1, "b"))

	_, err = domain.NewTableFromColumns([]string{"a", "b"}, map[string][]any{"a": {1}, "b": {}})
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestDuplicateValues(t *testing.T) {
	assert.Equal(t, []string{"a"}, domain.DuplicateValues([]string{"a", "b", "a", "a"}))
	assert.Empty(t, domain.DuplicateValues([]string{"a", "b"}))
}
