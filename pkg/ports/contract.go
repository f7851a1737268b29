package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/protflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTableStoreContract runs a suite of tests to verify that a TableStore implementation
// adheres to the defined interface contract.
func RunTableStoreContract(t *testing.T, store TableStore) {
	ctx := context.Background()
	key := "contract-test-" + time.Now().Format("20060102150405")

	sample := func() *domain.Table {
		tbl := domain.NewTable(domain.MandatoryColumns()...)
		tbl.AppendRow(domain.Row{
			domain.ColInputPoses:  "in/a.pdb",
			domain.ColPoses:       "work/a_0001.pdb",
			domain.ColDescription: "a_0001",
			"stage_score":         -12.5,
			"stage_tags":          []any{"x", "y"},
		})
		tbl.AppendRow(domain.Row{
			domain.ColInputPoses:  "in/b.pdb",
			domain.ColPoses:       "work/b_0001.pdb",
			domain.ColDescription: "b_0001",
			"stage_score":         3,
			"stage_tags":          nil,
		})
		return tbl
	}

	t.Run("Save and Load", func(t *testing.T) {
		tbl := sample()

		err := store.Save(ctx, key, tbl)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.ElementsMatch(t, tbl.Columns(), loaded.Columns())
		assert.True(t, tbl.Equal(loaded), "loaded table should equal the saved one")
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		tbl := sample()
		tbl.Set(0, "stage_score", 1)
		require.NoError(t, store.Save(ctx, key, tbl))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.True(t, domain.ValuesEqual(1, loaded.Get(0, "stage_score")))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, key, sample())
		require.NoError(t, err)

		err = store.Delete(ctx, key)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrNotFound, "Load after Delete should return ErrNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := key + "-1"
		id2 := key + "-2"
		_ = store.Save(ctx, id1, sample())
		_ = store.Save(ctx, id2, sample())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, id1)
		assert.Contains(t, keys, id2)
	})
}
