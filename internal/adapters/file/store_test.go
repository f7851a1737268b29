package file_test

import (
	"context"
	"testing"

	"github.com/aretw0/protflow/internal/adapters/file"
	"github.com/aretw0/protflow/pkg/domain"
	"github.com/aretw0/protflow/pkg/persistence"
	"github.com/aretw0/protflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Store implements TableStore
var _ ports.TableStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	for _, format := range persistence.Names() {
		t.Run(format, func(t *testing.T) {
			store, err := file.New(t.TempDir(), format)
			require.NoError(t, err)
			ports.RunTableStoreContract(t, store)
		})
	}
}

func TestFileStore_RejectsBadKeys(t *testing.T) {
	store, err := file.New(t.TempDir(), "")
	require.NoError(t, err)

	ctx := context.Background()
	assert.ErrorIs(t, store.Save(ctx, "", domain.NewTable()), domain.ErrInvalidArgument)
	assert.ErrorIs(t, store.Save(ctx, "../escape", domain.NewTable()), domain.ErrInvalidArgument)
}

func TestFileStore_UnknownFormat(t *testing.T) {
	_, err := file.New(t.TempDir(), "feather")
	assert.ErrorIs(t, err, domain.ErrUnknownFormat)
}
