package memory_test

import (
	"testing"

	"github.com/aretw0/protflow/pkg/adapters/memory"
	"github.com/aretw0/protflow/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunTableStoreContract(t, store)
}
