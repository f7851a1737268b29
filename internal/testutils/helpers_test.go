package testutils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWritePoses(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	paths := WritePoses(t, dir, "a", "b")

	assert.Equal(t, []string{filepath.Join(dir, "a.pdb"), filepath.Join(dir, "b.pdb")}, paths)
	for _, p := range paths {
		assert.FileExists(t, p)
	}
}
