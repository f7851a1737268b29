package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WritePoses creates <dir>/<name>.pdb for every name and returns the paths in
// order. An empty dir selects a fresh temp dir. It fails the test immediately
// on error.
func WritePoses(t *testing.T, dir string, names ...string) []string {
	t.Helper()

	if dir == "" {
		dir = t.TempDir()
	}
	require.NoError(t, os.MkdirAll(dir, 0755), "Failed to create pose dir")

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name+".pdb")
		err := os.WriteFile(paths[i], []byte("ATOM  "+name+"\n"), 0644)
		require.NoError(t, err, "Failed to write pose %s", name)
	}
	return paths
}
