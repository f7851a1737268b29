package process_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/protflow/pkg/adapters/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTools_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.yaml")
	content := `
tools:
  - name: relax
    command: relax.sh
    args: ["{pose}", "{output_dir}/{description}.pdb"]
    env:
      OMP_NUM_THREADS: "1"
    index_layers: 1
  - command: nameless.sh
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	tools, err := process.LoadTools(path)
	require.NoError(t, err)
	require.Len(t, tools, 1)

	relax := tools["relax"]
	assert.Equal(t, "relax.sh {pose} {output_dir}/{description}.pdb", relax.CommandLine())
	assert.Equal(t, "1", relax.Environment["OMP_NUM_THREADS"])
	assert.Equal(t, 1, relax.IndexLayers)
}

func TestLoadTools_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.json")
	content := `{"tools": [{"name": "score", "command": "score.py {pose}"}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	tools, err := process.LoadTools(path)
	require.NoError(t, err)
	assert.Equal(t, "score.py {pose}", tools["score"].CommandLine())
}

func TestLoadTools_Missing(t *testing.T) {
	tools, err := process.LoadTools(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, tools)
}

func TestLoadTools_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tools: [unclosed"), 0644))

	_, err := process.LoadTools(path)
	assert.Error(t, err)
}
