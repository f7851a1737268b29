package script_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/protflow/pkg/adapters/process"
	"github.com/aretw0/protflow/pkg/domain"
	"github.com/aretw0/protflow/pkg/poses"
	"github.com/aretw0/protflow/pkg/ports"
	"github.com/aretw0/protflow/pkg/runner"
	"github.com/aretw0/protflow/pkg/tools/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPoses(t *testing.T, names ...string) *poses.Poses {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for _, n := range names {
		path := filepath.Join(dir, "in", n+".pdb")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("ATOM "+n+"\n"), 0644))
		paths = append(paths, path)
	}
	p, err := poses.New(poses.Files(paths...), poses.WithWorkDir(filepath.Join(dir, "work")))
	require.NoError(t, err)
	return p
}

func TestScript_Run(t *testing.T) {
	p := newPoses(t, "a", "b")
	s, err := script.New(process.ToolConfig{
		Name:        "relabel",
		Command:     `cp {pose} {output_dir}/{description}_${SUFFIX}.pdb && echo '{"rmsd": 1.5, "tag": "{options}"}' > {output_dir}/{description}_${SUFFIX}.json`,
		Environment: map[string]string{"SUFFIX": "0001"},
		IndexLayers: 1,
	}, script.WithJobStarter(process.NewStarter(process.WithMaxCores(2))))
	require.NoError(t, err)

	_, err = runner.Execute(context.Background(), s, p, "relabel", runner.RunOptions{Options: "--mode fast"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a_0001", "b_0001"}, p.Descriptions())
	rec, err := p.GetPose("b_0001")
	require.NoError(t, err)
	assert.Equal(t, 1.5, rec.Scores["relabel_rmsd"])
	assert.Equal(t, "--mode fast", rec.Scores["relabel_tag"])
	assert.FileExists(t, rec.Location)
}

func TestScript_Expand(t *testing.T) {
	s, err := script.New(process.ToolConfig{
		Name:        "score",
		Command:     "score.py",
		Args:        []string{"--in {pose}", "--name {description}", "--out {output_dir}", "{options}"},
		Environment: map[string]string{"B": "it's", "A": "1"},
	})
	require.NoError(t, err)

	got := s.Expand("/data/x.pdb", "/work/out", "--fast")
	assert.Equal(t, `export A='1' B='it'\''s'; score.py --in /data/x.pdb --name x --out /work/out --fast`, got)
}

func TestScript_Resume(t *testing.T) {
	p := newPoses(t, "a")
	calls := 0
	js := ports.JobStarterFunc(func(ctx context.Context, job ports.Job) error {
		calls++
		return os.WriteFile(filepath.Join(job.OutputPath, "output_files", "a.pdb"), []byte("ATOM\n"), 0644)
	})
	s, err := script.New(process.ToolConfig{Name: "noop", Command: "true"}, script.WithJobStarter(js))
	require.NoError(t, err)

	_, err = s.Run(context.Background(), p, "noop", runner.RunOptions{})
	require.NoError(t, err)
	out, err := s.Run(context.Background(), p, "noop", runner.RunOptions{})
	require.NoError(t, err)

	assert.True(t, out.Resumed())
	assert.Equal(t, 1, calls)
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdb"), []byte("ATOM\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{"plddt": [0.9, 0.8], "description": "ignored"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pdb"), []byte("ATOM\n"), 0644))

	tbl, err := script.Collect(dir)
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "a", tbl.Get(0, domain.ColResultDescription))
	assert.Equal(t, []any{0.9, 0.8}, tbl.Get(0, "plddt"))
	assert.Nil(t, tbl.Get(1, "plddt"))

	_, err = script.Collect(t.TempDir())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	bad := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bad, "c.pdb"), []byte("ATOM\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(bad, "c.json"), []byte(`{nope`), 0644))
	_, err = script.Collect(bad)
	assert.Error(t, err)
}

func TestNew_Validation(t *testing.T) {
	_, err := script.New(process.ToolConfig{Command: "true"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = script.New(process.ToolConfig{Name: "x", Command: "true", IndexLayers: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
