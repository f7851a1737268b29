package poses_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/protflow/pkg/domain"
	"github.com/aretw0/protflow/pkg/poses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
		require.NoError(t, os.WriteFile(paths[i], []byte("ATOM "+n+"\n"), 0644))
	}
	return paths
}

func TestNew_Sources(t *testing.T) {
	dir := t.TempDir()
	paths := writeFiles(t, filepath.Join(dir, "in"), "b.pdb", "a.pdb", "notes.txt")

	t.Run("Glob", func(t *testing.T) {
		p, err := poses.New(poses.Glob(filepath.Join(dir, "in"), "*.pdb"))
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, p.Descriptions())
	})

	t.Run("Glob Without Match", func(t *testing.T) {
		_, err := poses.New(poses.Glob(filepath.Join(dir, "in"), "*.cif"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("File", func(t *testing.T) {
		p, err := poses.New(poses.File(paths[0]))
		require.NoError(t, err)
		assert.Equal(t, 1, p.Len())
		rec, err := p.GetPose("b")
		require.NoError(t, err)
		assert.Equal(t, paths[0], rec.Input)
		assert.Equal(t, paths[0], rec.Location)
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := poses.New(poses.File(filepath.Join(dir, "nope.pdb")))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Files Keep Order", func(t *testing.T) {
		p, err := poses.New(poses.Files(paths[0], paths[1]))
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a"}, p.Descriptions())
		assert.Equal(t, []string{paths[0], paths[1]}, p.PosesList())
	})

	t.Run("Files Name First Missing", func(t *testing.T) {
		missing := filepath.Join(dir, "missing.pdb")
		_, err := poses.New(poses.Files(paths[0], missing, filepath.Join(dir, "other.pdb")))
		require.ErrorIs(t, err, domain.ErrNotFound)
		assert.Contains(t, err.Error(), missing)
	})

	t.Run("Empty", func(t *testing.T) {
		p, err := poses.New(poses.Source{})
		require.NoError(t, err)
		assert.Equal(t, 0, p.Len())
		assert.Equal(t, domain.MandatoryColumns(), p.Table().Columns())
	})

	t.Run("Table Missing Column", func(t *testing.T) {
		tbl := domain.NewTable(domain.ColPoses, domain.ColDescription)
		_, err := poses.New(poses.FromTable(tbl))
		assert.ErrorIs(t, err, domain.ErrSchemaViolation)
	})

	t.Run("Duplicate Descriptions", func(t *testing.T) {
		other := writeFiles(t, filepath.Join(dir, "other"), "a.pdb")
		_, err := poses.New(poses.Files(paths[1], other[0]))
		assert.ErrorIs(t, err, domain.ErrSchemaViolation)
	})
}

func TestNew_WorkDirLayout(t *testing.T) {
	work := filepath.Join(t.TempDir(), "design_run")
	p, err := poses.New(poses.Source{}, poses.WithWorkDir(work), poses.WithStorageFormat("csv"))
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(work, "scores"))
	assert.Equal(t, filepath.Join(work, "scores"), p.ScoresDir())
	assert.Equal(t, filepath.Join(work, "scores", "design_run_scores.csv"), p.Scorefile())

	path, err := poses.DefaultScorefile(work, "csv")
	require.NoError(t, err)
	assert.Equal(t, p.Scorefile(), path)

	_, err = poses.New(poses.Source{}, poses.WithStorageFormat("pickle"))
	assert.ErrorIs(t, err, domain.ErrUnknownFormat)
}

func TestCheckPrefix(t *testing.T) {
	dir := t.TempDir()
	paths := writeFiles(t, dir, "a.pdb")
	p, err := poses.New(poses.Files(paths...))
	require.NoError(t, err)

	assert.NoError(t, p.CheckPrefix("rfdiffusion"))
	assert.ErrorIs(t, p.CheckPrefix("poses"), domain.ErrColumnCollision)
	assert.ErrorIs(t, p.CheckPrefix("input"), domain.ErrColumnCollision)
	assert.ErrorIs(t, p.CheckPrefix(""), domain.ErrInvalidArgument)
}

func TestRecords(t *testing.T) {
	dir := t.TempDir()
	paths := writeFiles(t, dir, "a.pdb", "b.pdb")
	tbl := domain.NewTable(domain.MandatoryColumns()...)
	tbl.AppendRow(domain.Row{
		domain.ColInputPoses: paths[0], domain.ColPoses: paths[0], domain.ColDescription: "a",
		"relax_total_score": -310.5,
	})
	p, err := poses.New(poses.FromTable(tbl))
	require.NoError(t, err)

	records, err := p.Records()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a", records[0].Description)
	assert.Equal(t, -310.5, records[0].Scores["relax_total_score"])

	_, err = p.GetPose("zzz")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReplace_RejectsBrokenInvariants(t *testing.T) {
	p, err := poses.New(poses.Source{})
	require.NoError(t, err)

	bad := domain.NewTable(domain.MandatoryColumns()...)
	bad.AppendRow(domain.Row{domain.ColPoses: "x/a.pdb", domain.ColDescription: "b"})
	err = p.Replace(bad)
	var schemaErr *domain.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []int{0}, schemaErr.Rows)
	assert.Equal(t, 0, p.Len())
}
